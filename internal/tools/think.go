package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ThinkTool echoes a thought back so it lands in the transcript.
type ThinkTool struct{}

func (t *ThinkTool) Name() string                     { return "think" }
func (t *ThinkTool) IsReadOnly() bool                 { return true }
func (t *ThinkTool) PermissionLevel() PermissionLevel { return PermissionRead }
func (t *ThinkTool) Required() []string               { return []string{"thought"} }

func (t *ThinkTool) Description() string {
	return "A tool for thinking through complex problems"
}

func (t *ThinkTool) Parameters() map[string]any {
	return map[string]any{
		"thought": map[string]any{
			"type":        "string",
			"description": "Your thoughts",
		},
	}
}

func (t *ThinkTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Thought string `json:"thought"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	return ToolResult{Content: "Thought process: " + p.Thought}, nil
}

// CodeReviewTool is a placeholder; the review itself is done by the model.
type CodeReviewTool struct{}

func (t *CodeReviewTool) Name() string                     { return "codeReview" }
func (t *CodeReviewTool) IsReadOnly() bool                 { return true }
func (t *CodeReviewTool) PermissionLevel() PermissionLevel { return PermissionRead }
func (t *CodeReviewTool) Required() []string               { return []string{"code"} }

func (t *CodeReviewTool) Description() string {
	return "Review code for bugs, security issues, and best practices"
}

func (t *CodeReviewTool) Parameters() map[string]any {
	return map[string]any{
		"code": map[string]any{
			"type":        "string",
			"description": "The code to review",
		},
	}
}

const codeReviewNotice = "Code review functionality will be handled by the LLM through prompts."

func (t *CodeReviewTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	return ToolResult{Content: codeReviewNotice}, nil
}
