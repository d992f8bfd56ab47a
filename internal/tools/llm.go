package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apexion-ai/mcpcli/internal/provider"
)

// LLMTool forwards a prompt, plus optional prior turns, to a provider and
// returns the reply text. The "prompt" tool is backed by Claude, the
// "gemini" tool by Gemini.
type LLMTool struct {
	name        string
	description string
	target      string
	provider    provider.Provider
}

// NewPromptTool returns the "prompt" tool. A nil provider yields a tool
// that always reports the provider as unavailable.
func NewPromptTool(p provider.Provider) *LLMTool {
	return newLLMTool("prompt", "Claude", p)
}

// NewGeminiTool returns the "gemini" tool.
func NewGeminiTool(p provider.Provider) *LLMTool {
	return newLLMTool("gemini", "Gemini", p)
}

func newLLMTool(name, target string, p provider.Provider) *LLMTool {
	if p == nil {
		p = provider.Unavailable(strings.ToLower(target), provider.ErrMissingAPIKey)
	}
	return &LLMTool{
		name:        name,
		description: fmt.Sprintf("Generate text response using %s API", target),
		target:      target,
		provider:    p,
	}
}

func (t *LLMTool) Name() string                     { return t.name }
func (t *LLMTool) Description() string              { return t.description }
func (t *LLMTool) IsReadOnly() bool                 { return true }
func (t *LLMTool) PermissionLevel() PermissionLevel { return PermissionNetwork }
func (t *LLMTool) Required() []string               { return []string{"prompt"} }

// Provider returns the backing provider.
func (t *LLMTool) Provider() provider.Provider { return t.provider }

func (t *LLMTool) Parameters() map[string]any {
	return map[string]any{
		"prompt": map[string]any{
			"type":        "string",
			"description": fmt.Sprintf("The prompt to send to %s API", t.target),
		},
		"messages": map[string]any{
			"type":        "array",
			"description": "Prior conversation turns, oldest first",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"role":    map[string]any{"type": "string", "enum": []string{"user", "assistant", "system"}},
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"role", "content"},
			},
		},
	}
}

func (t *LLMTool) Execute(ctx context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Prompt   string             `json:"prompt"`
		Messages []provider.Message `json:"messages"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return ToolResult{}, fmt.Errorf("prompt is required")
	}

	text, err := t.provider.Complete(ctx, &provider.Request{
		History: p.Messages,
		Prompt:  p.Prompt,
	})
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Content: text}, nil
}
