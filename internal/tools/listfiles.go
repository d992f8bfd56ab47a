package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apexion-ai/mcpcli/internal/fsview"
)

// ListFilesTool lists directory contents as JSON.
type ListFilesTool struct{}

func (t *ListFilesTool) Name() string                     { return "listFiles" }
func (t *ListFilesTool) IsReadOnly() bool                 { return true }
func (t *ListFilesTool) PermissionLevel() PermissionLevel { return PermissionRead }
func (t *ListFilesTool) Required() []string               { return []string{"path"} }

func (t *ListFilesTool) Description() string {
	return "Lists files and directories in a given path"
}

func (t *ListFilesTool) Parameters() map[string]any {
	return map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "The absolute path to the directory to list",
		},
	}
}

func (t *ListFilesTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Path == "" {
		return ToolResult{}, fmt.Errorf("path is required")
	}

	items, err := fsview.ListDirectory(p.Path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("failed to list directory: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return ToolResult{}, fmt.Errorf("encode listing: %w", err)
	}
	return ToolResult{Content: string(data)}, nil
}
