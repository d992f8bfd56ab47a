package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EditFileTool 写入文件内容（整体覆盖），必要时创建父目录
type EditFileTool struct{}

func (t *EditFileTool) Name() string                     { return "editFile" }
func (t *EditFileTool) IsReadOnly() bool                 { return false }
func (t *EditFileTool) PermissionLevel() PermissionLevel { return PermissionWrite }
func (t *EditFileTool) Required() []string               { return []string{"file_path", "content"} }

func (t *EditFileTool) Description() string {
	return "Write content to a file, creating parent directories if needed. " +
		"This replaces the whole file if it already exists."
}

func (t *EditFileTool) Parameters() map[string]any {
	return map[string]any{
		"file_path": map[string]any{
			"type":        "string",
			"description": "Path to the file to write",
		},
		"content": map[string]any{
			"type":        "string",
			"description": "The new content of the file",
		},
	}
}

func (t *EditFileTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		FilePath *string `json:"file_path"`
		Content  *string `json:"content"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.FilePath == nil || *p.FilePath == "" {
		return ToolResult{}, fmt.Errorf("file_path is required")
	}
	if p.Content == nil {
		return ToolResult{}, fmt.Errorf("content is required")
	}
	path := *p.FilePath

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ToolResult{}, fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(path, []byte(*p.Content), 0o644); err != nil {
		return ToolResult{}, fmt.Errorf("failed to write file: %w", err)
	}

	return ToolResult{Content: fmt.Sprintf("File %s has been updated.", path)}, nil
}
