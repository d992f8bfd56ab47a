package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReadFileTool reads file contents.
type ReadFileTool struct{}

func (t *ReadFileTool) Name() string                     { return "readFile" }
func (t *ReadFileTool) IsReadOnly() bool                 { return true }
func (t *ReadFileTool) PermissionLevel() PermissionLevel { return PermissionRead }
func (t *ReadFileTool) Required() []string               { return []string{"file_path"} }

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file at the given path. " +
		"Use offset and limit to read specific line ranges for large files."
}

func (t *ReadFileTool) Parameters() map[string]any {
	return map[string]any{
		"file_path": map[string]any{
			"type":        "string",
			"description": "Absolute path to the file to read",
		},
		"offset": map[string]any{
			"type":        "number",
			"description": "Line number to start reading from (0-based, optional)",
		},
		"limit": map[string]any{
			"type":        "number",
			"description": "Maximum number of lines to read (default 2000)",
		},
	}
}

const defaultReadLimit = 2000

func (t *ReadFileTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		FilePath string `json:"file_path"`
		Path     string `json:"path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.FilePath == "" && p.Path != "" {
		p.FilePath = p.Path
	}
	if p.FilePath == "" {
		return ToolResult{}, fmt.Errorf("file_path is required")
	}
	if p.Limit <= 0 {
		p.Limit = defaultReadLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	info, err := os.Stat(p.FilePath)
	if err != nil {
		return ToolResult{}, fmt.Errorf("failed to read file: %w", err)
	}
	if info.IsDir() {
		return ToolResult{}, fmt.Errorf("%s is a directory", p.FilePath)
	}

	data, err := os.ReadFile(p.FilePath)
	if err != nil {
		return ToolResult{}, fmt.Errorf("failed to read file: %w", err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	lines := strings.Split(text, "\n")
	if len(data) == 0 {
		lines = nil
	}
	totalLines := len(lines)

	if p.Offset > 0 {
		if p.Offset >= totalLines {
			return ToolResult{Content: fmt.Sprintf("[File has %d lines, offset %d is beyond end]", totalLines, p.Offset)}, nil
		}
		lines = lines[p.Offset:]
	}

	truncated := false
	if len(lines) > p.Limit {
		lines = lines[:p.Limit]
		truncated = true
	}

	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%6d\t%s\n", p.Offset+i+1, line)
	}
	if truncated {
		fmt.Fprintf(&sb, "[Truncated: %d total lines. Use offset/limit to read more.]", totalLines)
	}

	return ToolResult{Content: sb.String(), Truncated: truncated}, nil
}

// StripLineNumbers removes the "%6d\t" gutter that readFile adds, returning
// the raw file text. Lines without a gutter are kept as-is.
func StripLineNumbers(numbered string) string {
	if numbered == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.SplitAfter(numbered, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[Truncated:") {
			continue
		}
		if idx := strings.IndexByte(line, '\t'); idx >= 0 && isGutter(line[:idx]) {
			line = line[idx+1:]
		}
		sb.WriteString(line)
	}
	return sb.String()
}

func isGutter(s string) bool {
	s = strings.TrimLeft(s, " ")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
