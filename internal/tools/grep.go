package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// GrepTool recursively searches file contents.
type GrepTool struct{}

func (t *GrepTool) Name() string                     { return "grep" }
func (t *GrepTool) IsReadOnly() bool                 { return true }
func (t *GrepTool) PermissionLevel() PermissionLevel { return PermissionRead }
func (t *GrepTool) Required() []string               { return []string{"pattern"} }

func (t *GrepTool) Description() string {
	return "Recursively search file contents using a regex pattern. " +
		"Returns matching lines in 'file:line:content' format (max 50 results)."
}

func (t *GrepTool) Parameters() map[string]any {
	return map[string]any{
		"pattern": map[string]any{
			"type":        "string",
			"description": "Regular expression pattern to search for",
		},
		"path": map[string]any{
			"type":        "string",
			"description": "Directory or file to search in (default: current directory)",
		},
		"include": map[string]any{
			"type":        "string",
			"description": "File name filter (e.g. '*.go', '*.ts')",
		},
	}
}

const maxGrepResults = 50

var errLimitReached = errors.New("limit reached")

func (t *GrepTool) Execute(ctx context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
		Include string `json:"include"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Pattern == "" {
		return ToolResult{}, fmt.Errorf("pattern is required")
	}
	if p.Path == "" {
		p.Path = "."
	}

	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return ToolResult{}, fmt.Errorf("invalid regex pattern: %w", err)
	}
	if p.Include != "" {
		if _, err := filepath.Match(p.Include, ""); err != nil {
			return ToolResult{}, fmt.Errorf("invalid include pattern: %w", err)
		}
	}

	var results []string
	err = filepath.Walk(p.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if path != p.Path && shouldSkipDir(path, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldSkipFilePath(path, info) {
			return nil
		}
		if p.Include != "" {
			if ok, _ := filepath.Match(p.Include, info.Name()); !ok {
				return nil
			}
		}

		if err := searchFile(path, re, &results); err != nil {
			return nil
		}
		if len(results) >= maxGrepResults {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return ToolResult{}, fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return ToolResult{Content: "no matches found"}, nil
	}

	content := strings.Join(results, "\n")
	truncated := len(results) >= maxGrepResults
	if truncated {
		content += fmt.Sprintf("\n[Truncated: showing first %d results]", maxGrepResults)
	}
	return ToolResult{Content: content, Truncated: truncated}, nil
}

func searchFile(path string, re *regexp.Regexp, results *[]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			*results = append(*results, fmt.Sprintf("%s:%d:%s", path, lineNum, line))
			if len(*results) >= maxGrepResults {
				return nil
			}
		}
	}
	return scanner.Err()
}
