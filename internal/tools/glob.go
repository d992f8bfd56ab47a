package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SearchGlobTool matches files using glob patterns.
type SearchGlobTool struct{}

func (t *SearchGlobTool) Name() string                     { return "searchGlob" }
func (t *SearchGlobTool) IsReadOnly() bool                 { return true }
func (t *SearchGlobTool) PermissionLevel() PermissionLevel { return PermissionRead }
func (t *SearchGlobTool) Required() []string               { return []string{"pattern"} }

func (t *SearchGlobTool) Description() string {
	return "Find files matching a glob pattern. " +
		"Supports ** for recursive matching (e.g. '**/*.go', 'src/**/*.ts'). " +
		"Returns matching file paths sorted by modification time (newest first)."
}

func (t *SearchGlobTool) Parameters() map[string]any {
	return map[string]any{
		"pattern": map[string]any{
			"type":        "string",
			"description": "Glob pattern to match files (e.g. '**/*.go', 'src/*.ts')",
		},
		"path": map[string]any{
			"type":        "string",
			"description": "Base directory to search in (default: current directory)",
		},
	}
}

const maxGlobResults = 1000

func (t *SearchGlobTool) Execute(ctx context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
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

	var matches []string
	var err error
	if strings.Contains(p.Pattern, "**") {
		matches, err = globRecursive(ctx, p.Path, p.Pattern)
	} else {
		matches, err = filepath.Glob(filepath.Join(p.Path, p.Pattern))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ToolResult{}, ctxErr
		}
		return ToolResult{}, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return ToolResult{Content: "no files matched"}, nil
	}

	sortByModTime(matches)

	truncated := false
	if len(matches) > maxGlobResults {
		matches = matches[:maxGlobResults]
		truncated = true
	}

	content := strings.Join(matches, "\n")
	if truncated {
		content += fmt.Sprintf("\n[Truncated: showing first %d results]", maxGlobResults)
	}
	return ToolResult{Content: content, Truncated: truncated}, nil
}

// globRecursive handles patterns containing ** by walking the tree and
// matching each file against the part after the **.
//
//	"**/*.go"     -> root=".",   suffix="*.go"
//	"src/**/*.go" -> root="src", suffix="*.go"
//	"**"          -> every file
func globRecursive(ctx context.Context, basePath, pattern string) ([]string, error) {
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimRight(parts[0], "/\\")
	suffix := ""
	if len(parts) > 1 {
		suffix = strings.TrimLeft(parts[1], "/\\")
	}
	if _, err := filepath.Match(suffix, ""); err != nil {
		return nil, err
	}

	root := basePath
	if prefix != "" {
		root = filepath.Join(basePath, prefix)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && shouldSkipDir(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case suffix == "":
			matches = append(matches, path)
		case strings.ContainsRune(suffix, '/') || strings.ContainsRune(suffix, os.PathSeparator):
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := filepath.Match(suffix, rel); ok {
				matches = append(matches, path)
			}
		default:
			if ok, _ := filepath.Match(suffix, d.Name()); ok {
				matches = append(matches, path)
			}
		}
		return nil
	})
	return matches, err
}

// sortByModTime sorts file paths by modification time, newest first.
// Files that cannot be stat'd go to the end.
func sortByModTime(paths []string) {
	type fileWithTime struct {
		path    string
		modTime int64
	}

	files := make([]fileWithTime, len(paths))
	for i, p := range paths {
		files[i] = fileWithTime{path: p}
		if info, err := os.Stat(p); err == nil {
			files[i].modTime = info.ModTime().UnixNano()
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime > files[j].modTime
	})

	for i, f := range files {
		paths[i] = f.path
	}
}
