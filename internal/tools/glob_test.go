package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// globTree builds a workspace with sources, a session history directory and
// the kinds of hidden or generated directories a search should not enter.
func globTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"main.go",
		"notes.md",
		"src/handler.go",
		"src/pkg/util.go",
		"src/pkg/deep/deep.go",
		".chat_history/session_1700000000000.json",
		".cache/cached.go",
		"node_modules/lib/index.go",
		"data/report.json",
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// searchGlob runs the tool and returns the matches relative to base,
// slash-separated and sorted.
func searchGlob(t *testing.T, ctx context.Context, base, pattern string) []string {
	t.Helper()
	params, _ := json.Marshal(map[string]any{"pattern": pattern, "path": base})
	result, err := (&SearchGlobTool{}).Execute(ctx, params)
	if err != nil {
		t.Fatalf("searchGlob(%q): %v", pattern, err)
	}
	if result.Content == "no files matched" {
		return nil
	}
	var got []string
	for _, line := range strings.Split(result.Content, "\n") {
		rel, err := filepath.Rel(base, line)
		if err != nil {
			t.Fatalf("rel %q: %v", line, err)
		}
		got = append(got, filepath.ToSlash(rel))
	}
	sort.Strings(got)
	return got
}

func TestSearchGlob_Patterns(t *testing.T) {
	root := globTree(t)
	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.go", []string{"main.go"}},
		{"**/*.go", []string{"main.go", "src/handler.go", "src/pkg/deep/deep.go", "src/pkg/util.go"}},
		{"src/**/*.go", []string{"src/handler.go", "src/pkg/deep/deep.go", "src/pkg/util.go"}},
		// A suffix with a separator matches against the path below the prefix.
		{"src/**/pkg/*.go", []string{"src/pkg/util.go"}},
		// Hidden directories and the chat history are pruned.
		{"**/*.json", []string{"data/report.json"}},
		{"**", []string{"data/report.json", "main.go", "notes.md", "src/handler.go", "src/pkg/deep/deep.go", "src/pkg/util.go"}},
		{"**/*.xyz", nil},
		{"missing/**/*.go", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got := searchGlob(t, context.Background(), root, tt.pattern)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("matches (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchGlob_HiddenBaseIsSearched(t *testing.T) {
	// Only directories below the base are pruned.
	root := globTree(t)
	got := searchGlob(t, context.Background(), filepath.Join(root, ".chat_history"), "**/*.json")
	if diff := cmp.Diff([]string{"session_1700000000000.json"}, got); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
}

func TestSearchGlob_BadPattern(t *testing.T) {
	root := globTree(t)
	for _, pattern := range []string{"**/[", "[", "src/**/a[b"} {
		params, _ := json.Marshal(map[string]any{"pattern": pattern, "path": root})
		_, err := (&SearchGlobTool{}).Execute(context.Background(), params)
		if !errors.Is(err, filepath.ErrBadPattern) {
			t.Errorf("pattern %q: err = %v, want ErrBadPattern", pattern, err)
		}
	}
}

func TestSearchGlob_CancelledContext(t *testing.T) {
	root := globTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	params, _ := json.Marshal(map[string]any{"pattern": "**/*.go", "path": root})
	_, err := (&SearchGlobTool{}).Execute(ctx, params)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSearchGlob_NewestFirst(t *testing.T) {
	tmp := t.TempDir()
	older := filepath.Join(tmp, "older.go")
	newer := filepath.Join(tmp, "newer.go")
	os.WriteFile(older, nil, 0644)
	os.WriteFile(newer, nil, 0644)
	past := time.Now().Add(-time.Hour)
	os.Chtimes(older, past, past)

	params, _ := json.Marshal(map[string]any{"pattern": "**/*.go", "path": tmp})
	result, err := (&SearchGlobTool{}).Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{newer, older}, strings.Split(result.Content, "\n")); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestSearchGlob_MissingPattern(t *testing.T) {
	if _, err := (&SearchGlobTool{}).Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing pattern")
	}
}
