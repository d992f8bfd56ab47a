package tools

import (
	"os"
	"strings"
)

var defaultSkipDirNames = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	"__pycache__":   true,
	".next":         true,
	"dist":          true,
	"build":         true,
	"target":        true,
	".venv":         true,
	".tox":          true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".chat_history": true,
}

// shouldSkipDir reports whether a directory walk should prune this entry.
// Hidden directories are pruned too.
func shouldSkipDir(_ string, name string) bool {
	if defaultSkipDirNames[name] {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

const maxSearchFileSize = 1024 * 1024

func shouldSkipFilePath(_ string, info os.FileInfo) bool {
	return info != nil && info.Size() > maxSearchFileSize
}
