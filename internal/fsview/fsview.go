// Package fsview lists directories for display: the listFiles tool result
// and the interactive browser both render its FileItem values.
package fsview

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileItem describes one directory entry.
type FileItem struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	IsDirectory bool       `json:"isDirectory"`
	Size        *int64     `json:"size,omitempty"`
	Modified    *time.Time `json:"modified,omitempty"`
}

// ListDirectory returns the entries of dir, directories first, then by name.
// Entries that vanish or cannot be stat'd between readdir and stat are skipped.
func ListDirectory(dir string) ([]FileItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	items := make([]FileItem, 0, len(entries))
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		mod := info.ModTime()
		item := FileItem{
			Name:        e.Name(),
			Path:        p,
			IsDirectory: info.IsDir(),
			Modified:    &mod,
		}
		if !info.IsDir() {
			size := info.Size()
			item.Size = &size
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDirectory != items[j].IsDirectory {
			return items[i].IsDirectory
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
