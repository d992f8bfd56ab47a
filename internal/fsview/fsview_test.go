package fsview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestListDirectory_Order(t *testing.T) {
	tmp := t.TempDir()
	os.Mkdir(filepath.Join(tmp, "zeta"), 0755)
	os.Mkdir(filepath.Join(tmp, "Beta"), 0755)
	os.WriteFile(filepath.Join(tmp, "b.txt"), []byte("12345"), 0644)
	os.WriteFile(filepath.Join(tmp, "B.txt"), []byte(""), 0644)

	items, err := ListDirectory(tmp)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	// Byte order: uppercase sorts before lowercase.
	if diff := cmp.Diff([]string{"Beta", "zeta", "B.txt", "b.txt"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if items[0].Size != nil {
		t.Error("directories should carry no size")
	}
	if items[3].Size == nil || *items[3].Size != 5 {
		t.Errorf("b.txt size = %v, want 5", items[3].Size)
	}
	if items[3].Modified == nil {
		t.Error("modified time missing")
	}
}

func TestListDirectory_Missing(t *testing.T) {
	if _, err := ListDirectory(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
