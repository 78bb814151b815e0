package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileTools_ReadInsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "memo.txt"), []byte("rent roll pending"), 0644); err != nil {
		t.Fatal(err)
	}

	ft := NewFileTools(dir)
	got, err := ft.Read("memo.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "rent roll pending" {
		t.Errorf("Read = %q", got)
	}
}

func TestFileTools_MissingFile(t *testing.T) {
	ft := NewFileTools(t.TempDir())

	_, err := ft.Read("nope.txt")
	if err == nil {
		t.Fatal("Read succeeded on a missing file")
	}
	if !strings.Contains(err.Error(), "file not found") {
		t.Errorf("error = %v, want file-not-found", err)
	}
}

func TestFileTools_EscapeRejected(t *testing.T) {
	dir := t.TempDir()
	ft := NewFileTools(dir)

	tests := []string{
		"../outside.txt",
		"../../etc/passwd",
		"a/../../outside.txt",
		"/etc/passwd",
	}

	for _, path := range tests {
		if _, err := ft.Read(path); err == nil {
			t.Errorf("Read(%q) escaped the workspace", path)
		}
	}
}

// Sibling directories sharing the workspace path as a prefix must not
// pass the containment check.
func TestFileTools_SiblingPrefixRejected(t *testing.T) {
	base := t.TempDir()
	workspace := filepath.Join(base, "ws")
	sibling := filepath.Join(base, "ws-evil")
	for _, d := range []string{workspace, sibling} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(sibling, "secret.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ft := NewFileTools(workspace)
	if _, err := ft.Read(filepath.Join(sibling, "secret.txt")); err == nil {
		t.Error("Read reached a sibling-prefix directory")
	}
}

func TestFileTools_Disabled(t *testing.T) {
	ft := NewFileTools("")
	if ft.Enabled() {
		t.Error("Enabled() = true with empty workspace")
	}
	if _, err := ft.Read("memo.txt"); err == nil {
		t.Error("Read succeeded with no workspace configured")
	}
}
