package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/creditdesk/desk-agent/internal/defaults"
)

// runInit initializes a deskagent working directory with default files.
// It creates the directory structure and copies bundled defaults for
// config and a sample workspace memo. Existing files are never
// overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing deskagent workspace in %s\n", dir)

	for _, sub := range []string{"data", "workspace"} {
		path := filepath.Join(dir, sub)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	}

	// Config may carry endpoint credentials via env expansion targets,
	// so keep it owner-only.
	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(configPath, defaults.ConfigYAML, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", configPath)

	memoPath := filepath.Join(dir, "workspace", "memo.txt")
	if err := writeIfMissing(memoPath, defaults.MemoTXT, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", memoPath)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit config.yaml to point at your Ollama and workflow endpoints.")
	return nil
}

// writeIfMissing writes content to path only if the file does not already
// exist, so init never overwrites user customizations.
func writeIfMissing(path string, content []byte, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, content, perm)
}
