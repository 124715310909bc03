package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TempFile creates a file with content in a per-test temporary directory.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

// NoSleep is a backoff sleep that returns at once.
func NoSleep(context.Context, time.Duration) error {
	return nil
}
