package sentinel

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHashFile(t *testing.T) {
	// Create a temp file with known content.
	dir := t.TempDir()
	path := filepath.Join(dir, "testfile")
	content := []byte("hello world")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	want := sha256.Sum256(content)
	if got != want {
		t.Errorf("hash mismatch: got %x, want %x", got, want)
	}
}

func TestHashFileDifferentContent(t *testing.T) {
	dir := t.TempDir()

	path1 := filepath.Join(dir, "file1")
	path2 := filepath.Join(dir, "file2")
	if err := os.WriteFile(path1, []byte("content A"), 0644); err != nil {
		t.Fatalf("failed to write file1: %v", err)
	}
	if err := os.WriteFile(path2, []byte("content B"), 0644); err != nil {
		t.Fatalf("failed to write file2: %v", err)
	}

	hash1, err := HashFile(path1)
	if err != nil {
		t.Fatalf("HashFile(file1) failed: %v", err)
	}
	hash2, err := HashFile(path2)
	if err != nil {
		t.Fatalf("HashFile(file2) failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("different files produced the same hash")
	}
}

func TestHashFileNotFound(t *testing.T) {
	_, err := HashFile("/nonexistent/file/path")
	if err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestSentinelDetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	if err := os.WriteFile(path, []byte(`{"version":"1.1"}`), 0644); err != nil {
		t.Fatalf("failed to write initial file: %v", err)
	}

	changed := make(chan struct{}, 1)
	s, err := New(path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("failed to create sentinel: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = s.Run(ctx)
	}()

	// Give the watcher a moment to install.
	time.Sleep(200 * time.Millisecond)

	// Atomic replace, the same pattern storage uses.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(`{"version":"1.1","tasks":[]}`), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("change was not detected")
	}
}

func TestSentinelIgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	content := []byte(`{"version":"1.1"}`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write initial file: %v", err)
	}

	changed := make(chan struct{}, 1)
	s, err := New(path, func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("failed to create sentinel: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = s.Run(ctx)
	}()
	time.Sleep(200 * time.Millisecond)

	// Rewrite identical content: the checksum does not change, so no callback.
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}

	select {
	case <-changed:
		t.Fatal("unchanged content triggered the callback")
	case <-time.After(500 * time.Millisecond):
	}
}
