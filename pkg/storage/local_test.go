package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageReadWrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := s.Write(ctx, "board/board.json", []byte(`{"version":"1.1"}`)); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	data, err := s.Read(ctx, "board/board.json")
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(data) != `{"version":"1.1"}` {
		t.Errorf("unexpected content: %s", data)
	}

	exists, err := s.Exists(ctx, "board/board.json")
	if err != nil || !exists {
		t.Errorf("expected file to exist, got exists=%v err=%v", exists, err)
	}
}

func TestLocalStorageReadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	_, err = s.Read(context.Background(), "nope.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorageDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := s.Write(ctx, "sub.yaml", []byte("a: 1")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := s.Delete(ctx, "sub.yaml"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if !errors.Is(s.Delete(ctx, "sub.yaml"), ErrNotFound) {
		t.Error("expected ErrNotFound when deleting a missing file")
	}
}

func TestLocalStorageListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := s.Write(ctx, "subs/b.yaml", []byte("b")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := s.Write(ctx, "subs/a.yaml", []byte("a")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	// Simulate a leftover from an interrupted atomic write.
	if err := os.WriteFile(filepath.Join(dir, "subs", "c.yaml.tmp"), []byte("c"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	paths, err := s.List(ctx, "subs")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(paths) != 2 || paths[0] != "subs/a.yaml" || paths[1] != "subs/b.yaml" {
		t.Errorf("unexpected listing: %v", paths)
	}
}

func TestLocalStorageAtomicReplace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := s.Write(ctx, "doc.json", []byte("v1")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := s.Write(ctx, "doc.json", []byte("v2")); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	data, err := s.Read(ctx, "doc.json")
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("expected v2, got %s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file was left behind")
	}
}
