package repositoryimpl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"boardd/internal/board"
	"boardd/pkg/cerr"
	"boardd/pkg/storage"
)

func newRepo(t *testing.T) (*JSONRepository, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	return NewJSONRepository(local), dir
}

func TestLoadMissingDocument(t *testing.T) {
	repo, _ := newRepo(t)

	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil document for a fresh board, got %v", doc)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	doc := &board.Document{
		Version: board.SchemaVersion,
		Tasks: []*board.Task{
			{ID: "t1", Title: "first", Status: "todo", Owners: []string{"Alice"}, CreatedAt: now, UpdatedAt: now},
		},
		OwnerRegistry: &board.OwnerRegistry{
			Owners: []string{"Alice"},
			Statistics: map[string]*board.OwnerStats{
				"Alice": {TaskCount: 1, LastUsedAt: &now, CreatedAt: now},
			},
		},
	}
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Version != board.SchemaVersion {
		t.Errorf("expected version %s, got %s", board.SchemaVersion, loaded.Version)
	}
	if len(loaded.Tasks) != 1 || loaded.Tasks[0].Owners[0] != "Alice" {
		t.Errorf("task did not survive the round trip: %+v", loaded.Tasks)
	}
	stats := loaded.OwnerRegistry.Statistics["Alice"]
	if stats == nil || stats.TaskCount != 1 || stats.LastUsedAt == nil {
		t.Errorf("statistics did not survive the round trip: %+v", stats)
	}
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	repo, dir := newRepo(t)

	if err := repo.Save(context.Background(), &board.Document{Version: board.SchemaVersion, Tasks: []*board.Task{}}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DocumentPath))
	if err != nil {
		t.Fatalf("failed to read document file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "  \"version\"") {
		t.Error("expected indented JSON, the document should stay hand-editable")
	}
	if !strings.HasSuffix(content, "\n") {
		t.Error("expected a trailing newline")
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	repo, dir := newRepo(t)

	path := filepath.Join(dir, DocumentPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create board dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	_, err := repo.Load(context.Background())
	if err == nil {
		t.Fatal("expected an error for a corrupt document")
	}
	if !cerr.IsCode(err, cerr.DataLoss) {
		t.Errorf("expected DataLoss, got %v", err)
	}
}
