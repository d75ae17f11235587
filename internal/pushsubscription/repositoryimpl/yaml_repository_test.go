package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"boardd/internal/pushsubscription"
	"boardd/pkg/cerr"
	"boardd/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	return NewYAMLRepository(local)
}

func TestYAMLRepository(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	sub := &pushsubscription.Subscription{
		ID:        "01SUB",
		Endpoint:  "https://push.example.com/abc",
		P256dhKey: "p256dh",
		AuthKey:   "auth",
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}
	if err := repo.Create(ctx, sub); !cerr.IsCode(err, cerr.AlreadyExists) {
		t.Errorf("expected AlreadyExists on duplicate create, got %v", err)
	}

	got, err := repo.Get(ctx, "01SUB")
	if err != nil {
		t.Fatalf("failed to get subscription: %v", err)
	}
	if got.Endpoint != sub.Endpoint || got.P256dhKey != sub.P256dhKey {
		t.Errorf("subscription did not survive the round trip: %+v", got)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list subscriptions: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 subscription, got %d", len(all))
	}

	found, err := repo.FindByEndpoint(ctx, "https://push.example.com/abc")
	if err != nil {
		t.Fatalf("failed to find by endpoint: %v", err)
	}
	if found.ID != "01SUB" {
		t.Errorf("expected 01SUB, got %s", found.ID)
	}
	if _, err := repo.FindByEndpoint(ctx, "https://push.example.com/other"); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("expected NotFound for unknown endpoint, got %v", err)
	}

	if err := repo.DeleteByEndpoint(ctx, "https://push.example.com/abc"); err != nil {
		t.Fatalf("failed to delete by endpoint: %v", err)
	}
	all, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list subscriptions: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(all))
	}
}
