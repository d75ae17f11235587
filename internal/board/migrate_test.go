package board

import (
	"testing"
	"time"
)

func TestMigrateNilDocument(t *testing.T) {
	doc := Migrate(nil)
	if doc.Version != SchemaVersion {
		t.Errorf("expected version %s, got %s", SchemaVersion, doc.Version)
	}
	if doc.Tasks == nil || len(doc.Tasks) != 0 {
		t.Errorf("expected empty task list, got %v", doc.Tasks)
	}
	if doc.OwnerRegistry == nil || doc.OwnerRegistry.Statistics == nil {
		t.Error("expected an initialized owner registry")
	}
}

func TestMigratePromotesLegacyOwner(t *testing.T) {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	legacy := &Document{
		Version: "1",
		Tasks: []*Task{
			{ID: "t1", Title: "first", Owner: "alice", CreatedAt: created, UpdatedAt: updated},
			{ID: "t2", Title: "second", CreatedAt: created, UpdatedAt: created},
		},
	}

	doc := Migrate(legacy)

	if doc.Version != SchemaVersion {
		t.Fatalf("expected version %s, got %s", SchemaVersion, doc.Version)
	}
	t1 := doc.Tasks[0]
	if len(t1.Owners) != 1 || t1.Owners[0] != "alice" {
		t.Errorf("expected legacy owner promoted to owners list, got %v", t1.Owners)
	}
	if t1.Owner != "" {
		t.Errorf("expected legacy owner field cleared, got %q", t1.Owner)
	}
	t2 := doc.Tasks[1]
	if t2.Owners == nil || len(t2.Owners) != 0 {
		t.Errorf("expected empty owners list, got %v", t2.Owners)
	}

	stats, ok := doc.OwnerRegistry.Statistics["alice"]
	if !ok {
		t.Fatal("expected registry entry for alice")
	}
	if stats.TaskCount != 1 {
		t.Errorf("expected task count 1, got %d", stats.TaskCount)
	}
	if stats.CreatedAt != created {
		t.Errorf("expected createdAt %v, got %v", created, stats.CreatedAt)
	}
	if stats.LastUsedAt == nil || !stats.LastUsedAt.Equal(updated) {
		t.Errorf("expected lastUsedAt %v, got %v", updated, stats.LastUsedAt)
	}

	// The input document must not change.
	if legacy.Version != "1" || legacy.Tasks[0].Owner != "alice" {
		t.Error("Migrate mutated its input")
	}
}

func TestMigrateRegistryRebuild(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	doc := Migrate(&Document{
		Version: "1",
		Tasks: []*Task{
			{ID: "t1", Owners: []string{"alice", "bob"}, CreatedAt: early, UpdatedAt: early},
			{ID: "t2", Owners: []string{"alice"}, CreatedAt: late, UpdatedAt: late},
		},
	})

	reg := doc.OwnerRegistry
	if len(reg.Owners) != 2 {
		t.Fatalf("expected 2 owners, got %v", reg.Owners)
	}
	if reg.Statistics["alice"].TaskCount != 2 {
		t.Errorf("expected alice count 2, got %d", reg.Statistics["alice"].TaskCount)
	}
	if reg.Statistics["bob"].TaskCount != 1 {
		t.Errorf("expected bob count 1, got %d", reg.Statistics["bob"].TaskCount)
	}
	if !reg.Statistics["alice"].LastUsedAt.Equal(late) {
		t.Errorf("expected alice lastUsedAt %v, got %v", late, reg.Statistics["alice"].LastUsedAt)
	}
	// createdAt is first-seen in task order.
	if !reg.Statistics["alice"].CreatedAt.Equal(early) {
		t.Errorf("expected alice createdAt %v, got %v", early, reg.Statistics["alice"].CreatedAt)
	}
}

func TestMigrateRepairsCurrentVersionDocument(t *testing.T) {
	// The document is hand-editable, so the version string alone must not be
	// trusted. All of these claim the current version with a broken registry.
	docs := map[string]*Document{
		"missing registry": {
			Version: SchemaVersion,
			Tasks:   []*Task{{ID: "t1", Owners: []string{"alice"}}},
		},
		"nil statistics map": {
			Version: SchemaVersion,
			Tasks:   []*Task{{ID: "t1", Owners: []string{"alice"}}},
			OwnerRegistry: &OwnerRegistry{
				Owners: []string{"alice"},
			},
		},
		"statistics entry dropped": {
			Version: SchemaVersion,
			Tasks:   []*Task{{ID: "t1", Owners: []string{"alice"}}},
			OwnerRegistry: &OwnerRegistry{
				Owners:     []string{"alice", "bob"},
				Statistics: map[string]*OwnerStats{"alice": {TaskCount: 1}},
			},
		},
		"nil statistics value": {
			Version: SchemaVersion,
			Tasks:   []*Task{{ID: "t1", Owners: []string{"alice"}}},
			OwnerRegistry: &OwnerRegistry{
				Owners:     []string{"alice"},
				Statistics: map[string]*OwnerStats{"alice": nil},
			},
		},
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			migrated := Migrate(doc)
			if migrated == doc {
				t.Fatal("expected a broken registry to trigger a rebuild")
			}
			reg := migrated.OwnerRegistry
			if reg == nil || reg.Statistics == nil {
				t.Fatal("expected an initialized registry after repair")
			}
			stats := reg.Statistics["alice"]
			if stats == nil || stats.TaskCount != 1 {
				t.Errorf("expected alice rebuilt with task count 1, got %+v", stats)
			}
			if len(reg.Owners) != len(reg.Statistics) {
				t.Errorf("registry key sets diverge: owners %v, statistics %v", reg.Owners, reg.Statistics)
			}
		})
	}
}

func TestMigrateIdempotent(t *testing.T) {
	once := Migrate(&Document{
		Version: "1",
		Tasks:   []*Task{{ID: "t1", Owner: "alice"}},
	})
	twice := Migrate(once)
	if twice != once {
		t.Error("expected a current-version document to be returned as-is")
	}
}
