package board

import "time"

const (
	// SchemaVersion is the current persisted document version. Documents with
	// an older (or absent) version are migrated on load, see migrate.go.
	SchemaVersion = "1.1"

	// MaxOwnersPerTask caps the owner list of a single task.
	MaxOwnersPerTask = 5

	// MaxOwnerNameLength is the owner-name length limit in runes, after
	// trimming.
	MaxOwnerNameLength = 30

	// MaxSuggestions caps the result of owner autocomplete queries.
	MaxSuggestions = 10
)

// Task is one card on the board. Owners is an ordered list of at most
// MaxOwnersPerTask unique names; Owner is the pre-1.1 singular field, kept
// only so legacy documents unmarshal and migrate.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Owners    []string  `json:"owners"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasOwner reports whether name is in the task's owner list, by exact match.
func (t *Task) HasOwner(name string) bool {
	for _, o := range t.Owners {
		if o == name {
			return true
		}
	}
	return false
}

// OwnerStats is the per-owner usage record. LastUsedAt is nil for an owner
// that has never been assigned to a task.
type OwnerStats struct {
	TaskCount  int        `json:"taskCount"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// OwnerRegistry is the canonical set of known owner names plus statistics.
// Owners preserves registration order; Statistics always has exactly the same
// key set.
type OwnerRegistry struct {
	Owners     []string               `json:"owners"`
	Statistics map[string]*OwnerStats `json:"statistics"`
}

// NewOwnerRegistry returns an empty registry with a non-nil statistics map.
func NewOwnerRegistry() *OwnerRegistry {
	return &OwnerRegistry{
		Statistics: make(map[string]*OwnerStats),
	}
}

// Document is the full persisted board state.
type Document struct {
	Version       string         `json:"version"`
	Tasks         []*Task        `json:"tasks"`
	OwnerRegistry *OwnerRegistry `json:"ownerRegistry,omitempty"`
}

// OwnerSuggestion is one autocomplete candidate.
type OwnerSuggestion struct {
	Name      string `json:"name"`
	TaskCount int    `json:"taskCount"`
}

// OwnerWithStats is one row of the owner management listing.
type OwnerWithStats struct {
	Name       string     `json:"name"`
	TaskCount  int        `json:"taskCount"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}

// BulkAssignResult aggregates the per-task outcomes of a bulk owner
// assignment. Partial failure is the normal success path: the operation never
// fails as a whole because some tasks were full or already deleted.
type BulkAssignResult struct {
	TasksUpdated  int      `json:"tasksUpdated"`
	TasksFailed   int      `json:"tasksFailed"`
	FailedTaskIDs []string `json:"failedTaskIds"`
}
