package board

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"boardd/internal/eventbus"
	"boardd/pkg/cerr"
)

// Store owns the in-memory board document and the derived owner registry.
// Every mutation validates first, updates tasks and registry statistics in
// the same critical section, persists, then publishes an event, so no caller
// ever observes a task owner without a matching registry entry.
//
// Operations run one at a time under the mutex. Persistence is write-behind:
// a failed save is logged and the in-memory mutation stands, trading at most
// one lost write for availability.
type Store struct {
	mu       sync.Mutex
	doc      *Document
	repo     Repository
	bus      *eventbus.Bus
	now      func() time.Time
	foldCase bool
}

type Option func(*Store)

// WithEventBus publishes a domain event after each successful mutation. A nil
// bus (the default) disables publishing, which the CLI and tests rely on.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithCaseInsensitiveMatching folds case when comparing owner names. Names
// keep their typed case in the document either way. The source material never
// settled this question, so it is a policy switch rather than a constant.
func WithCaseInsensitiveMatching(fold bool) Option {
	return func(s *Store) { s.foldCase = fold }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New loads the persisted document (creating an empty one when none exists),
// migrates it to the current schema and returns a ready Store. A failed
// post-migration save is logged, not fatal: the next mutation retries it.
func New(ctx context.Context, repo Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	migrated := Migrate(doc)
	s.doc = migrated
	if migrated != doc {
		if err := repo.Save(ctx, migrated); err != nil {
			slog.ErrorContext(ctx, "failed to persist migrated board document", "error", err)
		}
	}
	return s, nil
}

// Reload replaces the in-memory document with the persisted one. The document
// watcher calls this when the file changes on disk; reloading after our own
// write is harmless because the content is identical.
func (s *Store) Reload(ctx context.Context) error {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = Migrate(doc)
	s.mu.Unlock()
	return nil
}

// --- registry mutations ---

// RegisterOwner validates and adds a new name to the registry with zeroed
// statistics. Duplicate names (per matching policy) are rejected.
func (s *Store) RegisterOwner(ctx context.Context, rawName string) (string, error) {
	name, verr := ValidateOwnerName(rawName)
	if verr != nil {
		return "", verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registryKey(name); ok {
		return "", newOwnerError(KindDuplicateOwner, "owner %q is already registered", name)
	}
	s.register(name, s.now())
	s.persist(ctx)
	s.publish(eventbus.EventOwnerRegistered, name, nil)
	return name, nil
}

// RemoveOwner deletes a name from the registry and strips it from every task
// carrying it, returning the number of tasks modified. An unknown name is a
// no-op returning 0.
func (s *Store) RemoveOwner(ctx context.Context, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.registryKey(name)
	if !ok {
		return 0
	}

	now := s.now()
	updated := 0
	for _, t := range s.doc.Tasks {
		if idx := s.ownerIndex(t, key); idx >= 0 {
			t.Owners = append(t.Owners[:idx], t.Owners[idx+1:]...)
			t.UpdatedAt = now
			updated++
		}
	}

	reg := s.doc.OwnerRegistry
	for i, o := range reg.Owners {
		if o == key {
			reg.Owners = append(reg.Owners[:i], reg.Owners[i+1:]...)
			break
		}
	}
	delete(reg.Statistics, key)

	s.persist(ctx)
	s.publish(eventbus.EventOwnerRemoved, key, map[string]string{
		"tasks_updated": strconv.Itoa(updated),
	})
	return updated
}

// RecomputeStatistics rebuilds every registry entry's task count from a full
// task scan, the repair counterpart to the incremental bookkeeping the
// mutations do. lastUsedAt moves to the most recent updatedAt among tasks
// carrying the owner and is left untouched for owners no task references.
// Idempotent.
func (s *Store) RecomputeStatistics(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stats := range s.doc.OwnerRegistry.Statistics {
		stats.TaskCount = s.countTasksWith(name)
		if last, ok := s.latestUse(name); ok {
			stats.LastUsedAt = &last
		}
	}
	s.persist(ctx)
	s.publish(eventbus.EventStatisticsRecomputed, "", nil)
}

// --- task-owner mutations ---
//
// All of these are silent no-ops when taskID does not resolve: the UI may
// race with a concurrent task deletion and that must not surface as an error.

// AddOwnerToTask appends a validated owner to the task, auto-registering the
// name when the registry does not know it yet.
func (s *Store) AddOwnerToTask(ctx context.Context, taskID, rawName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(taskID)
	if t == nil {
		return nil
	}
	name, verr := ValidateOwnerName(rawName)
	if verr != nil {
		return verr
	}
	if len(t.Owners) >= MaxOwnersPerTask {
		return newOwnerError(KindOwnerLimitReached, "task already has %d owners", MaxOwnersPerTask)
	}
	if s.ownerIndex(t, name) >= 0 {
		return newOwnerError(KindDuplicateOwner, "owner %q is already assigned to this task", name)
	}

	now := s.now()
	t.Owners = append(t.Owners, name)
	t.UpdatedAt = now

	key := s.register(name, now)
	stats := s.doc.OwnerRegistry.Statistics[key]
	stats.TaskCount++
	used := now
	stats.LastUsedAt = &used

	s.persist(ctx)
	s.publish(eventbus.EventOwnerAssigned, taskID, map[string]string{"owner": key})
	return nil
}

// RemoveOwnerFromTask removes one owner from the task. Neither a missing task
// nor an unassigned name is an error. The registry entry survives at zero
// count; only RemoveOwner deletes it.
func (s *Store) RemoveOwnerFromTask(ctx context.Context, taskID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(taskID)
	if t == nil {
		return
	}
	idx := s.ownerIndex(t, name)
	if idx < 0 {
		return
	}

	removed := t.Owners[idx]
	t.Owners = append(t.Owners[:idx], t.Owners[idx+1:]...)
	t.UpdatedAt = s.now()

	if key, ok := s.registryKey(removed); ok {
		stats := s.doc.OwnerRegistry.Statistics[key]
		if stats.TaskCount > 0 {
			stats.TaskCount--
		}
		// Refresh lastUsedAt only while other tasks still reference the
		// owner; otherwise keep the remembered history.
		if last, ok := s.latestUse(key); ok {
			stats.LastUsedAt = &last
		}
	}

	s.persist(ctx)
	s.publish(eventbus.EventOwnerUnassigned, taskID, map[string]string{"owner": removed})
}

// TransferOwnership replaces the task's whole owner list with the single
// validated name. Transferring to a current owner is idempotent, not an
// error.
func (s *Store) TransferOwnership(ctx context.Context, taskID, rawNewOwner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(taskID)
	if t == nil {
		return nil
	}
	name, verr := ValidateOwnerName(rawNewOwner)
	if verr != nil {
		return verr
	}

	now := s.now()
	previous := t.Owners
	t.Owners = []string{name}
	t.UpdatedAt = now

	key := s.register(name, now)
	for _, old := range previous {
		if oldKey, ok := s.registryKey(old); ok {
			if stats := s.doc.OwnerRegistry.Statistics[oldKey]; stats.TaskCount > 0 {
				stats.TaskCount--
			}
		}
	}
	stats := s.doc.OwnerRegistry.Statistics[key]
	stats.TaskCount++
	used := now
	stats.LastUsedAt = &used

	s.persist(ctx)
	s.publish(eventbus.EventOwnershipTransferred, taskID, map[string]string{
		"owner":    key,
		"previous": strings.Join(previous, ","),
	})
	return nil
}

// ClearTaskOwners empties the task's owner list and decrements the count of
// every owner that was on it.
func (s *Store) ClearTaskOwners(ctx context.Context, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(taskID)
	if t == nil {
		return
	}

	previous := t.Owners
	t.Owners = []string{}
	t.UpdatedAt = s.now()

	for _, old := range previous {
		if key, ok := s.registryKey(old); ok {
			if stats := s.doc.OwnerRegistry.Statistics[key]; stats.TaskCount > 0 {
				stats.TaskCount--
			}
		}
	}

	s.persist(ctx)
	s.publish(eventbus.EventOwnerUnassigned, taskID, map[string]string{
		"owners": strings.Join(previous, ","),
	})
}

// BulkAssignOwner adds one owner across a batch of tasks with per-task
// outcomes. A task fails when it does not exist or is at the owner cap
// without already carrying the name; a task already carrying the name counts
// as an untouched success. An invalid name fails the whole batch with no
// state change and is reported through the returned error.
func (s *Store) BulkAssignOwner(ctx context.Context, taskIDs []string, rawOwnerName string) (*BulkAssignResult, error) {
	name, verr := ValidateOwnerName(rawOwnerName)
	if verr != nil {
		return &BulkAssignResult{
			TasksFailed:   len(taskIDs),
			FailedTaskIDs: append([]string{}, taskIDs...),
		}, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := s.register(name, now)

	res := &BulkAssignResult{FailedTaskIDs: []string{}}
	assigned := false
	for _, id := range taskIDs {
		t := s.findTask(id)
		switch {
		case t == nil:
			res.TasksFailed++
			res.FailedTaskIDs = append(res.FailedTaskIDs, id)
		case s.ownerIndex(t, key) >= 0:
			// Already assigned: idempotent success.
			res.TasksUpdated++
		case len(t.Owners) >= MaxOwnersPerTask:
			res.TasksFailed++
			res.FailedTaskIDs = append(res.FailedTaskIDs, id)
		default:
			t.Owners = append(t.Owners, name)
			t.UpdatedAt = now
			res.TasksUpdated++
			assigned = true
		}
	}

	// One statistics pass after the batch instead of one per task.
	stats := s.doc.OwnerRegistry.Statistics[key]
	stats.TaskCount = s.countTasksWith(key)
	if assigned {
		used := now
		stats.LastUsedAt = &used
	}

	s.persist(ctx)
	s.publish(eventbus.EventOwnersBulkAssigned, key, map[string]string{
		"tasks_updated": strconv.Itoa(res.TasksUpdated),
		"tasks_failed":  strconv.Itoa(res.TasksFailed),
	})
	return res, nil
}

// --- task lifecycle ---

// CreateTask adds a new unowned task to the board.
func (s *Store) CreateTask(ctx context.Context, title, status string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "task title is required", nil)
	}
	if status == "" {
		status = "todo"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &Task{
		ID:        ulid.Make().String(),
		Title:     title,
		Status:    status,
		Owners:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.doc.Tasks = append(s.doc.Tasks, t)

	s.persist(ctx)
	s.publish(eventbus.EventTaskCreated, t.ID, map[string]string{"title": t.Title})
	return copyTask(t), nil
}

// DeleteTask removes a task and decrements statistics for each of its owners.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.doc.Tasks {
		if t.ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}

	removed := s.doc.Tasks[idx]
	s.doc.Tasks = append(s.doc.Tasks[:idx], s.doc.Tasks[idx+1:]...)
	for _, old := range removed.Owners {
		if key, ok := s.registryKey(old); ok {
			if stats := s.doc.OwnerRegistry.Statistics[key]; stats.TaskCount > 0 {
				stats.TaskCount--
			}
		}
	}

	s.persist(ctx)
	s.publish(eventbus.EventTaskDeleted, taskID, nil)
	return nil
}

// --- queries ---

// GetTask returns a copy of the task, or nil when it does not exist.
func (s *Store) GetTask(taskID string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTask(s.findTask(taskID))
}

// ListTasks returns copies of all tasks in board order.
func (s *Store) ListTasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTasks(s.doc.Tasks)
}

// TasksByOwner returns all tasks carrying the owner, in board order.
func (s *Store) TasksByOwner(name string) []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Task
	for _, t := range s.doc.Tasks {
		if s.ownerIndex(t, name) >= 0 {
			out = append(out, copyTask(t))
		}
	}
	return out
}

// UnownedTasks returns all tasks with an empty owner list, in board order.
func (s *Store) UnownedTasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Task
	for _, t := range s.doc.Tasks {
		if len(t.Owners) == 0 {
			out = append(out, copyTask(t))
		}
	}
	return out
}

// OwnerSuggestions matches partial case-insensitively as a substring against
// every registry name and returns at most MaxSuggestions candidates ordered
// by task count descending, name ascending. An empty partial matches
// everything.
func (s *Store) OwnerSuggestions(partial string) []OwnerSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(partial)
	var out []OwnerSuggestion
	for _, name := range s.doc.OwnerRegistry.Owners {
		if !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		out = append(out, OwnerSuggestion{
			Name:      name,
			TaskCount: s.doc.OwnerRegistry.Statistics[name].TaskCount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskCount != out[j].TaskCount {
			return out[i].TaskCount > out[j].TaskCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// OwnersWithStats lists every registry entry ordered by task count
// descending, with name ascending as the tie-break.
func (s *Store) OwnersWithStats() []OwnerWithStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OwnerWithStats, 0, len(s.doc.OwnerRegistry.Owners))
	for _, name := range s.doc.OwnerRegistry.Owners {
		stats := s.doc.OwnerRegistry.Statistics[name]
		out = append(out, OwnerWithStats{
			Name:       name,
			TaskCount:  stats.TaskCount,
			LastUsedAt: stats.LastUsedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskCount != out[j].TaskCount {
			return out[i].TaskCount > out[j].TaskCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// UniqueOwners returns all registry names sorted lexicographically.
func (s *Store) UniqueOwners() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]string{}, s.doc.OwnerRegistry.Owners...)
	sort.Strings(out)
	return out
}

// --- internals, caller holds s.mu ---

func (s *Store) findTask(id string) *Task {
	for _, t := range s.doc.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Store) namesEqual(a, b string) bool {
	if s.foldCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// ownerIndex returns the position of name in the task's owner list per the
// matching policy, or -1.
func (s *Store) ownerIndex(t *Task, name string) int {
	for i, o := range t.Owners {
		if s.namesEqual(o, name) {
			return i
		}
	}
	return -1
}

// registryKey resolves name to the canonical registry key per the matching
// policy.
func (s *Store) registryKey(name string) (string, bool) {
	if !s.foldCase {
		_, ok := s.doc.OwnerRegistry.Statistics[name]
		return name, ok
	}
	for _, o := range s.doc.OwnerRegistry.Owners {
		if strings.EqualFold(o, name) {
			return o, true
		}
	}
	return "", false
}

// register ensures name is a registry key, creating a zeroed statistics entry
// when it is new, and returns the canonical key.
func (s *Store) register(name string, now time.Time) string {
	if key, ok := s.registryKey(name); ok {
		return key
	}
	reg := s.doc.OwnerRegistry
	reg.Owners = append(reg.Owners, name)
	reg.Statistics[name] = &OwnerStats{CreatedAt: now}
	return name
}

func (s *Store) countTasksWith(name string) int {
	n := 0
	for _, t := range s.doc.Tasks {
		if s.ownerIndex(t, name) >= 0 {
			n++
		}
	}
	return n
}

// latestUse returns the most recent updatedAt among tasks carrying the owner;
// ok is false when no task does.
func (s *Store) latestUse(name string) (time.Time, bool) {
	var last time.Time
	found := false
	for _, t := range s.doc.Tasks {
		if s.ownerIndex(t, name) >= 0 && t.UpdatedAt.After(last) {
			last = t.UpdatedAt
			found = true
		}
	}
	return last, found
}

// persist saves the document after a mutation. On failure the in-memory
// state stays authoritative: losing the newest write beats rejecting a
// mutation the caller already saw succeed.
func (s *Store) persist(ctx context.Context) {
	if err := s.repo.Save(ctx, s.doc); err != nil {
		slog.ErrorContext(ctx, "failed to persist board document", "error", err)
	}
}

func (s *Store) publish(eventType eventbus.EventType, resourceID string, metadata map[string]string) {
	if s.bus == nil {
		return
	}
	s.bus.PublishNew(eventType, resourceID, metadata)
}

func copyTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Owners = append([]string{}, t.Owners...)
	return &c
}

func copyTasks(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = copyTask(t)
	}
	return out
}
