package board

// Migrate brings a loaded document to the current schema version. Documents
// already at SchemaVersion with an intact registry are returned as-is;
// anything older (version "1" or absent, no ownerRegistry) gets its tasks
// normalized and the registry rebuilt from a full task scan. The version
// string alone is not trusted: the file is hand-editable and reloaded on
// external change, so a current-version document with a missing or mangled
// registry gets the same rebuild. The function does not mutate its input, so
// calling it unconditionally at load time is safe, and Migrate(Migrate(doc))
// equals Migrate(doc).
func Migrate(doc *Document) *Document {
	if doc == nil {
		return &Document{
			Version:       SchemaVersion,
			Tasks:         []*Task{},
			OwnerRegistry: NewOwnerRegistry(),
		}
	}
	if doc.Version == SchemaVersion && registryIntact(doc.OwnerRegistry) {
		return doc
	}

	migrated := &Document{
		Version: SchemaVersion,
		Tasks:   make([]*Task, len(doc.Tasks)),
	}
	for i, t := range doc.Tasks {
		nt := *t
		if nt.Owners == nil {
			// Promote the legacy singular field.
			if nt.Owner != "" {
				nt.Owners = []string{nt.Owner}
			} else {
				nt.Owners = []string{}
			}
		}
		nt.Owner = ""
		migrated.Tasks[i] = &nt
	}
	migrated.OwnerRegistry = buildRegistry(migrated.Tasks)
	return migrated
}

// registryIntact reports whether the registry upholds its invariant: a
// non-nil statistics map whose key set is exactly the owners list. JSON
// decoding leaves the map nil when the field is absent, and hand edits can
// drop entries.
func registryIntact(reg *OwnerRegistry) bool {
	if reg == nil || reg.Statistics == nil || len(reg.Statistics) != len(reg.Owners) {
		return false
	}
	for _, name := range reg.Owners {
		if reg.Statistics[name] == nil {
			return false
		}
	}
	return true
}

// buildRegistry derives a fresh registry from the task collection. createdAt
// is first-seen in task order; lastUsedAt is the most recent updatedAt among
// tasks carrying the owner.
func buildRegistry(tasks []*Task) *OwnerRegistry {
	reg := NewOwnerRegistry()
	for _, t := range tasks {
		for _, name := range t.Owners {
			stats, ok := reg.Statistics[name]
			if !ok {
				stats = &OwnerStats{CreatedAt: t.CreatedAt}
				reg.Statistics[name] = stats
				reg.Owners = append(reg.Owners, name)
			}
			stats.TaskCount++
			if stats.LastUsedAt == nil || t.UpdatedAt.After(*stats.LastUsedAt) {
				used := t.UpdatedAt
				stats.LastUsedAt = &used
			}
		}
	}
	return reg
}
