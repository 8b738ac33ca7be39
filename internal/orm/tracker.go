package orm

// ChangeTracker detects mutations by comparing an entity against the snapshot
// taken when it was last registered. It never follows references into other
// entities; their own dirtiness is checked when the sweep reaches them.
type ChangeTracker struct {
	registry *EntityRegistry
}

func NewChangeTracker(registry *EntityRegistry) *ChangeTracker {
	return &ChangeTracker{registry: registry}
}

// HasChanged reports whether e differs from its snapshot. Entities without a
// snapshot are reported unchanged.
func (t *ChangeTracker) HasChanged(e Entity) bool {
	snap, ok := t.registry.Snapshot(e)
	if !ok {
		return false
	}
	return t.registry.mapping.changed(e, snap)
}
