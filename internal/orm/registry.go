package orm

import (
	"reflect"
	"slices"
)

// AggregateRootCallback copies data from an aggregate root onto a dependent
// entity, typically the root's freshly assigned identifier.
type AggregateRootCallback func(child, root Entity)

type entry struct {
	entity   Entity
	snapshot Snapshot
	seq      uint64
	key      *idKey
}

// idKey is an entity's business identifier qualified by its type.
type idKey struct {
	t  reflect.Type
	id any
}

type stateEntry struct {
	entity Entity
	state  EntityState
}

type rootLink struct {
	root Entity
	fn   AggregateRootCallback
}

// pendingRoots holds the child too, so its address stays reserved while a
// callback waits for it. Records are replaced, never mutated.
type pendingRoots struct {
	child Entity
	links []rootLink
}

// journal records the prior value of everything the registry mutates while a
// commit is in flight. A nil value means the key was absent.
type journal struct {
	entities map[ObjectHashID]*entry
	states   map[ObjectHashID]*stateEntry
	roots    map[ObjectHashID]*pendingRoots
	seq      uint64
}

// EntityRegistry is the identity map and entity state machine of a unit of work.
// Every record keeps a reference to its instance, pending callbacks included,
// so an ObjectHashID cannot be reused by another allocation while it is known
// here.
type EntityRegistry struct {
	mapping  *Mapping
	entities map[ObjectHashID]*entry
	index    map[idKey]ObjectHashID
	states   map[ObjectHashID]stateEntry
	roots    map[ObjectHashID]*pendingRoots
	seq      uint64
	journal  *journal
}

func NewEntityRegistry(mapping *Mapping) *EntityRegistry {
	if mapping == nil {
		mapping = NewMapping()
	}
	r := &EntityRegistry{mapping: mapping}
	r.Clear()
	return r
}

func (r *EntityRegistry) Mapping() *Mapping { return r.mapping }

func (r *EntityRegistry) HashID(e Entity) ObjectHashID { return HashID(e) }

// RegisterEntity marks e as Registered and captures its snapshot. Calling it
// again for the same instance only refreshes the snapshot.
func (r *EntityRegistry) RegisterEntity(e Entity) {
	id := HashID(e)
	r.rememberEntry(id)
	r.rememberState(id)
	snap, _ := r.mapping.capture(e)
	next := &entry{entity: e, snapshot: snap}
	if cur, ok := r.entities[id]; ok {
		next.seq = cur.seq
		r.unindex(id, cur)
	} else {
		r.seq++
		next.seq = r.seq
	}
	if bid, ok := r.mapping.ID(e); ok && bid != nil && reflect.TypeOf(bid).Comparable() {
		next.key = &idKey{t: reflect.TypeOf(e), id: bid}
		r.index[*next.key] = id
	}
	r.entities[id] = next
	r.states[id] = stateEntry{entity: e, state: EntityStateRegistered}
}

// DeregisterEntity drops e from the identity map together with its snapshot.
// Its state is left for the caller to set.
func (r *EntityRegistry) DeregisterEntity(e Entity) {
	id := HashID(e)
	cur, ok := r.entities[id]
	if !ok {
		return
	}
	r.rememberEntry(id)
	r.unindex(id, cur)
	delete(r.entities, id)
}

func (r *EntityRegistry) unindex(id ObjectHashID, en *entry) {
	if en.key != nil && r.index[*en.key] == id {
		delete(r.index, *en.key)
	}
}

func (r *EntityRegistry) reindex() {
	r.index = make(map[idKey]ObjectHashID, len(r.entities))
	for id, en := range r.entities {
		if en.key != nil {
			r.index[*en.key] = id
		}
	}
}

func (r *EntityRegistry) IsRegistered(e Entity) bool {
	return r.State(e) == EntityStateRegistered
}

func (r *EntityRegistry) State(e Entity) EntityState {
	if s, ok := r.states[HashID(e)]; ok {
		return s.state
	}
	return EntityStateUnmanaged
}

// SetState overrides e's state. Setting EntityStateUnmanaged forgets the state.
func (r *EntityRegistry) SetState(e Entity, state EntityState) {
	id := HashID(e)
	r.rememberState(id)
	if state == EntityStateUnmanaged {
		delete(r.states, id)
		return
	}
	r.states[id] = stateEntry{entity: e, state: state}
}

// Snapshot returns the values captured when e was last registered. ok is
// false when there is no prior snapshot.
func (r *EntityRegistry) Snapshot(e Entity) (Snapshot, bool) {
	en, ok := r.entities[HashID(e)]
	if !ok || en.snapshot == nil {
		return nil, false
	}
	return en.snapshot, true
}

// Entities returns the identity map's instances in registration order. The
// slice is a copy and stays valid while the registry changes.
func (r *EntityRegistry) Entities() []Entity {
	entries := make([]*entry, 0, len(r.entities))
	for _, en := range r.entities {
		entries = append(entries, en)
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]Entity, len(entries))
	for i, en := range entries {
		out[i] = en.entity
	}
	return out
}

// Find looks up a registered instance of type t by business identifier, so a
// mapper loading rows reuses instances the unit of work already tracks.
// Identifiers are indexed as of the entity's last registration.
func (r *EntityRegistry) Find(t reflect.Type, id any) (Entity, bool) {
	if id == nil || !reflect.TypeOf(id).Comparable() {
		return nil, false
	}
	hid, ok := r.index[idKey{t: t, id: id}]
	if !ok {
		return nil, false
	}
	en, ok := r.entities[hid]
	if !ok {
		return nil, false
	}
	return en.entity, true
}

// Lookup returns the registered *T whose business identifier equals id.
func Lookup[T any](r *EntityRegistry, id any) (*T, bool) {
	e, ok := r.Find(TypeOf[*T](), id)
	if !ok {
		return nil, false
	}
	return e.(*T), true
}

// Adopt registers a freshly loaded e, unless an instance with the same
// identifier is already registered, in which case that instance is returned
// and e is discarded.
func Adopt[T any](r *EntityRegistry, e *T) *T {
	if id, ok := r.mapping.ID(e); ok {
		if cur, found := Lookup[T](r, id); found {
			return cur
		}
	}
	r.RegisterEntity(e)
	return e
}

// Clear drops every record, snapshot and pending callback.
func (r *EntityRegistry) Clear() {
	r.entities = map[ObjectHashID]*entry{}
	r.index = map[idKey]ObjectHashID{}
	r.states = map[ObjectHashID]stateEntry{}
	r.roots = map[ObjectHashID]*pendingRoots{}
	r.seq = 0
	r.journal = nil
}

func (r *EntityRegistry) RegisterAggregateRootCallback(child, root Entity, fn AggregateRootCallback) {
	id := HashID(child)
	r.rememberRoots(id)
	next := &pendingRoots{child: child}
	if cur, ok := r.roots[id]; ok {
		next.links = slices.Clone(cur.links)
	}
	next.links = append(next.links, rootLink{root: root, fn: fn})
	r.roots[id] = next
}

// RunAggregateRootCallbacks invokes e's pending callbacks once and discards them.
func (r *EntityRegistry) RunAggregateRootCallbacks(e Entity) {
	id := HashID(e)
	pending, ok := r.roots[id]
	if !ok {
		return
	}
	r.rememberRoots(id)
	delete(r.roots, id)
	for _, l := range pending.links {
		l.fn(e, l.root)
	}
}

// ClearAggregateRoots discards every pending callback without running it.
func (r *EntityRegistry) ClearAggregateRoots() {
	r.roots = map[ObjectHashID]*pendingRoots{}
}

func (r *EntityRegistry) beginJournal() {
	r.journal = &journal{
		entities: map[ObjectHashID]*entry{},
		states:   map[ObjectHashID]*stateEntry{},
		roots:    map[ObjectHashID]*pendingRoots{},
		seq:      r.seq,
	}
}

func (r *EntityRegistry) commitJournal() { r.journal = nil }

func (r *EntityRegistry) rollbackJournal() {
	j := r.journal
	if j == nil {
		return
	}
	r.journal = nil
	for id, en := range j.entities {
		if en == nil {
			delete(r.entities, id)
			continue
		}
		r.entities[id] = en
	}
	for id, st := range j.states {
		if st == nil {
			delete(r.states, id)
			continue
		}
		r.states[id] = *st
	}
	for id, pending := range j.roots {
		if pending == nil {
			delete(r.roots, id)
			continue
		}
		r.roots[id] = pending
	}
	r.seq = j.seq
	r.reindex()
}

func (r *EntityRegistry) rememberEntry(id ObjectHashID) {
	if r.journal == nil {
		return
	}
	if _, seen := r.journal.entities[id]; !seen {
		r.journal.entities[id] = r.entities[id]
	}
}

func (r *EntityRegistry) rememberState(id ObjectHashID) {
	if r.journal == nil {
		return
	}
	if _, seen := r.journal.states[id]; seen {
		return
	}
	if st, ok := r.states[id]; ok {
		r.journal.states[id] = &st
		return
	}
	r.journal.states[id] = nil
}

func (r *EntityRegistry) rememberRoots(id ObjectHashID) {
	if r.journal == nil {
		return
	}
	if _, seen := r.journal.roots[id]; !seen {
		r.journal.roots[id] = r.roots[id]
	}
}
