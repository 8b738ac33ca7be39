package orm

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
)

type action struct {
	verb   Verb
	entity Entity
}

type checkpoint struct {
	actions    []*action
	insertions map[ObjectHashID]int
	updates    map[ObjectHashID]int
	deletions  map[ObjectHashID]int
}

// UnitOfWork batches inserts, updates and deletes and applies them in one
// transaction on Commit. It is not safe for concurrent use: create one per
// request or job and never call it while a Commit is running.
type UnitOfWork struct {
	conn       Connection
	registry   *EntityRegistry
	tracker    *ChangeTracker
	generators *IDGenerators
	mappers    map[reflect.Type]DataMapper
	mapperList []DataMapper
	log        *zap.Logger
	observer   Observer

	// actions keeps scheduling order; a nil slot is a cancelled action.
	actions    []*action
	insertions map[ObjectHashID]int
	updates    map[ObjectHashID]int
	deletions  map[ObjectHashID]int
}

type Option func(*UnitOfWork)

func WithLogger(l *zap.Logger) Option         { return func(u *UnitOfWork) { u.log = l } }
func WithObserver(o Observer) Option          { return func(u *UnitOfWork) { u.observer = o } }
func WithIDGenerators(g *IDGenerators) Option { return func(u *UnitOfWork) { u.generators = g } }

func NewUnitOfWork(conn Connection, mapping *Mapping, opts ...Option) *UnitOfWork {
	registry := NewEntityRegistry(mapping)
	u := &UnitOfWork{
		conn:     conn,
		registry: registry,
		tracker:  NewChangeTracker(registry),
		mappers:  map[reflect.Type]DataMapper{},
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	if u.observer == nil {
		u.observer = nopObserver{}
	}
	if u.generators == nil {
		u.generators = NewIDGenerators()
	}
	u.resetScheduling()
	return u
}

// RegisterDataMapper associates the runtime type t (e.g. TypeOf[*Book]()) with m.
func (u *UnitOfWork) RegisterDataMapper(t reflect.Type, m DataMapper) {
	u.mappers[t] = m
	for _, known := range u.mapperList {
		if reflect.TypeOf(known).Comparable() && known == m {
			return
		}
	}
	u.mapperList = append(u.mapperList, m)
}

func (u *UnitOfWork) RegisterIDGenerator(t reflect.Type, g IDGenerator) {
	u.generators.Register(t, g)
}

func (u *UnitOfWork) EntityRegistry() *EntityRegistry { return u.registry }
func (u *UnitOfWork) IDGenerators() *IDGenerators     { return u.generators }

// Pending returns the number of live scheduled actions.
func (u *UnitOfWork) Pending() int {
	n := 0
	for _, a := range u.actions {
		if a != nil {
			n++
		}
	}
	return n
}

func (u *UnitOfWork) ScheduleForInsertion(e Entity) error {
	if _, err := u.mapperFor(e); err != nil {
		return err
	}
	id := HashID(e)
	if indexed(id, u.insertions, u.updates) {
		return nil
	}
	u.insertions[id] = u.schedule(VerbInsert, e)
	u.registry.SetState(e, EntityStateQueued)
	return nil
}

// ScheduleForUpdate is a no-op for entities already queued for insertion or update.
func (u *UnitOfWork) ScheduleForUpdate(e Entity) error {
	if _, err := u.mapperFor(e); err != nil {
		return err
	}
	id := HashID(e)
	if indexed(id, u.insertions, u.updates) {
		return nil
	}
	u.updates[id] = u.schedule(VerbUpdate, e)
	return nil
}

func (u *UnitOfWork) ScheduleForDeletion(e Entity) error {
	if _, err := u.mapperFor(e); err != nil {
		return err
	}
	id := HashID(e)
	if indexed(id, u.deletions) {
		return nil
	}
	u.deletions[id] = u.schedule(VerbDelete, e)
	return nil
}

// Detach forgets e: it leaves the identity map and every action scheduled for
// it is cancelled. An entity the unit of work never saw stays Unmanaged.
func (u *UnitOfWork) Detach(e Entity) {
	id := HashID(e)
	managed := u.registry.State(e) != EntityStateUnmanaged
	u.registry.DeregisterEntity(e)
	for _, index := range []map[ObjectHashID]int{u.insertions, u.updates, u.deletions} {
		if i, ok := index[id]; ok {
			u.actions[i] = nil
			delete(index, id)
		}
	}
	if managed {
		u.registry.SetState(e, EntityStateDetached)
	}
}

// Commit schedules updates for dirty registered entities, then runs every
// scheduled action in order inside one transaction. On failure the store and
// the unit of work are left as they were before the call and the returned
// error wraps ErrCommitFailed.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if err := u.computeChanges(); err != nil {
		return err
	}
	pending := u.Pending()
	if pending == 0 {
		u.clear()
		return nil
	}
	log := u.log.With(zap.Int("actions", pending))
	log.Debug("uow.commit_start")
	start := time.Now()
	cp := u.checkpoint()
	u.registry.beginJournal()

	txCtx, err := u.conn.BeginTx(ctx)
	if err != nil {
		u.registry.rollbackJournal()
		u.observer.ObserveCommit(ResultRolledBack, pending, time.Since(start))
		log.Error("uow.commit_failed", zap.String("stage", "begin"), zap.Error(err))
		return fmt.Errorf("%w: begin transaction: %w", ErrCommitFailed, err)
	}
	if err := u.execute(txCtx); err != nil {
		if rbErr := u.conn.Rollback(txCtx); rbErr != nil {
			log.Warn("uow.rollback_failed", zap.Error(rbErr))
		}
		u.postRollback(ctx, cp)
		u.observer.ObserveCommit(ResultRolledBack, pending, time.Since(start))
		log.Error("uow.commit_failed", zap.String("stage", "execute"), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	if err := u.conn.Commit(txCtx); err != nil {
		if rbErr := u.conn.Rollback(txCtx); rbErr != nil {
			log.Warn("uow.rollback_failed", zap.Error(rbErr))
		}
		u.postRollback(ctx, cp)
		u.observer.ObserveCommit(ResultRolledBack, pending, time.Since(start))
		log.Error("uow.commit_failed", zap.String("stage", "commit"), zap.Error(err))
		return fmt.Errorf("%w: commit transaction: %w", ErrCommitFailed, err)
	}
	u.registry.commitJournal()
	u.postCommit(ctx)
	u.clear()
	elapsed := time.Since(start)
	u.observer.ObserveCommit(ResultCommitted, pending, elapsed)
	log.Info("uow.commit_success", zap.Duration("elapsed", elapsed))
	return nil
}

// Dispose drops all scheduled actions and the whole identity map.
func (u *UnitOfWork) Dispose() {
	u.resetScheduling()
	u.registry.Clear()
}

func (u *UnitOfWork) computeChanges() error {
	for _, e := range u.registry.Entities() {
		if indexed(HashID(e), u.insertions, u.updates, u.deletions) {
			continue
		}
		if !u.registry.IsRegistered(e) || !u.tracker.HasChanged(e) {
			continue
		}
		if err := u.ScheduleForUpdate(e); err != nil {
			return err
		}
	}
	return nil
}

func (u *UnitOfWork) execute(ctx context.Context) error {
	// actions may grow while executing; re-read the length every iteration.
	for i := 0; i < len(u.actions); i++ {
		a := u.actions[i]
		if a == nil {
			continue
		}
		var err error
		switch a.verb {
		case VerbInsert:
			err = u.insert(ctx, a.entity)
		case VerbUpdate:
			err = u.update(ctx, a.entity)
		case VerbDelete:
			err = u.delete(ctx, a.entity)
		default:
			err = fmt.Errorf("%w: %q at index %d", ErrInvalidAction, a.verb, i)
		}
		if err != nil {
			return err
		}
		u.observer.ObserveAction(a.verb, typeName(a.entity))
	}
	return nil
}

func (u *UnitOfWork) insert(ctx context.Context, e Entity) error {
	m, err := u.mapperFor(e)
	if err != nil {
		return err
	}
	u.registry.RunAggregateRootCallbacks(e)
	gen, ok := u.generators.Lookup(e)
	switch {
	case !ok:
		if err := m.Add(ctx, e); err != nil {
			return fmt.Errorf("insert %T: %w", e, err)
		}
	case gen.IsPostInsert():
		if err := m.Add(ctx, e); err != nil {
			return fmt.Errorf("insert %T: %w", e, err)
		}
		if err := u.assignID(ctx, gen, e); err != nil {
			return err
		}
	default:
		if err := u.assignID(ctx, gen, e); err != nil {
			return err
		}
		if err := m.Add(ctx, e); err != nil {
			return fmt.Errorf("insert %T: %w", e, err)
		}
	}
	// The snapshot must include the assigned identifier.
	u.registry.RegisterEntity(e)
	return nil
}

func (u *UnitOfWork) update(ctx context.Context, e Entity) error {
	m, err := u.mapperFor(e)
	if err != nil {
		return err
	}
	u.registry.RunAggregateRootCallbacks(e)
	if err := m.Update(ctx, e); err != nil {
		return fmt.Errorf("update %T: %w", e, err)
	}
	u.registry.RegisterEntity(e)
	return nil
}

func (u *UnitOfWork) delete(ctx context.Context, e Entity) error {
	m, err := u.mapperFor(e)
	if err != nil {
		return err
	}
	if err := m.Delete(ctx, e); err != nil {
		return fmt.Errorf("delete %T: %w", e, err)
	}
	// Detach needs the entity still indexed, so the state is set afterwards.
	u.Detach(e)
	u.registry.SetState(e, EntityStateDequeued)
	return nil
}

func (u *UnitOfWork) assignID(ctx context.Context, gen IDGenerator, e Entity) error {
	id, err := gen.Generate(ctx, e)
	if err != nil {
		return fmt.Errorf("generate identifier for %T: %w", e, err)
	}
	return u.registry.mapping.SetID(e, id)
}

// postRollback undoes the in-memory side effects of a failed commit.
// Identifier resets are best effort: every inserted entity is tried.
func (u *UnitOfWork) postRollback(ctx context.Context, cp checkpoint) {
	u.restore(cp)
	for _, i := range u.insertions {
		a := u.actions[i]
		if a == nil {
			continue
		}
		gen, ok := u.generators.Lookup(a.entity)
		if !ok {
			continue
		}
		if err := u.registry.mapping.SetID(a.entity, gen.EmptyValue(a.entity)); err != nil {
			u.log.Warn("uow.id_reset_failed", zap.String("entity", typeName(a.entity)), zap.Error(err))
		}
	}
	for _, m := range u.mapperList {
		if r, ok := m.(PostRollbacker); ok {
			r.PostRollback(ctx)
		}
	}
	u.registry.rollbackJournal()
}

func (u *UnitOfWork) postCommit(ctx context.Context) {
	for _, m := range u.mapperList {
		pc, ok := m.(PostCommitter)
		if !ok {
			continue
		}
		if err := pc.PostCommit(ctx); err != nil {
			u.log.Warn("uow.post_commit_failed", zap.String("mapper", fmt.Sprintf("%T", m)), zap.Error(err))
		}
	}
}

func (u *UnitOfWork) mapperFor(e Entity) (DataMapper, error) {
	m, ok := u.mappers[reflect.TypeOf(e)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownMapper, e)
	}
	return m, nil
}

func (u *UnitOfWork) schedule(verb Verb, e Entity) int {
	u.actions = append(u.actions, &action{verb: verb, entity: e})
	return len(u.actions) - 1
}

func (u *UnitOfWork) checkpoint() checkpoint {
	return checkpoint{
		actions:    slices.Clone(u.actions),
		insertions: maps.Clone(u.insertions),
		updates:    maps.Clone(u.updates),
		deletions:  maps.Clone(u.deletions),
	}
}

func (u *UnitOfWork) restore(cp checkpoint) {
	u.actions = cp.actions
	u.insertions = cp.insertions
	u.updates = cp.updates
	u.deletions = cp.deletions
}

func (u *UnitOfWork) clear() {
	u.resetScheduling()
	u.registry.ClearAggregateRoots()
}

func (u *UnitOfWork) resetScheduling() {
	u.actions = nil
	u.insertions = map[ObjectHashID]int{}
	u.updates = map[ObjectHashID]int{}
	u.deletions = map[ObjectHashID]int{}
}

func indexed(id ObjectHashID, indexes ...map[ObjectHashID]int) bool {
	for _, index := range indexes {
		if _, ok := index[id]; ok {
			return true
		}
	}
	return false
}
