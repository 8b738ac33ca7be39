package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ormcore/internal/orm"
)

// Keyer is implemented by entities that can be cached.
type Keyer interface {
	CacheKey() string
}

type pendingOp struct {
	entity orm.Entity
	evict  bool
}

// Mapper decorates a DataMapper so that every successful write is mirrored
// into a Store, but only once the transaction has committed. Keys and values
// are computed at flush time, after post-insert identifiers are assigned.
type Mapper struct {
	orm.DataMapper
	store   Store
	log     *zap.Logger
	pending []pendingOp
}

func NewMapper(inner orm.DataMapper, store Store, log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{DataMapper: inner, store: store, log: log}
}

// Wrap adapts NewMapper to the decorator hook of the backend Bind functions.
func Wrap(store Store, log *zap.Logger) func(orm.DataMapper) orm.DataMapper {
	return func(inner orm.DataMapper) orm.DataMapper { return NewMapper(inner, store, log) }
}

func (m *Mapper) Add(ctx context.Context, e orm.Entity) error {
	if err := m.DataMapper.Add(ctx, e); err != nil {
		return err
	}
	m.buffer(e, false)
	return nil
}

func (m *Mapper) Update(ctx context.Context, e orm.Entity) error {
	if err := m.DataMapper.Update(ctx, e); err != nil {
		return err
	}
	m.buffer(e, false)
	return nil
}

func (m *Mapper) Delete(ctx context.Context, e orm.Entity) error {
	if err := m.DataMapper.Delete(ctx, e); err != nil {
		return err
	}
	m.buffer(e, true)
	return nil
}

func (m *Mapper) buffer(e orm.Entity, evict bool) {
	if _, ok := e.(Keyer); !ok {
		return
	}
	m.pending = append(m.pending, pendingOp{entity: e, evict: evict})
}

// PostCommit flushes buffered writes in order. Every write is attempted; the
// failures are joined.
func (m *Mapper) PostCommit(ctx context.Context) error {
	ops := m.pending
	m.pending = nil
	var errs []error
	for _, op := range ops {
		key := op.entity.(Keyer).CacheKey()
		if op.evict {
			if err := m.store.Delete(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("evict %s: %w", key, err))
			}
			continue
		}
		val, err := json.Marshal(op.entity)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", key, err))
			continue
		}
		if err := m.store.Set(ctx, key, val); err != nil {
			errs = append(errs, fmt.Errorf("put %s: %w", key, err))
		}
	}
	if pc, ok := m.DataMapper.(orm.PostCommitter); ok {
		if err := pc.PostCommit(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	m.log.Debug("cache.flush", zap.Int("ops", len(ops)), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// PostRollback discards writes buffered by the failed transaction.
func (m *Mapper) PostRollback(ctx context.Context) {
	m.pending = nil
	if pr, ok := m.DataMapper.(orm.PostRollbacker); ok {
		pr.PostRollback(ctx)
	}
}

// Load decodes the cached value under key into dst. ok is false on a miss.
func (m *Mapper) Load(ctx context.Context, key string, dst any) (bool, error) {
	val, ok, err := m.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
