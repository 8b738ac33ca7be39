package cache_test

import (
	"context"
	"errors"

	"ormcore/internal/orm"
)

var errStore = errors.New("store down")

type keyed struct {
	ID   int64
	Name string
}

func (k *keyed) CacheKey() string { return "keyed:" + k.Name }

type unkeyed struct{ ID int64 }

// innerMapper records calls and fails the verb named by failOn.
type innerMapper struct {
	calls         []string
	failOn        orm.Verb
	postCommits   int
	postRollbacks int
}

func (m *innerMapper) do(v orm.Verb) error {
	if v == m.failOn {
		return errors.New("inner failed")
	}
	m.calls = append(m.calls, string(v))
	return nil
}

func (m *innerMapper) Add(context.Context, orm.Entity) error    { return m.do(orm.VerbInsert) }
func (m *innerMapper) Update(context.Context, orm.Entity) error { return m.do(orm.VerbUpdate) }
func (m *innerMapper) Delete(context.Context, orm.Entity) error { return m.do(orm.VerbDelete) }

func (m *innerMapper) PostCommit(context.Context) error {
	m.postCommits++
	return nil
}

func (m *innerMapper) PostRollback(context.Context) { m.postRollbacks++ }

// failingStore fails every write.
type failingStore struct{ sets int }

func (s *failingStore) Set(context.Context, string, []byte) error {
	s.sets++
	return errStore
}
func (s *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errStore
}
func (s *failingStore) Delete(context.Context, string) error { return errStore }
