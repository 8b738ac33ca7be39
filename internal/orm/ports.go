package orm

import (
	"context"
	"time"
)

// DataMapper serializes one entity type to and from the store. The context
// passed to Add, Update and Delete carries the transaction opened by the
// Connection.
type DataMapper interface {
	Add(ctx context.Context, e Entity) error
	Update(ctx context.Context, e Entity) error
	Delete(ctx context.Context, e Entity) error
}

// PostCommitter is implemented by mappers that sync a cache once the write is durable.
type PostCommitter interface {
	PostCommit(ctx context.Context) error
}

// PostRollbacker is implemented by mappers holding per-commit state that must
// be dropped when the transaction is rolled back.
type PostRollbacker interface {
	PostRollback(ctx context.Context)
}

// Connection is the transaction primitive. BeginTx returns a context carrying
// the transaction; calling BeginTx again with that context opens a nested
// transaction.
type Connection interface {
	BeginTx(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Observer receives commit telemetry.
type Observer interface {
	ObserveAction(verb Verb, entityType string)
	ObserveCommit(result string, actions int, elapsed time.Duration)
}

const (
	ResultCommitted  = "committed"
	ResultRolledBack = "rolled_back"
)

type nopObserver struct{}

func (nopObserver) ObserveAction(Verb, string)               {}
func (nopObserver) ObserveCommit(string, int, time.Duration) {}
