package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"ormcore/internal/orm"
)

type txKey struct{}

func txFromCtx(ctx context.Context) pgx.Tx {
	if v := ctx.Value(txKey{}); v != nil {
		if tx, ok := v.(pgx.Tx); ok {
			return tx
		}
	}
	return nil
}

// Conn implements orm.Connection on a pgx pool. Beginning under an open
// transaction starts a pseudo nested transaction backed by a savepoint.
type Conn struct{ db *DB }

func NewConn(db *DB) *Conn { return &Conn{db: db} }

func (c *Conn) BeginTx(ctx context.Context) (context.Context, error) {
	var (
		tx  pgx.Tx
		err error
	)
	if outer := txFromCtx(ctx); outer != nil {
		tx, err = outer.Begin(ctx)
	} else {
		tx, err = c.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	}
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, tx), nil
}

func (c *Conn) Commit(ctx context.Context) error {
	tx := txFromCtx(ctx)
	if tx == nil {
		return orm.ErrNoTransaction
	}
	return tx.Commit(ctx)
}

func (c *Conn) Rollback(ctx context.Context) error {
	tx := txFromCtx(ctx)
	if tx == nil {
		return orm.ErrNoTransaction
	}
	return tx.Rollback(ctx)
}
