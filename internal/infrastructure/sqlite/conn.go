package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"ormcore/internal/orm"
)

type txKey struct{}

type txState struct {
	tx    *sql.Tx
	depth int
}

func txFromCtx(ctx context.Context) *txState {
	if v := ctx.Value(txKey{}); v != nil {
		if st, ok := v.(*txState); ok {
			return st
		}
	}
	return nil
}

// Conn implements orm.Connection. A BeginTx under an open transaction creates
// a savepoint instead of a second transaction.
type Conn struct{ db *DB }

func NewConn(db *DB) *Conn { return &Conn{db: db} }

func (c *Conn) BeginTx(ctx context.Context) (context.Context, error) {
	if outer := txFromCtx(ctx); outer != nil {
		st := &txState{tx: outer.tx, depth: outer.depth + 1}
		if _, err := st.tx.ExecContext(ctx, "SAVEPOINT "+savepoint(st.depth)); err != nil {
			return nil, fmt.Errorf("savepoint: %w", err)
		}
		return context.WithValue(ctx, txKey{}, st), nil
	}
	tx, err := c.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, &txState{tx: tx}), nil
}

func (c *Conn) Commit(ctx context.Context) error {
	st := txFromCtx(ctx)
	if st == nil {
		return orm.ErrNoTransaction
	}
	if st.depth > 0 {
		_, err := st.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint(st.depth))
		return err
	}
	return st.tx.Commit()
}

func (c *Conn) Rollback(ctx context.Context) error {
	st := txFromCtx(ctx)
	if st == nil {
		return orm.ErrNoTransaction
	}
	if st.depth > 0 {
		name := savepoint(st.depth)
		if _, err := st.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return err
		}
		_, err := st.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
		return err
	}
	return st.tx.Rollback()
}

func savepoint(depth int) string { return fmt.Sprintf("sp_%d", depth) }
