package sqlite

import (
	"context"

	"ormcore/internal/orm"
)

// NewRowIDGenerator reads back the rowid of the last INSERT on the
// transaction's connection.
func NewRowIDGenerator(db *DB) *orm.PostInsertGenerator {
	return &orm.PostInsertGenerator{
		ReadBack: func(ctx context.Context, _ orm.Entity) (any, error) {
			var id int64
			if err := db.q(ctx).QueryRowContext(ctx, `SELECT last_insert_rowid()`).Scan(&id); err != nil {
				return nil, err
			}
			return id, nil
		},
		Empty: int64(0),
	}
}
