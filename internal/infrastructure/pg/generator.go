package pg

import (
	"context"

	"ormcore/internal/orm"
)

// NewSequenceGenerator draws the identifier from seq before the row is written.
func NewSequenceGenerator(db *DB, seq string) *orm.PreInsertGenerator {
	return &orm.PreInsertGenerator{
		Next: func(ctx context.Context, _ orm.Entity) (any, error) {
			var id int64
			if err := db.q(ctx).QueryRow(ctx, `SELECT nextval($1::text::regclass)`, seq).Scan(&id); err != nil {
				return nil, err
			}
			return id, nil
		},
		Empty: int64(0),
	}
}

// NewSerialGenerator reads back the value a serial column received on the
// last INSERT in this session.
func NewSerialGenerator(db *DB, table, column string) *orm.PostInsertGenerator {
	return &orm.PostInsertGenerator{
		ReadBack: func(ctx context.Context, _ orm.Entity) (any, error) {
			var id int64
			const q = `SELECT currval(pg_get_serial_sequence($1, $2)::regclass)`
			if err := db.q(ctx).QueryRow(ctx, q, table, column).Scan(&id); err != nil {
				return nil, err
			}
			return id, nil
		},
		Empty: int64(0),
	}
}
