package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ormcore/internal/infrastructure/logx"
	"ormcore/internal/orm"
)

func sqlLog(repo, operation, query string, fields ...zap.Field) *zap.Logger {
	return logx.L().With(append([]zap.Field{
		zap.String("repo", repo),
		zap.String("operation", operation),
		zap.String("sql", query),
	}, fields...)...)
}

// exec runs a write and returns the number of affected rows.
func (d *DB) exec(ctx context.Context, log *zap.Logger, query string, args ...any) (int64, error) {
	log.Info("sql.exec_start")
	res, err := d.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", n))
	return n, nil
}

func unexpected(e orm.Entity) error {
	return fmt.Errorf("%w: %T", orm.ErrUnexpectedEntity, e)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return &t, nil
}

type scanner interface {
	Scan(dest ...any) error
}
