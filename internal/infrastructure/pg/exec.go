package pg

import (
	"context"
	"fmt"

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
	tag, err := d.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return 0, err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func unexpected(e orm.Entity) error {
	return fmt.Errorf("%w: %T", orm.ErrUnexpectedEntity, e)
}
