package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ormcore/internal/domain"
	"ormcore/internal/orm"
)

type ReviewMapper struct {
	db       *DB
	registry *orm.EntityRegistry
}

func NewReviewMapper(db *DB, registry *orm.EntityRegistry) *ReviewMapper {
	return &ReviewMapper{db: db, registry: registry}
}

func (m *ReviewMapper) Add(ctx context.Context, e orm.Entity) error {
	r, ok := e.(*domain.Review)
	if !ok {
		return unexpected(e)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	const ins = `INSERT INTO reviews(book_id, rating, body) VALUES (?, ?, ?)`
	log := sqlLog("review", "Add", ins, zap.String("book_id", r.BookID))
	_, err := m.db.exec(ctx, log, ins, r.BookID, r.Rating, r.Body)
	return err
}

func (m *ReviewMapper) Update(ctx context.Context, e orm.Entity) error {
	r, ok := e.(*domain.Review)
	if !ok {
		return unexpected(e)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	const up = `UPDATE reviews SET book_id=?, rating=?, body=? WHERE id=?`
	n, err := m.db.exec(ctx, sqlLog("review", "Update", up, zap.Int64("id", r.ID)), up, r.BookID, r.Rating, r.Body, r.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %d: %w", r.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *ReviewMapper) Delete(ctx context.Context, e orm.Entity) error {
	r, ok := e.(*domain.Review)
	if !ok {
		return unexpected(e)
	}
	const del = `DELETE FROM reviews WHERE id=?`
	n, err := m.db.exec(ctx, sqlLog("review", "Delete", del, zap.Int64("id", r.ID)), del, r.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %d: %w", r.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *ReviewMapper) Find(ctx context.Context, id int64) (*domain.Review, error) {
	if r, ok := orm.Lookup[domain.Review](m.registry, id); ok {
		return r, nil
	}
	const q = `SELECT id, book_id, rating, body FROM reviews WHERE id=?`
	log := sqlLog("review", "Find", q, zap.Int64("id", id))
	log.Info("sql.query_start")
	r, err := m.scan(m.db.q(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return nil, domain.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success")
	return orm.Adopt(m.registry, r), nil
}

func (m *ReviewMapper) ListByBook(ctx context.Context, bookID string) ([]*domain.Review, error) {
	const q = `SELECT id, book_id, rating, body FROM reviews WHERE book_id=? ORDER BY id`
	log := sqlLog("review", "ListByBook", q, zap.String("book_id", bookID))
	log.Info("sql.query_start")
	rows, err := m.db.q(ctx).QueryContext(ctx, q, bookID)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var loaded []*domain.Review
	for rows.Next() {
		r, err := m.scan(rows)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success", zap.Int("rows", len(loaded)))
	out := make([]*domain.Review, len(loaded))
	for i, r := range loaded {
		out[i] = orm.Adopt(m.registry, r)
	}
	return out, nil
}

func (m *ReviewMapper) scan(row scanner) (*domain.Review, error) {
	var r domain.Review
	if err := row.Scan(&r.ID, &r.BookID, &r.Rating, &r.Body); err != nil {
		return nil, err
	}
	if b, ok := orm.Lookup[domain.Book](m.registry, r.BookID); ok {
		r.Book = b
	}
	return &r, nil
}
