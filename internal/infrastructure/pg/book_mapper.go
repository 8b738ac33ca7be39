package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ormcore/internal/domain"
	"ormcore/internal/orm"
)

type BookMapper struct {
	db       *DB
	registry *orm.EntityRegistry
}

func NewBookMapper(db *DB, registry *orm.EntityRegistry) *BookMapper {
	return &BookMapper{db: db, registry: registry}
}

const selectBooks = `SELECT id::text, author_id, title, status, tags, published_at FROM books`

// tags column is NOT NULL; a nil slice would be sent as NULL.
func tagsArg(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func (m *BookMapper) Add(ctx context.Context, e orm.Entity) error {
	b, ok := e.(*domain.Book)
	if !ok {
		return unexpected(e)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	const ins = `
        INSERT INTO books(id, author_id, title, status, tags, published_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	log := sqlLog("book", "Add", ins, zap.String("id", b.ID), zap.Int64("author_id", b.AuthorID))
	_, err := m.db.exec(ctx, log, ins, b.ID, b.AuthorID, b.Title, string(b.Status), tagsArg(b.Tags), b.PublishedAt)
	return err
}

func (m *BookMapper) Update(ctx context.Context, e orm.Entity) error {
	b, ok := e.(*domain.Book)
	if !ok {
		return unexpected(e)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	const up = `
        UPDATE books
        SET author_id=$2, title=$3, status=$4, tags=$5, published_at=$6
        WHERE id=$1`
	log := sqlLog("book", "Update", up, zap.String("id", b.ID))
	n, err := m.db.exec(ctx, log, up, b.ID, b.AuthorID, b.Title, string(b.Status), tagsArg(b.Tags), b.PublishedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("book %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *BookMapper) Delete(ctx context.Context, e orm.Entity) error {
	b, ok := e.(*domain.Book)
	if !ok {
		return unexpected(e)
	}
	const del = `DELETE FROM books WHERE id=$1`
	n, err := m.db.exec(ctx, sqlLog("book", "Delete", del, zap.String("id", b.ID)), del, b.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("book %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *BookMapper) Find(ctx context.Context, id string) (*domain.Book, error) {
	if b, ok := orm.Lookup[domain.Book](m.registry, id); ok {
		return b, nil
	}
	const q = selectBooks + ` WHERE id=$1`
	log := sqlLog("book", "Find", q, zap.String("id", id))
	log.Info("sql.query_start")
	b, err := m.scan(m.db.q(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return nil, domain.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success", zap.String("status", string(b.Status)))
	return orm.Adopt(m.registry, b), nil
}

func (m *BookMapper) ListByAuthor(ctx context.Context, authorID int64) ([]*domain.Book, error) {
	const q = selectBooks + ` WHERE author_id=$1 ORDER BY title, id`
	log := sqlLog("book", "ListByAuthor", q, zap.Int64("author_id", authorID))
	log.Info("sql.query_start")
	rows, err := m.db.q(ctx).Query(ctx, q, authorID)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var loaded []*domain.Book
	for rows.Next() {
		b, err := m.scan(rows)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, b)
	}
	if err := rows.Err(); err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success", zap.Int("rows", len(loaded)))
	out := make([]*domain.Book, len(loaded))
	for i, b := range loaded {
		out[i] = orm.Adopt(m.registry, b)
	}
	return out, nil
}

func (m *BookMapper) scan(row pgx.Row) (*domain.Book, error) {
	var (
		b      domain.Book
		status string
	)
	if err := row.Scan(&b.ID, &b.AuthorID, &b.Title, &status, &b.Tags, &b.PublishedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookStatus(status)
	if b.PublishedAt != nil {
		at := b.PublishedAt.UTC()
		b.PublishedAt = &at
	}
	if a, ok := orm.Lookup[domain.Author](m.registry, b.AuthorID); ok {
		b.Author = a
	}
	return &b, nil
}
