package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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

const bookColumns = `id, author_id, title, status, tags, published_at`

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (m *BookMapper) Add(ctx context.Context, e orm.Entity) error {
	b, ok := e.(*domain.Book)
	if !ok {
		return unexpected(e)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	tags, err := encodeTags(b.Tags)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO books(` + bookColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	log := sqlLog("book", "Add", ins, zap.String("id", b.ID), zap.Int64("author_id", b.AuthorID))
	_, err = m.db.exec(ctx, log, ins, b.ID, b.AuthorID, b.Title, string(b.Status), tags, formatTime(b.PublishedAt))
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
	tags, err := encodeTags(b.Tags)
	if err != nil {
		return err
	}
	const up = `
        UPDATE books
        SET author_id=?, title=?, status=?, tags=?, published_at=?
        WHERE id=?`
	log := sqlLog("book", "Update", up, zap.String("id", b.ID))
	n, err := m.db.exec(ctx, log, up, b.AuthorID, b.Title, string(b.Status), tags, formatTime(b.PublishedAt), b.ID)
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
	const del = `DELETE FROM books WHERE id=?`
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
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id=?`
	log := sqlLog("book", "Find", q, zap.String("id", id))
	log.Info("sql.query_start")
	b, err := m.scan(m.db.q(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
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
	const q = `SELECT ` + bookColumns + ` FROM books WHERE author_id=? ORDER BY title, id`
	log := sqlLog("book", "ListByAuthor", q, zap.Int64("author_id", authorID))
	log.Info("sql.query_start")
	rows, err := m.db.q(ctx).QueryContext(ctx, q, authorID)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()
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

// scan links the tracked author, if any, before the book is registered.
func (m *BookMapper) scan(row scanner) (*domain.Book, error) {
	var (
		b         domain.Book
		status    string
		tags      string
		published sql.NullString
	)
	if err := row.Scan(&b.ID, &b.AuthorID, &b.Title, &status, &tags, &published); err != nil {
		return nil, err
	}
	b.Status = domain.BookStatus(status)
	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	at, err := parseTime(published)
	if err != nil {
		return nil, err
	}
	b.PublishedAt = at
	if a, ok := orm.Lookup[domain.Author](m.registry, b.AuthorID); ok {
		b.Author = a
	}
	return &b, nil
}
