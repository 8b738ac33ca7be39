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

type AuthorMapper struct {
	db       *DB
	registry *orm.EntityRegistry
}

func NewAuthorMapper(db *DB, registry *orm.EntityRegistry) *AuthorMapper {
	return &AuthorMapper{db: db, registry: registry}
}

// Add leaves the identifier to the rowid generator.
func (m *AuthorMapper) Add(ctx context.Context, e orm.Entity) error {
	a, ok := e.(*domain.Author)
	if !ok {
		return unexpected(e)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	const ins = `INSERT INTO authors(name) VALUES (?)`
	_, err := m.db.exec(ctx, sqlLog("author", "Add", ins), ins, a.Name)
	return err
}

func (m *AuthorMapper) Update(ctx context.Context, e orm.Entity) error {
	a, ok := e.(*domain.Author)
	if !ok {
		return unexpected(e)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	const up = `UPDATE authors SET name=? WHERE id=?`
	n, err := m.db.exec(ctx, sqlLog("author", "Update", up, zap.Int64("id", a.ID)), up, a.Name, a.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("author %d: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *AuthorMapper) Delete(ctx context.Context, e orm.Entity) error {
	a, ok := e.(*domain.Author)
	if !ok {
		return unexpected(e)
	}
	const del = `DELETE FROM authors WHERE id=?`
	n, err := m.db.exec(ctx, sqlLog("author", "Delete", del, zap.Int64("id", a.ID)), del, a.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("author %d: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (m *AuthorMapper) Find(ctx context.Context, id int64) (*domain.Author, error) {
	if a, ok := orm.Lookup[domain.Author](m.registry, id); ok {
		return a, nil
	}
	const q = `SELECT id, name FROM authors WHERE id=?`
	log := sqlLog("author", "Find", q, zap.Int64("id", id))
	log.Info("sql.query_start")
	var a domain.Author
	err := m.db.q(ctx).QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return nil, domain.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success")
	return orm.Adopt(m.registry, &a), nil
}
