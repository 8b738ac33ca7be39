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

type AuthorMapper struct {
	db       *DB
	registry *orm.EntityRegistry
}

func NewAuthorMapper(db *DB, registry *orm.EntityRegistry) *AuthorMapper {
	return &AuthorMapper{db: db, registry: registry}
}

// Add expects the identifier to be drawn from authors_id_seq already.
func (m *AuthorMapper) Add(ctx context.Context, e orm.Entity) error {
	a, ok := e.(*domain.Author)
	if !ok {
		return unexpected(e)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	const ins = `INSERT INTO authors(id, name) VALUES ($1, $2)`
	_, err := m.db.exec(ctx, sqlLog("author", "Add", ins, zap.Int64("id", a.ID)), ins, a.ID, a.Name)
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
	const up = `UPDATE authors SET name=$2 WHERE id=$1`
	n, err := m.db.exec(ctx, sqlLog("author", "Update", up, zap.Int64("id", a.ID)), up, a.ID, a.Name)
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
	const del = `DELETE FROM authors WHERE id=$1`
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
	const q = `SELECT id, name FROM authors WHERE id=$1`
	log := sqlLog("author", "Find", q, zap.Int64("id", id))
	log.Info("sql.query_start")
	var a domain.Author
	err := m.db.q(ctx).QueryRow(ctx, q, id).Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
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
