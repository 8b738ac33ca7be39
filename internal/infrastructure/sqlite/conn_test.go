package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/sqlite"
	"ormcore/internal/orm"
)

func TestConn_NestedTransactionUsesSavepoint(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	conn := sqlite.NewConn(db)
	mapper := sqlite.NewAuthorMapper(db, orm.NewEntityRegistry(domain.NewMapping()))
	ctx := context.Background()

	outer, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, mapper.Add(outer, &domain.Author{Name: "kept"}))

	inner, err := conn.BeginTx(outer)
	require.NoError(t, err)
	require.NoError(t, mapper.Add(inner, &domain.Author{Name: "dropped"}))
	require.NoError(t, conn.Rollback(inner))

	require.NoError(t, conn.Commit(outer))
	require.Equal(t, 1, count(t, db, "authors"))
}

func TestConn_RequiresTransaction(t *testing.T) {
	t.Parallel()
	conn := sqlite.NewConn(openDB(t))
	require.ErrorIs(t, conn.Commit(context.Background()), orm.ErrNoTransaction)
	require.ErrorIs(t, conn.Rollback(context.Background()), orm.ErrNoTransaction)
}

func TestRowIDGenerator(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	conn := sqlite.NewConn(db)
	mapper := sqlite.NewAuthorMapper(db, orm.NewEntityRegistry(domain.NewMapping()))
	gen := sqlite.NewRowIDGenerator(db)
	require.True(t, gen.IsPostInsert())

	ctx, err := conn.BeginTx(context.Background())
	require.NoError(t, err)
	defer func() { _ = conn.Rollback(ctx) }()
	for want := int64(1); want <= 2; want++ {
		require.NoError(t, mapper.Add(ctx, &domain.Author{Name: "a"}))
		id, err := gen.Generate(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
}

func TestMapper_RejectsForeignEntity(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	mapper := sqlite.NewBookMapper(db, orm.NewEntityRegistry(domain.NewMapping()))
	require.ErrorIs(t, mapper.Add(context.Background(), &domain.Author{Name: "x"}), orm.ErrUnexpectedEntity)
}
