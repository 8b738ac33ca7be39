package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/pg"
	"ormcore/internal/orm"
)

func withPostgres(t *testing.T) (*pg.DB, func()) {
	t.Helper()
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("set TESTCONTAINERS=1 to run containerized PG tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := postgres.RunContainer(ctx,
		postgres.WithDatabase("ormcore"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pg.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pg.RunMigrations(ctx, db))

	teardown := func() {
		db.Close()
		_ = container.Terminate(context.Background())
	}
	return db, teardown
}

// pgDB connects to DATABASE_URL when set, otherwise starts a container.
func pgDB(t *testing.T) *pg.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		db, teardown := withPostgres(t)
		t.Cleanup(teardown)
		return db
	}
	ctx := context.Background()
	db, err := pg.Connect(ctx, dsn)
	if err != nil {
		t.Skip("pg not available: ", err)
	}
	t.Cleanup(db.Close)
	if err := db.Ping(ctx); err != nil {
		t.Skip("pg not reachable: ", err)
	}
	require.NoError(t, pg.RunMigrations(ctx, db))
	return db
}

func newUoW(db *pg.DB) (*orm.UnitOfWork, *pg.Mappers) {
	u := orm.NewUnitOfWork(pg.NewConn(db), domain.NewMapping())
	return u, pg.Bind(u, db, nil)
}
