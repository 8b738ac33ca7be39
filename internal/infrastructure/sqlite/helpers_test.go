package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/sqlite"
	"ormcore/internal/orm"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ormcore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUoW(db *sqlite.DB) (*orm.UnitOfWork, *sqlite.Mappers) {
	u := orm.NewUnitOfWork(sqlite.NewConn(db), domain.NewMapping())
	return u, sqlite.Bind(u, db, nil)
}

func count(t *testing.T, db *sqlite.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.SQL.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// seed commits an author with one reviewed book and returns them.
func seed(t *testing.T, db *sqlite.DB) (*domain.Author, *domain.Book, *domain.Review) {
	t.Helper()
	u, _ := newUoW(db)
	reg := u.EntityRegistry()
	a := &domain.Author{Name: "Ursula"}
	b := &domain.Book{Title: "Earthsea", Status: domain.BookStatusDraft, Tags: []string{"fantasy"}}
	rv := &domain.Review{Rating: 5, Body: "classic"}
	b.WriteBy(reg, a)
	rv.About(reg, b)
	for _, e := range []orm.Entity{a, b, rv} {
		require.NoError(t, u.ScheduleForInsertion(e))
	}
	require.NoError(t, u.Commit(context.Background()))
	return a, b, rv
}
