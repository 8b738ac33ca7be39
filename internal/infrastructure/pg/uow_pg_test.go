package pg_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/pg"
	"ormcore/internal/orm"
)

func TestCommit_AssignsSequenceAndSerialIdentifiers(t *testing.T) {
	db := pgDB(t)
	ctx := context.Background()
	u, ms := newUoW(db)
	reg := u.EntityRegistry()

	a := &domain.Author{Name: "author-" + uuid.NewString()}
	b := &domain.Book{Title: "Dune", Status: domain.BookStatusDraft, Tags: []string{"sf"}}
	rv := &domain.Review{Rating: 5, Body: "spice"}
	b.WriteBy(reg, a)
	rv.About(reg, b)
	var idAtInsert int64
	u.RegisterDataMapper(orm.TypeOf[*domain.Author](), observeAdd{DataMapper: ms.Authors, fn: func(e orm.Entity) {
		idAtInsert = e.(*domain.Author).ID
	}})
	for _, e := range []orm.Entity{a, b, rv} {
		require.NoError(t, u.ScheduleForInsertion(e))
	}
	require.NoError(t, u.Commit(ctx))

	require.Positive(t, a.ID)
	require.Equal(t, a.ID, idAtInsert)
	require.Positive(t, rv.ID)
	require.Equal(t, a.ID, b.AuthorID)
	require.Equal(t, b.ID, rv.BookID)

	_, ms2 := newUoW(db)
	books, err := ms2.Books.ListByAuthor(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, []string{"sf"}, books[0].Tags)
	reviews, err := ms2.Reviews.ListByBook(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t, rv.ID, reviews[0].ID)
	require.Same(t, books[0], reviews[0].Book)
}

func TestCommit_RollbackResetsIdentifiers(t *testing.T) {
	db := pgDB(t)
	ctx := context.Background()
	u, _ := newUoW(db)
	a := &domain.Author{Name: "author-" + uuid.NewString()}
	b := &domain.Book{Title: "Dune", Status: domain.BookStatusDraft}
	b.WriteBy(u.EntityRegistry(), a)
	bad := &domain.Review{Rating: 0}
	bad.About(u.EntityRegistry(), b)
	for _, e := range []orm.Entity{a, b, bad} {
		require.NoError(t, u.ScheduleForInsertion(e))
	}

	require.ErrorIs(t, u.Commit(ctx), orm.ErrCommitFailed)
	require.Zero(t, a.ID)
	require.Empty(t, b.ID)
	require.NotEqual(t, orm.EntityStateRegistered, u.EntityRegistry().State(b))

	bad.Rating = 3
	require.NoError(t, u.Commit(ctx))
	_, ms2 := newUoW(db)
	got, err := ms2.Authors.Find(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Name, got.Name)
}

func TestCommit_DirtySweepAndDelete(t *testing.T) {
	db := pgDB(t)
	ctx := context.Background()
	u, _ := newUoW(db)
	a := &domain.Author{Name: "author-" + uuid.NewString()}
	require.NoError(t, u.ScheduleForInsertion(a))
	require.NoError(t, u.Commit(ctx))

	u2, ms2 := newUoW(db)
	loaded, err := ms2.Authors.Find(ctx, a.ID)
	require.NoError(t, err)
	loaded.Name = "renamed-" + uuid.NewString()
	require.NoError(t, u2.Commit(ctx))

	_, ms3 := newUoW(db)
	again, err := ms3.Authors.Find(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, loaded.Name, again.Name)

	require.NoError(t, u2.ScheduleForDeletion(loaded))
	require.NoError(t, u2.Commit(ctx))
	_, ms4 := newUoW(db)
	_, err = ms4.Authors.Find(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConn_NestedTransaction(t *testing.T) {
	db := pgDB(t)
	ctx := context.Background()
	conn := pg.NewConn(db)
	gen := pg.NewSequenceGenerator(db, "authors_id_seq")
	mapper := pg.NewAuthorMapper(db, orm.NewEntityRegistry(domain.NewMapping()))

	outer, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	kept := &domain.Author{Name: "kept-" + uuid.NewString()}
	id, err := gen.Generate(outer, kept)
	require.NoError(t, err)
	kept.ID = id.(int64)
	require.NoError(t, mapper.Add(outer, kept))

	inner, err := conn.BeginTx(outer)
	require.NoError(t, err)
	dropped := &domain.Author{Name: "dropped"}
	id, err = gen.Generate(inner, dropped)
	require.NoError(t, err)
	dropped.ID = id.(int64)
	require.NoError(t, mapper.Add(inner, dropped))
	require.NoError(t, conn.Rollback(inner))
	require.NoError(t, conn.Commit(outer))

	_, err = mapper.Find(ctx, kept.ID)
	require.NoError(t, err)
	_, err = mapper.Find(ctx, dropped.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.ErrorIs(t, conn.Commit(ctx), orm.ErrNoTransaction)
}

type observeAdd struct {
	orm.DataMapper
	fn func(orm.Entity)
}

func (o observeAdd) Add(ctx context.Context, e orm.Entity) error {
	o.fn(e)
	return o.DataMapper.Add(ctx, e)
}
