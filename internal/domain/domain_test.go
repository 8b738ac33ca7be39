package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ormcore/internal/orm"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		v    interface{ Validate() error }
		ok   bool
	}{
		{"author ok", &Author{Name: "Le Guin"}, true},
		{"author blank", &Author{Name: "  "}, false},
		{"book ok", &Book{Title: "Earthsea", Status: BookStatusDraft}, true},
		{"book no status", &Book{Title: "Earthsea"}, false},
		{"book no title", &Book{Status: BookStatusDraft}, false},
		{"review ok", &Review{Rating: MaxRating}, true},
		{"review low", &Review{Rating: MinRating - 1}, false},
		{"review high", &Review{Rating: MaxRating + 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.v.Validate()
			if c.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidEntity)
		})
	}
}

func TestCacheKeys(t *testing.T) {
	t.Parallel()
	require.Equal(t, "author:7", (&Author{ID: 7}).CacheKey())
	require.Equal(t, "book:b-1", (&Book{ID: "b-1"}).CacheKey())
	require.Equal(t, "review:3", (&Review{ID: 3}).CacheKey())
}

func TestAggregateRootLinks(t *testing.T) {
	t.Parallel()
	r := orm.NewEntityRegistry(NewMapping())
	a := &Author{Name: "a"}
	b := &Book{Title: "b", Status: BookStatusDraft}
	rv := &Review{Rating: 4}
	b.WriteBy(r, a)
	rv.About(r, b)
	require.Same(t, a, b.Author)
	require.Same(t, b, rv.Book)

	a.ID = 11
	r.RunAggregateRootCallbacks(b)
	require.Equal(t, int64(11), b.AuthorID)

	b.ID = "b-11"
	r.RunAggregateRootCallbacks(rv)
	require.Equal(t, "b-11", rv.BookID)
}

func TestMappingTracksBookChanges(t *testing.T) {
	t.Parallel()
	r := orm.NewEntityRegistry(NewMapping())
	tracker := orm.NewChangeTracker(r)
	b := &Book{ID: "b", Title: "t", Status: BookStatusDraft, Tags: []string{"sf"}}
	r.RegisterEntity(b)
	require.False(t, tracker.HasChanged(b))

	b.Tags[0] = "fantasy"
	require.True(t, tracker.HasChanged(b))

	r.RegisterEntity(b)
	b.Publish(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, tracker.HasChanged(b))
	require.Equal(t, BookStatusPublished, b.Status)

	r.RegisterEntity(b)
	require.False(t, tracker.HasChanged(b))
}
