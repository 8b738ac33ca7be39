package domain

import "ormcore/internal/orm"

// Describe registers the field tables of Author, Book and Review.
func Describe(m *orm.Mapping) {
	orm.Describe(m, func(a *Author) *int64 { return &a.ID },
		orm.Value("name", func(a *Author) any { return a.Name }),
	)
	orm.Describe(m, func(b *Book) *string { return &b.ID },
		orm.Value("author_id", func(b *Book) any { return b.AuthorID }),
		orm.Ref("author", func(b *Book) any { return b.Author }),
		orm.Value("title", func(b *Book) any { return b.Title }),
		orm.Value("status", func(b *Book) any { return b.Status }),
		orm.Value("tags", func(b *Book) any { return b.Tags }),
		orm.Value("published_at", func(b *Book) any { return b.PublishedAt }),
	)
	orm.Describe(m, func(r *Review) *int64 { return &r.ID },
		orm.Value("book_id", func(r *Review) any { return r.BookID }),
		orm.Ref("book", func(r *Review) any { return r.Book }),
		orm.Value("rating", func(r *Review) any { return r.Rating }),
		orm.Value("body", func(r *Review) any { return r.Body }),
	)
}

// NewMapping returns a Mapping with every domain type described.
func NewMapping() *orm.Mapping {
	m := orm.NewMapping()
	Describe(m)
	return m
}

// WriteBy sets b's author and arranges for AuthorID to be copied from a when
// b is written, after a has received its identifier.
func (b *Book) WriteBy(r *orm.EntityRegistry, a *Author) {
	b.Author = a
	r.RegisterAggregateRootCallback(b, a, func(child, root orm.Entity) {
		child.(*Book).AuthorID = root.(*Author).ID
	})
}

// About sets r's book and arranges for BookID to be copied from b when the
// review is written.
func (rv *Review) About(r *orm.EntityRegistry, b *Book) {
	rv.Book = b
	r.RegisterAggregateRootCallback(rv, b, func(child, root orm.Entity) {
		child.(*Review).BookID = root.(*Book).ID
	})
}
