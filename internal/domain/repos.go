package domain

import "context"

// Finders load rows into tracked entities. Instances already in the identity
// map are returned as they are, without a query.
type (
	AuthorFinder interface {
		Find(ctx context.Context, id int64) (*Author, error)
	}
	BookFinder interface {
		Find(ctx context.Context, id string) (*Book, error)
		ListByAuthor(ctx context.Context, authorID int64) ([]*Book, error)
	}
	ReviewFinder interface {
		Find(ctx context.Context, id int64) (*Review, error)
		ListByBook(ctx context.Context, bookID string) ([]*Review, error)
	}
)
