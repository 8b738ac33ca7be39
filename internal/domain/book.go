package domain

import (
	"fmt"
	"strings"
	"time"
)

// Book belongs to an Author. AuthorID is copied from Author when the book is
// written, so a book can be scheduled before its author has an identifier.
type Book struct {
	ID          string
	AuthorID    int64
	Author      *Author
	Title       string
	Status      BookStatus
	Tags        []string
	PublishedAt *time.Time
}

func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: book title is empty", ErrInvalidEntity)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: book status %q", ErrInvalidEntity, b.Status)
	}
	return nil
}

// Publish moves a draft to published and stamps the date.
func (b *Book) Publish(at time.Time) {
	at = at.UTC()
	b.Status = BookStatusPublished
	b.PublishedAt = &at
}

func (b *Book) CacheKey() string { return BookCacheKey(b.ID) }

func BookCacheKey(id string) string { return "book:" + id }
