package domain

import (
	"fmt"
	"strconv"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID     int64
	BookID string
	Book   *Book
	Rating int
	Body   string
}

func (r *Review) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating %d out of range", ErrInvalidEntity, r.Rating)
	}
	return nil
}

func (r *Review) CacheKey() string { return ReviewCacheKey(r.ID) }

func ReviewCacheKey(id int64) string { return "review:" + strconv.FormatInt(id, 10) }
