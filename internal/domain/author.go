package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Author struct {
	ID   int64
	Name string
}

func (a *Author) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: author name is empty", ErrInvalidEntity)
	}
	return nil
}

func (a *Author) CacheKey() string { return AuthorCacheKey(a.ID) }

func AuthorCacheKey(id int64) string { return "author:" + strconv.FormatInt(id, 10) }
