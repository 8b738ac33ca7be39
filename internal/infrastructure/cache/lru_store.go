package cache

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is an in-process Store bounded by entry count. Entries do not expire.
type LRUStore struct {
	cache *lru.Cache[string, []byte]
}

func NewLRUStore(size int) (*LRUStore, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: c}, nil
}

func (s *LRUStore) Set(_ context.Context, key string, val []byte) error {
	s.cache.Add(key, slices.Clone(val))
	return nil
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

func (s *LRUStore) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *LRUStore) Len() int { return s.cache.Len() }
