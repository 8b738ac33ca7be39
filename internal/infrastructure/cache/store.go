package cache

import "context"

// Store is a key/value cache fed after a commit is durable.
type Store interface {
	Set(ctx context.Context, key string, val []byte) error
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// NoopStore drops every write; useful for tests/dev when caching is disabled.
type NoopStore struct{}

func (NoopStore) Set(context.Context, string, []byte) error         { return nil }
func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopStore) Delete(context.Context, string) error              { return nil }
