package storage

import "context"

// KV is the keyed blob port both the progress and the artifact stores persist through.
// Set is last-write-wins; readers never observe a partially written value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)
