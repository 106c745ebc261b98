package db

import (
	"context"
	"time"
)

// Store is the vector index facade used by the retrieval layer.
type Store interface {
	Pinger
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// FieldIndexer is implemented by backends whose secondary field indexes live apart from the
// index itself and can be (re)created on an existing one. Creation is idempotent.
type FieldIndexer interface {
	CreateFieldIndexes(ctx context.Context, def *IndexDefinition) []FieldIndexError
}

// FieldIndexError reports one field whose secondary index could not be created.
type FieldIndexError struct {
	Field string
	Err   error
}

func (e FieldIndexError) Error() string { return "field index " + e.Field + ": " + e.Err.Error() }
func (e FieldIndexError) Unwrap() error { return e.Err }

// Searcher provides nearest-neighbor and filter-only scroll over an index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	Scroll(ctx context.Context, q *ScrollQuery) (*ScrollResult, error)
}
