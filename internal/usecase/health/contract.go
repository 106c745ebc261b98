package health

import (
	"context"

	"github.com/sony/gobreaker/v2"
)

// Pinger checks backing store availability (vector index, embedding cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// BreakerReader exposes circuit breaker state per operation.
type BreakerReader interface {
	State(operation string) gobreaker.State
}
