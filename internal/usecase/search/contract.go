package search

import (
	"context"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// Repository defines the vector index contract used by the retrieval engine.
type Repository interface {
	Nearest(ctx context.Context, vector []float32, filters filter.Expression, limit int) ([]result.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
