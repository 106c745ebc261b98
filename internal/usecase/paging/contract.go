package paging

import (
	"context"

	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// Engine is the ranked retrieval engine being paged over.
type Engine interface {
	Search(ctx context.Context, query string, facets facet.Facets, topK int) []result.Hit
}

// Scroller pages through the index by filter alone.
type Scroller interface {
	Scroll(
		ctx context.Context, filters filter.Expression, limit int, cursor page.Token,
	) ([]catalog.Item, *page.Token, error)
}
