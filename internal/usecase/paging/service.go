// Package paging turns ranked retrieval and filter-only scrolling into stable pages.
package paging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/usecase/search"
)

// Service is the pagination adapter.
type Service struct {
	engine   Engine
	scroller Scroller
	maxTopK  int
}

// New creates a pagination adapter. maxTopK caps the ranked window fetched per call;
// non-positive means request.MaxTopK.
func New(engine Engine, scroller Scroller, maxTopK int) *Service {
	if maxTopK <= 0 {
		maxTopK = request.MaxTopK
	}
	return &Service{engine: engine, scroller: scroller, maxTopK: maxTopK}
}

// SearchPage returns the [offset, offset+limit) slice of the ranked hits.
//
// The engine has no cursor, so every call re-ranks from the top. One hit past the window
// is requested to learn HasMore. TotalCount is the number of hits fetched and is only a
// lower bound on the real number of matches.
func (s *Service) SearchPage(ctx context.Context, req *request.Search) ([]result.Hit, page.Info) {
	offset, limit := req.Offset(), req.Limit()
	info := page.Info{Offset: offset, Limit: limit}
	if limit <= 0 || offset >= s.maxTopK {
		return []result.Hit{}, info
	}

	topK := min(offset+limit+1, s.maxTopK)
	hits := s.engine.Search(ctx, req.Query(), req.Facets(), topK)

	info.TotalCount = len(hits)
	info.HasMore = len(hits) > offset+limit
	if offset >= len(hits) {
		return []result.Hit{}, info
	}
	end := min(offset+limit, len(hits))
	return hits[offset:end], info
}

// Browse fetches one filter-only page. Every provided facet is a hard filter. A cursor the
// index cannot replay is a caller error; any other index failure degrades to an empty,
// final page.
func (s *Service) Browse(ctx context.Context, req *request.Browse) (page.Browse, error) {
	filters, err := search.BrowseFilter(req.ArticleTypes(), req.Colour(), req.Gender())
	if err != nil {
		return page.Browse{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	items, next, err := s.scroller.Scroll(ctx, filters, req.Limit(), req.Offset())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			return page.Browse{}, fmt.Errorf("browse: %w", err)
		}
		logger.FromContext(ctx).Warn("Browse scroll failed, returning empty page", zap.Error(err))
		return page.Browse{Items: []catalog.Item{}}, nil
	}
	if items == nil {
		items = []catalog.Item{}
	}
	return page.Browse{Items: items, Next: next}, nil
}
