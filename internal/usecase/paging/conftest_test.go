package paging

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// rankedEngine returns the first topK of a fixed ranked catalog of size n.
type rankedEngine struct {
	n     int
	topKs []int
}

func (e *rankedEngine) Search(_ context.Context, _ string, _ facet.Facets, topK int) []result.Hit {
	e.topKs = append(e.topKs, topK)
	count := min(topK, e.n)
	hits := make([]result.Hit, 0, count)
	for i := range count {
		hits = append(hits, result.New(catalog.Item{ID: fmt.Sprintf("p%03d", i)}, 1-float64(i)/1000))
	}
	return hits
}

type scrollCall struct {
	filters filter.Expression
	limit   int
	cursor  page.Token
}

type mockScroller struct {
	items []catalog.Item
	next  *page.Token
	err   error
	calls []scrollCall
}

func (m *mockScroller) Scroll(
	_ context.Context, filters filter.Expression, limit int, cursor page.Token,
) ([]catalog.Item, *page.Token, error) {
	m.calls = append(m.calls, scrollCall{filters: filters, limit: limit, cursor: cursor})
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.items, m.next, nil
}

func ids(hits []result.Hit) []string {
	out := make([]string, len(hits))
	for i := range hits {
		out[i] = hits[i].ID()
	}
	return out
}

// scoredItem is a catalog entry with its raw similarity to the test query.
type scoredItem struct {
	item  catalog.Item
	score float64
}

// limitedIndex behaves like a real vector index: it applies the must group, orders by raw
// score and returns no more than limit hits.
type limitedIndex struct {
	items  []scoredItem
	limits []int
}

func (x *limitedIndex) Nearest(
	_ context.Context, _ []float32, filters filter.Expression, limit int,
) ([]result.Hit, error) {
	x.limits = append(x.limits, limit)
	var hits []result.Hit
	for _, si := range x.items {
		if filters.Matches(si.item.Payload()) {
			hits = append(hits, result.New(si.item, si.score))
		}
	}
	slices.SortFunc(hits, func(a, b result.Hit) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return hits[:min(limit, len(hits))], nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}
