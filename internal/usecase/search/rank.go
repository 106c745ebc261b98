package search

import (
	"slices"

	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// dedup keeps the first occurrence of every id not already in seen and records kept ids.
func dedup(hits []result.Hit, seen map[string]struct{}) []result.Hit {
	out := hits[:0]
	for _, h := range hits {
		id := h.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, h)
	}
	return out
}

// keepMatching drops hits whose payload violates the must group of filters.
func keepMatching(hits []result.Hit, filters filter.Expression) ([]result.Hit, int) {
	if len(filters.Must()) == 0 {
		return hits, 0
	}
	out := hits[:0]
	dropped := 0
	for _, h := range hits {
		if !filters.Matches(h.Item().Payload()) {
			dropped++
			continue
		}
		out = append(out, h)
	}
	return out, dropped
}

// rank sorts hits by descending score with id as tie-break and truncates to limit.
func rank(hits []result.Hit, limit int) []result.Hit {
	slices.SortFunc(hits, func(a, b result.Hit) int {
		switch {
		case result.Less(&a, &b):
			return -1
		case result.Less(&b, &a):
			return 1
		default:
			return 0
		}
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
