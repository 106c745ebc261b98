package result

import (
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
)

// Hit is a single search hit: a catalog item and its relevance score.
type Hit struct {
	item  catalog.Item
	score float64
}

// New creates a search hit.
func New(item catalog.Item, score float64) Hit {
	return Hit{item: item, score: score}
}

// ID returns the catalog item identifier.
func (h *Hit) ID() string { return h.item.ID }

// Item returns the catalog item.
func (h *Hit) Item() catalog.Item { return h.item }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// WithScore returns a copy of the hit carrying a new score.
func (h Hit) WithScore(score float64) Hit {
	h.score = score
	return h
}

// Less reports whether a ranks before b: higher score first, then lower id.
// This is a strict total order over hits with distinct ids.
func Less(a, b *Hit) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.item.ID < b.item.ID
}
