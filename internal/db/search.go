package db

import "github.com/kailas-cloud/shopdex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
// Only the must group of Filters is applied by the backend.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// ScrollQuery is the input for a filter-only paged fetch.
// Cursor is the opaque value returned by the previous page; empty starts from the beginning.
type ScrollQuery struct {
	IndexName    string
	Filters      filter.Expression
	Limit        int
	Cursor       string
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// ScrollResult is one page of a scroll. NextCursor is empty when no pages remain.
type ScrollResult struct {
	Entries    []SearchEntry
	NextCursor string
}
