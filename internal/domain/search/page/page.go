package page

import "github.com/kailas-cloud/shopdex/internal/domain/catalog"

// Token is an opaque scroll cursor issued by the vector index. Only the index adapter
// that issued it may interpret it; everyone else stores and replays it verbatim.
type Token string

// IsZero reports whether the token marks the start of a scroll.
func (t Token) IsZero() bool { return t == "" }

// Browse is one page of a filter-only scroll.
type Browse struct {
	Items []catalog.Item
	// Next is nil exactly when the index reports no further pages.
	Next *Token
}

// Info describes the window returned by search-result pagination.
type Info struct {
	Offset  int
	Limit   int
	HasMore bool
	// TotalCount is the number of ranked hits fetched. It is a lower bound on the true match
	// count because the engine is capped at offset+limit hits.
	TotalCount int
}
