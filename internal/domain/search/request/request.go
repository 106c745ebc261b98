package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 500
	DefaultLimit   = 12
	MaxLimit       = 100
	// MaxArticleTypes bounds the accepted spellings of a browse request.
	MaxArticleTypes = 32
)

// Search is a validated, paged product search.
type Search struct {
	query  string
	facets facet.Facets
	offset int
	limit  int
}

// NewSearch validates and normalizes search parameters.
// Defaults: offset=0, limit=DefaultLimit. Limit is clamped to MaxLimit.
func NewSearch(query string, facets facet.Facets, offset, limit int) (Search, error) {
	if strings.TrimSpace(query) == "" {
		return Search{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Search{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if offset < 0 {
		return Search{}, fmt.Errorf("offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Search{query: query, facets: facets, offset: offset, limit: limit}, nil
}

// Query returns the free-text query.
func (r *Search) Query() string { return r.query }

// Facets returns the structured query facets.
func (r *Search) Facets() facet.Facets { return r.facets }

// Offset returns the index of the first ranked hit to return.
func (r *Search) Offset() int { return r.offset }

// Limit returns the page size.
func (r *Search) Limit() int { return r.limit }

// Browse is a validated filter-only paged fetch.
type Browse struct {
	articleTypes []string
	colour       facet.Value
	gender       facet.Value
	limit        int
	offset       page.Token
}

// NewBrowse validates and normalizes browse parameters.
func NewBrowse(articleTypes []string, colour, gender facet.Value, limit int, offset page.Token) (Browse, error) {
	if len(articleTypes) > MaxArticleTypes {
		return Browse{}, fmt.Errorf("too many article types (max %d)", MaxArticleTypes)
	}
	types := make([]string, 0, len(articleTypes))
	for _, a := range articleTypes {
		if a = strings.TrimSpace(a); a != "" {
			types = append(types, a)
		}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Browse{
		articleTypes: types,
		colour:       colour,
		gender:       gender,
		limit:        limit,
		offset:       offset,
	}, nil
}

// ArticleTypes returns the accepted article-type spellings (may be empty).
func (r *Browse) ArticleTypes() []string { return r.articleTypes }

// Colour returns the optional colour.
func (r *Browse) Colour() facet.Value { return r.colour }

// Gender returns the optional gender.
func (r *Browse) Gender() facet.Value { return r.gender }

// Limit returns the page size.
func (r *Browse) Limit() int { return r.limit }

// Offset returns the scroll cursor; zero means start.
func (r *Browse) Offset() page.Token { return r.offset }
