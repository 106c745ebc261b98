package chi

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidQuery           ErrorResponseCode = "invalid_query"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeRateLimited            ErrorResponseCode = "rate_limited"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeIndexUnavailable       ErrorResponseCode = "index_unavailable"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// Facets are the structured shopping facets of a search. Empty and "NA" mean not specified.
type Facets struct {
	Colour      *string `json:"colour,omitempty"`
	Category    *string `json:"category,omitempty"`
	SubCategory *string `json:"sub_category,omitempty"`
	Gender      *string `json:"gender,omitempty"`
}

// ProductSearchRequest is the body of POST /api/v1/products/search.
type ProductSearchRequest struct {
	Query  string  `json:"query"`
	Facets *Facets `json:"facets,omitempty"`
	Offset *int    `json:"offset,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
}

// RankedSearchRequest is the body of POST /api/v1/products/ranked.
type RankedSearchRequest struct {
	Query  string  `json:"query"`
	Facets *Facets `json:"facets,omitempty"`
	TopK   *int    `json:"top_k,omitempty"`
}

// ChatSearchRequest is the body of POST /api/v1/chat/search.
type ChatSearchRequest struct {
	Query  string `json:"query"`
	Offset *int   `json:"offset,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// Product is a catalog item as returned to clients.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	ArticleType    string   `json:"article_type,omitempty"`
	BaseColour     string   `json:"base_colour,omitempty"`
	MasterCategory string   `json:"master_category,omitempty"`
	SubCategory    string   `json:"sub_category,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
	Season         string   `json:"season,omitempty"`
	Year           string   `json:"year,omitempty"`
	Usage          string   `json:"usage,omitempty"`
	Score          *float64 `json:"score,omitempty"`
}

// Pagination describes the returned window of a ranked search.
type Pagination struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"has_more"`
	TotalCount int  `json:"total_count"`
	// TotalIsLowerBound is always true: only the ranked window up to offset+limit is fetched.
	TotalIsLowerBound bool `json:"total_is_lower_bound"`
}

// SearchResponse is the body of a product search.
type SearchResponse struct {
	Results    []Product   `json:"results"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ChatSearchResponse is the body of a chat search.
type ChatSearchResponse struct {
	Results    []Product   `json:"results"`
	Message    string      `json:"message"`
	Facets     Facets      `json:"facets"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// BrowseProductsParams are the query parameters of GET /api/v1/products/browse.
type BrowseProductsParams struct {
	ArticleType *[]string `form:"article_type,omitempty" json:"article_type,omitempty"`
	SubCategory *string   `form:"sub_category,omitempty" json:"sub_category,omitempty"`
	Colour      *string   `form:"colour,omitempty" json:"colour,omitempty"`
	Gender      *string   `form:"gender,omitempty" json:"gender,omitempty"`
	Limit       *int      `form:"limit,omitempty" json:"limit,omitempty"`
	Offset      *string   `form:"offset,omitempty" json:"offset,omitempty"`
}

// BrowseResponse is one page of filter-only browsing. NextOffset is null on the last page.
type BrowseResponse struct {
	Items      []Product `json:"items"`
	NextOffset *string   `json:"next_offset"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}
