package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/logger"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	"github.com/kailas-cloud/shopdex/internal/usecase/intent"
	"github.com/kailas-cloud/shopdex/internal/version"
)

const chatResultsMessage = "Here are some products that match what you are looking for."

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Engine is the ranked retrieval engine.
type Engine interface {
	Search(ctx context.Context, query string, facets facet.Facets, topK int) []result.Hit
}

// Pager serves paged search and browse.
type Pager interface {
	SearchPage(ctx context.Context, req *request.Search) ([]result.Hit, page.Info)
	Browse(ctx context.Context, req *request.Browse) (page.Browse, error)
}

// IntentExtractor turns a chat message into shopping intent.
type IntentExtractor interface {
	Extract(ctx context.Context, message string) (intent.Intent, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Options tunes request defaults.
type Options struct {
	DefaultTopK     int
	MaxTopK         int
	DefaultPageSize int
	MaxPageSize     int
}

// Server implements ServerInterface.
type Server struct {
	engine        Engine
	pager         Pager
	intents       IntentExtractor
	health        HealthChecker
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. intents may be nil: chat search then runs
// without facets.
func NewServer(
	engine Engine,
	pager Pager,
	intents IntentExtractor,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = request.MaxTopK
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = request.DefaultTopK
	}
	opts.DefaultTopK = min(opts.DefaultTopK, opts.MaxTopK)
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = request.DefaultLimit
	}
	if opts.MaxPageSize <= 0 || opts.MaxPageSize > request.MaxLimit {
		opts.MaxPageSize = request.MaxLimit
	}
	s := &Server{
		engine:  engine,
		pager:   pager,
		intents: intents,
		health:  health,
		opts:    opts,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeInvalidQuery),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrIndexUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeIndexUnavailable),
	}
	return s
}

// ChatSearch handles POST /api/v1/chat/search.
func (s *Server) ChatSearch(w http.ResponseWriter, r *http.Request) {
	var req ChatSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "query is required")
		return
	}

	in := intent.Intent{MoveOn: true}
	if s.intents != nil {
		extracted, err := s.intents.Extract(r.Context(), req.Query)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Intent extraction failed, searching without facets",
				zap.Error(err))
		} else {
			in = extracted
		}
	}

	if !in.MoveOn {
		writeJSON(w, http.StatusOK, ChatSearchResponse{
			Results: []Product{},
			Message: in.FollowUp,
			Facets:  facetsToAPI(in.Facets),
		})
		return
	}

	sreq, err := request.NewSearch(req.Query, in.Facets, derefInt(req.Offset), s.pageSize(req.Limit))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	ctx := logger.With(r.Context(),
		zap.String("intent_colour", in.Facets.Colour.String()),
		zap.String("intent_sub_category", in.Facets.SubCategory.String()),
		zap.String("intent_gender", in.Facets.Gender.String()),
	)
	hits, info := s.pager.SearchPage(ctx, &sreq)
	writeJSON(w, http.StatusOK, ChatSearchResponse{
		Results:    hitsToAPI(hits),
		Message:    chatResultsMessage,
		Facets:     facetsToAPI(in.Facets),
		Pagination: paginationToAPI(info),
	})
}

// SearchProducts handles POST /api/v1/products/search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req ProductSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sreq, err := request.NewSearch(req.Query, facetsFromAPI(req.Facets), derefInt(req.Offset), s.pageSize(req.Limit))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	hits, info := s.pager.SearchPage(r.Context(), &sreq)
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:    hitsToAPI(hits),
		Pagination: paginationToAPI(info),
	})
}

// RankedSearch handles POST /api/v1/products/ranked: the top_k best hits without paging.
func (s *Server) RankedSearch(w http.ResponseWriter, r *http.Request) {
	var req RankedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "query is required")
		return
	}
	if len(req.Query) > request.MaxQueryLength {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "query too long")
		return
	}

	topK := s.opts.DefaultTopK
	if req.TopK != nil {
		if *req.TopK <= 0 {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "top_k must be positive")
			return
		}
		topK = min(*req.TopK, s.opts.MaxTopK)
	}

	hits := s.engine.Search(r.Context(), req.Query, facetsFromAPI(req.Facets), topK)
	writeJSON(w, http.StatusOK, SearchResponse{Results: hitsToAPI(hits)})
}

// BrowseProducts handles GET /api/v1/products/browse.
func (s *Server) BrowseProducts(w http.ResponseWriter, r *http.Request, params BrowseProductsParams) {
	var articleTypes []string
	if params.ArticleType != nil {
		articleTypes = append(articleTypes, *params.ArticleType...)
	}
	if sub := facet.Parse(derefString(params.SubCategory)); sub.IsSet() {
		articleTypes = append(articleTypes, catalog.AcceptedSpellings(sub.String())...)
	}

	breq, err := request.NewBrowse(
		articleTypes,
		facet.Parse(derefString(params.Colour)),
		facet.Parse(derefString(params.Gender)),
		s.pageSize(params.Limit),
		page.Token(derefString(params.Offset)),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	res, err := s.pager.Browse(r.Context(), &breq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]Product, len(res.Items))
	for i, it := range res.Items {
		items[i] = productToAPI(it, nil)
	}
	var next *string
	if res.Next != nil {
		token := string(*res.Next)
		next = &token
	}
	writeJSON(w, http.StatusOK, BrowseResponse{Items: items, NextOffset: next})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler reports query binding failures as 400.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
}

// pageSize applies the configured default and ceiling to a requested limit.
func (s *Server) pageSize(limit *int) int {
	n := derefInt(limit)
	if n <= 0 {
		return s.opts.DefaultPageSize
	}
	return min(n, s.opts.MaxPageSize)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
