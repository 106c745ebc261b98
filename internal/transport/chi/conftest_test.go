package chi

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	"github.com/kailas-cloud/shopdex/internal/usecase/intent"
)

// --- mockPager ---

type mockPager struct {
	mu sync.Mutex

	hits []result.Hit
	info page.Info

	browse    page.Browse
	browseErr error

	searches []request.Search
	browses  []request.Browse
}

func (m *mockPager) SearchPage(_ context.Context, req *request.Search) ([]result.Hit, page.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, *req)
	info := m.info
	info.Offset, info.Limit = req.Offset(), req.Limit()
	return m.hits, info
}

func (m *mockPager) Browse(_ context.Context, req *request.Browse) (page.Browse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.browses = append(m.browses, *req)
	return m.browse, m.browseErr
}

// --- mockEngine ---

type mockEngine struct {
	hits  []result.Hit
	calls []engineCall
}

type engineCall struct {
	query  string
	facets facet.Facets
	topK   int
}

func (m *mockEngine) Search(_ context.Context, query string, facets facet.Facets, topK int) []result.Hit {
	m.calls = append(m.calls, engineCall{query: query, facets: facets, topK: topK})
	return m.hits
}

// --- mockIntents ---

type mockIntents struct {
	intent intent.Intent
	err    error
	calls  []string
}

func (m *mockIntents) Extract(_ context.Context, message string) (intent.Intent, error) {
	m.calls = append(m.calls, message)
	return m.intent, m.err
}

// --- mockHealth ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

var testOptions = Options{DefaultTopK: 10, MaxTopK: 100, DefaultPageSize: 12, MaxPageSize: 50}

func newTestServer(pager *mockPager, intents IntentExtractor, health *mockHealth) http.Handler {
	return newTestServerWithEngine(&mockEngine{}, pager, intents, health)
}

func newTestServerWithEngine(
	engine *mockEngine, pager *mockPager, intents IntentExtractor, health *mockHealth,
) http.Handler {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	s := NewServer(engine, pager, intents, health, testOptions, zap.NewNop())
	return HandlerWithOptions(s, ChiServerOptions{ErrorHandlerFunc: ParamErrorHandler})
}

func item(id, articleType string) catalog.Item {
	return catalog.Item{ID: id, ArticleType: articleType, BaseColour: "Blue", Gender: "Women"}
}
