package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/resilience"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	scrollFn    func(ctx context.Context, q *db.ScrollQuery) (*db.ScrollResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Scroll(ctx context.Context, q *db.ScrollQuery) (*db.ScrollResult, error) {
	if m.scrollFn != nil {
		return m.scrollFn(ctx, q)
	}
	return &db.ScrollResult{}, nil
}

// recordingExecutor runs fn once and records the operation name and classifier.
type recordingExecutor struct {
	ops        []string
	classifier resilience.ErrorClassifier
}

func (e *recordingExecutor) Execute(
	ctx context.Context, op string, fn func(context.Context) error, c resilience.ErrorClassifier,
) error {
	e.ops = append(e.ops, op)
	e.classifier = c
	return fn(ctx)
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, nil, "products", "product:"), ms
}

func mustMatch(t *testing.T, key, value string) filter.Condition {
	t.Helper()
	c, err := filter.NewMatch(key, value)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return c
}
