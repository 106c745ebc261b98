package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/resilience"
)

// Operation names used for circuit breakers.
const (
	OpNearest = "index.nearest"
	OpScroll  = "index.scroll"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Scroll(ctx context.Context, q *db.ScrollQuery) (*db.ScrollResult, error)
}

// executor runs a call under retry and circuit breaking.
type executor interface {
	Execute(ctx context.Context, op string, fn func(context.Context) error, c resilience.ErrorClassifier) error
}

// Repo reads catalog items from the vector index.
type Repo struct {
	store     store
	exec      executor
	index     string
	keyPrefix string
}

// New creates a search repository over one index. keyPrefix is stripped from
// backend keys when an entry carries no id field. exec may be nil.
func New(s store, exec executor, index, keyPrefix string) *Repo {
	return &Repo{store: s, exec: exec, index: index, keyPrefix: keyPrefix}
}

// Nearest returns up to limit nearest items satisfying the must group of filters,
// in backend order.
func (r *Repo) Nearest(
	ctx context.Context, vector []float32, filters filter.Expression, limit int,
) ([]result.Hit, error) {
	q := &db.KNNQuery{
		IndexName: r.index,
		Filters:   filters,
		Vector:    vector,
		K:         limit,
	}

	var sr *db.SearchResult
	err := r.run(ctx, OpNearest, func(ctx context.Context) error {
		var err error
		sr, err = r.store.SearchKNN(ctx, q)
		return err
	})
	if err != nil {
		return nil, mapError("nearest", err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.New(r.item(e), e.Score))
	}
	return hits, nil
}

// Scroll returns one filter-only page and the cursor of the next page (nil at the end).
func (r *Repo) Scroll(
	ctx context.Context, filters filter.Expression, limit int, cursor page.Token,
) ([]catalog.Item, *page.Token, error) {
	q := &db.ScrollQuery{
		IndexName: r.index,
		Filters:   filters,
		Limit:     limit,
		Cursor:    string(cursor),
	}

	var sr *db.ScrollResult
	err := r.run(ctx, OpScroll, func(ctx context.Context) error {
		var err error
		sr, err = r.store.Scroll(ctx, q)
		return err
	})
	if err != nil {
		return nil, nil, mapError("scroll", err)
	}
	if sr == nil {
		return nil, nil, nil
	}

	items := make([]catalog.Item, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		items = append(items, r.item(e))
	}
	var next *page.Token
	if sr.NextCursor != "" {
		tok := page.Token(sr.NextCursor)
		next = &tok
	}
	return items, next, nil
}

func (r *Repo) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if r.exec == nil {
		return fn(ctx)
	}
	return r.exec.Execute(ctx, op, fn, classify)
}

func (r *Repo) item(e db.SearchEntry) catalog.Item {
	id := e.Fields[catalog.FieldID]
	if id == "" {
		id = strings.TrimPrefix(e.Key, r.keyPrefix)
	}
	return catalog.ItemFromPayload(id, e.Fields)
}

// classify keeps malformed requests out of retry and breaker accounting.
func classify(err error) resilience.ErrorClassification {
	if errors.Is(err, db.ErrBadRequest) {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, db.ErrIndexNotFound) {
		return resilience.ErrorClassification{RecordFailure: true}
	}
	return resilience.TransientClassifier(err)
}

func mapError(op string, err error) error {
	if errors.Is(err, db.ErrBadRequest) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidQuery, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrIndexUnavailable, err)
}
