package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
)

type matchClause struct {
	Value string   `json:"value,omitempty"`
	Any   []string `json:"any,omitempty"`
}

type fieldCondition struct {
	Key   string      `json:"key"`
	Match matchClause `json:"match"`
}

type filterBody struct {
	Must []fieldCondition `json:"must"`
}

type searchRequest struct {
	Vector      []float32   `json:"vector"`
	Limit       int         `json:"limit"`
	Filter      *filterBody `json:"filter,omitempty"`
	WithPayload any         `json:"with_payload"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type searchResponse struct {
	Result []scoredPoint `json:"result"`
}

type scrollRequest struct {
	Limit       int             `json:"limit"`
	Filter      *filterBody     `json:"filter,omitempty"`
	Offset      json.RawMessage `json:"offset,omitempty"`
	WithPayload any             `json:"with_payload"`
	WithVector  bool            `json:"with_vector"`
}

type scrollResponse struct {
	Result struct {
		Points         []scoredPoint   `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	} `json:"result"`
}

// SearchKNN runs points/search with the must group of the filter.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	req := searchRequest{
		Vector:      q.Vector,
		Limit:       q.K,
		Filter:      buildFilter(q.Filters),
		WithPayload: withPayload(q.ReturnFields),
	}

	var resp searchResponse
	if err := s.call(ctx, db.OpPointsSearch, http.MethodPost,
		collectionPath(q.IndexName)+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	entries := make([]db.SearchEntry, 0, len(resp.Result))
	for _, p := range resp.Result {
		entries = append(entries, db.SearchEntry{
			Key:    pointID(p.ID),
			Score:  p.Score,
			Fields: stringPayload(p.Payload),
		})
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// Scroll runs points/scroll. The cursor is the raw JSON of next_page_offset and is
// replayed verbatim.
func (s *Store) Scroll(ctx context.Context, q *db.ScrollQuery) (*db.ScrollResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	req := scrollRequest{
		Limit:       q.Limit,
		Filter:      buildFilter(q.Filters),
		WithPayload: withPayload(q.ReturnFields),
	}
	if q.Cursor != "" {
		if !json.Valid([]byte(q.Cursor)) {
			return nil, &db.Error{Op: db.OpPointsScroll, Err: fmt.Errorf("%w: malformed cursor", db.ErrBadRequest)}
		}
		req.Offset = json.RawMessage(q.Cursor)
	}

	var resp scrollResponse
	if err := s.call(ctx, db.OpPointsScroll, http.MethodPost,
		collectionPath(q.IndexName)+"/points/scroll", req, &resp); err != nil {
		return nil, err
	}

	out := &db.ScrollResult{Entries: make([]db.SearchEntry, 0, len(resp.Result.Points))}
	for _, p := range resp.Result.Points {
		out.Entries = append(out.Entries, db.SearchEntry{
			Key:    pointID(p.ID),
			Fields: stringPayload(p.Payload),
		})
	}
	if next := bytes.TrimSpace(resp.Result.NextPageOffset); len(next) > 0 && string(next) != "null" {
		out.NextCursor = string(next)
	}
	return out, nil
}

// buildFilter renders the must group; should conditions never reach the backend.
func buildFilter(expr filter.Expression) *filterBody {
	must := expr.Must()
	if len(must) == 0 {
		return nil
	}
	body := &filterBody{Must: make([]fieldCondition, 0, len(must))}
	for _, c := range must {
		fc := fieldCondition{Key: c.Key()}
		if c.IsSet() {
			fc.Match.Any = c.Values()
		} else {
			fc.Match.Value = c.Values()[0]
		}
		body.Must = append(body.Must, fc)
	}
	return body
}

func withPayload(fields []string) any {
	if len(fields) == 0 {
		return true
	}
	return fields
}

// pointID renders a numeric or UUID point id as a plain string.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func stringPayload(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			out[k] = fmt.Sprintf("%v", t)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
