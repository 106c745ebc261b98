package qdrant

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/shopdex/internal/db"
)

// IndexExists reports whether the collection exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.doJSON(ctx, http.MethodGet, collectionPath(name), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case statusCode(err) == http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpGetCollection, Err: err}
	}
}

// CreateIndex creates the collection for the vector field. An existing collection yields
// db.ErrIndexExists. Payload indexes are made separately by CreateFieldIndexes.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	vf, ok := def.VectorField()
	if !ok {
		return errors.New("qdrant collection requires a vector field")
	}

	vectors := map[string]any{
		"size":     vf.VectorDim,
		"distance": distanceName(vf.VectorDistance),
	}
	body := map[string]any{"vectors": vectors}
	if vf.VectorM > 0 || vf.VectorEFConstruct > 0 {
		hnsw := map[string]any{}
		if vf.VectorM > 0 {
			hnsw["m"] = vf.VectorM
		}
		if vf.VectorEFConstruct > 0 {
			hnsw["ef_construct"] = vf.VectorEFConstruct
		}
		body["hnsw_config"] = hnsw
	}

	if err := s.doJSON(ctx, http.MethodPut, collectionPath(def.Name), body, nil); err != nil {
		// 409 on recent versions; older ones answer 400 "already exists".
		if statusCode(err) == http.StatusConflict || isAlreadyExists(err) {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpPutCollection, Err: err}
	}
	return nil
}

// CreateFieldIndexes creates a payload index per non-vector field of def on an existing
// collection. Qdrant treats a repeated request as a no-op, so this is safe on every start.
// Every field is attempted; failures are returned per field.
func (s *Store) CreateFieldIndexes(ctx context.Context, def *db.IndexDefinition) []db.FieldIndexError {
	var failed []db.FieldIndexError
	for _, f := range def.Fields {
		schema := payloadSchema(f.Type)
		if schema == "" {
			continue
		}
		req := map[string]any{"field_name": f.Name, "field_schema": schema}
		if err := s.call(ctx, db.OpPayloadIndex, http.MethodPut,
			collectionPath(def.Name)+"/index?wait=true", req, nil); err != nil {
			failed = append(failed, db.FieldIndexError{Field: f.Name, Err: err})
		}
	}
	return failed
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func distanceName(d db.DistanceMetric) string {
	switch d {
	case db.DistanceL2:
		return "Euclid"
	case db.DistanceIP:
		return "Dot"
	default:
		return "Cosine"
	}
}

func payloadSchema(t db.IndexFieldType) string {
	switch t {
	case db.IndexFieldKeyword:
		return "keyword"
	case db.IndexFieldText:
		return "text"
	case db.IndexFieldNumeric:
		return "integer"
	default:
		return ""
	}
}

func isAlreadyExists(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusBadRequest && containsFold(se.msg, "already exists")
}
