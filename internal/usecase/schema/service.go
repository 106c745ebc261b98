// Package schema bootstraps the catalog index at startup.
package schema

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
)

// VectorField is the name of the embedding field in the catalog index.
const VectorField = "vector"

// HNSW build parameters.
const (
	hnswM           = 16
	hnswEFConstruct = 200
)

// IndexManager creates and inspects indexes.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Definition returns the catalog index: a keyword index for every filterable payload
// field, full text on the display name, and a cosine HNSW vector field.
func Definition(name, keyPrefix string, dims int) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).
		Keyword(catalog.IndexedFields...).
		Text(catalog.FieldProductDisplayName).
		Vector(VectorField, dims, db.DistanceCosine, hnswM, hnswEFConstruct)
	if keyPrefix != "" {
		b = b.Prefix(keyPrefix)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("catalog index definition: %w", err)
	}
	return def, nil
}

// Ensure creates the index when it does not exist yet. An index that already exists is success.
// When m also builds secondary field indexes (db.FieldIndexer), they are created on every call,
// new or existing index alike; a field that fails is logged and does not fail Ensure.
func Ensure(ctx context.Context, m IndexManager, def *db.IndexDefinition, logger *zap.Logger) error {
	if err := ensureIndex(ctx, m, def, logger); err != nil {
		return err
	}

	fi, ok := m.(db.FieldIndexer)
	if !ok {
		return nil
	}
	failed := fi.CreateFieldIndexes(ctx, def)
	for _, f := range failed {
		logger.Warn("Field index not created, filtering on it falls back to a full scan",
			zap.String("index", def.Name),
			zap.String("field", f.Field),
			zap.Error(f.Err),
		)
	}
	logger.Info("Field indexes ensured",
		zap.String("index", def.Name),
		zap.Int("failed", len(failed)),
	)
	return nil
}

func ensureIndex(ctx context.Context, m IndexManager, def *db.IndexDefinition, logger *zap.Logger) error {
	exists, err := m.IndexExists(ctx, def.Name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", def.Name, err)
	}
	if exists {
		logger.Info("Catalog index present", zap.String("index", def.Name))
		return nil
	}

	if err := m.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			logger.Info("Catalog index created concurrently", zap.String("index", def.Name))
			return nil
		}
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}

	logger.Info("Catalog index created",
		zap.String("index", def.Name),
		zap.Int("fields", len(def.Fields)),
	)
	return nil
}
