package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/domain/search/tier"
	"github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/metrics"
)

// Config tunes the retrieval engine.
type Config struct {
	// KeywordBoost multiplies vector-only hits whose articleType matches a query trigger term.
	KeywordBoost float64
	// ShouldBoost multiplies hybrid hits once per satisfied soft condition.
	ShouldBoost float64
	// OverFetch is the candidate multiplier of the vector-only tier.
	OverFetch int
	// CandidatePool is how many candidates a re-scoring tier fetches whatever topK is.
	// Boosts reorder hits, so the pool must not shrink or grow with topK or pages of the
	// same query stop being prefixes of each other. Keep it at least the largest topK served.
	CandidatePool int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{KeywordBoost: 1.5, ShouldBoost: 1.1, OverFetch: 2, CandidatePool: request.MaxTopK}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.KeywordBoost <= 0 {
		c.KeywordBoost = d.KeywordBoost
	}
	if c.ShouldBoost <= 0 {
		c.ShouldBoost = d.ShouldBoost
	}
	if c.OverFetch < 1 {
		c.OverFetch = d.OverFetch
	}
	if c.CandidatePool <= 0 {
		c.CandidatePool = d.CandidatePool
	}
	return c
}

// Service is the hybrid retrieval engine: one embedding, then a strict-to-loose ladder
// of nearest-neighbour searches until a tier yields hits.
type Service struct {
	repo  Repository
	embed Embedder
	cfg   Config
}

// New creates a retrieval engine.
func New(repo Repository, embed Embedder, cfg Config) *Service {
	return &Service{repo: repo, embed: embed, cfg: cfg.normalize()}
}

// Search returns at most topK hits for the query, ranked by descending score then id and
// unique by id. It never fails: embedding and index errors are logged and degrade to
// fewer or no hits. A non-positive topK yields no hits.
func (s *Service) Search(ctx context.Context, query string, facets facet.Facets, topK int) []result.Hit {
	hits := s.search(ctx, query, facets, topK)
	metrics.SearchResultsReturned.Observe(float64(len(hits)))
	return hits
}

func (s *Service) search(ctx context.Context, query string, facets facet.Facets, topK int) []result.Hit {
	if topK <= 0 {
		return []result.Hit{}
	}
	log := logger.FromContext(ctx)

	emb, err := s.embed.Embed(ctx, query)
	if err != nil || len(emb.Embedding) == 0 {
		log.Warn("Query embedding failed, returning no results", zap.Error(err))
		return []result.Hit{}
	}

	full, err := BuildFilter(facets)
	if err != nil {
		// Filtered tiers are unusable; the vector-only tier still runs.
		log.Warn("Filter build failed", zap.Error(err))
	}
	if sub, ok := facets.SubCategory.Get(); ok && !catalog.HasAlias(sub) {
		log.Debug("Sub-category has no alias entry, matching it literally", zap.String("sub_category", sub))
	}

	seen := make(map[string]struct{})
	for _, t := range tier.Ladder {
		if t.UsesFilter() && err != nil {
			metrics.SearchTierTotal.WithLabelValues(t.String(), "error").Inc()
			continue
		}

		hits, tierErr := s.runTier(ctx, t, emb.Embedding, query, FilterForTier(full, t), topK, seen)
		if tierErr != nil {
			log.Warn("Search tier failed",
				zap.Stringer("tier", t),
				zap.Error(tierErr),
			)
			metrics.SearchTierTotal.WithLabelValues(t.String(), "error").Inc()
			continue
		}

		if len(hits) == 0 {
			log.Debug("Search tier empty", zap.Stringer("tier", t))
			metrics.SearchTierTotal.WithLabelValues(t.String(), "empty").Inc()
			continue
		}

		metrics.SearchTierTotal.WithLabelValues(t.String(), "hit").Inc()
		log.Debug("Search tier produced hits",
			zap.Stringer("tier", t),
			zap.Int("hits", len(hits)),
		)
		return hits
	}
	return []result.Hit{}
}

// runTier executes one ladder level and returns its ranked, truncated hits.
// Ids in seen are never returned again; ids kept here are added to it.
func (s *Service) runTier(
	ctx context.Context, t tier.Tier, vector []float32, query string,
	filters filter.Expression, topK int, seen map[string]struct{},
) ([]result.Hit, error) {
	limit := s.fetchLimit(t, filters, topK)

	hits, err := s.repo.Nearest(ctx, vector, filters, limit)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors already carry domain context
	}

	hits, dropped := keepMatching(hits, filters)
	if dropped > 0 {
		logger.FromContext(ctx).Warn("Index returned hits violating the filter",
			zap.Stringer("tier", t),
			zap.Int("dropped", dropped),
		)
	}
	hits = dedup(hits, seen)

	switch t {
	case tier.Hybrid:
		applyShouldBoost(hits, filters.Should(), s.cfg.ShouldBoost)
	case tier.VectorOnly:
		if n := applyKeywordBoost(hits, query, s.cfg.KeywordBoost); n > 0 {
			metrics.KeywordBoostsTotal.Add(float64(n))
		}
	}

	return rank(hits, topK), nil
}

// fetchLimit sizes the backend request of a tier. Tiers that re-score hits fetch a fixed
// pool; the essential tier keeps backend order and fetches exactly topK.
func (s *Service) fetchLimit(t tier.Tier, filters filter.Expression, topK int) int {
	pool := max(topK, s.cfg.CandidatePool)
	switch {
	case t == tier.Hybrid && len(filters.Should()) > 0:
		return pool
	case t == tier.VectorOnly:
		return pool * s.cfg.OverFetch
	default:
		return topK
	}
}
