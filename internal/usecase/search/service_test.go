package search

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/logger"
)

var errIndexDown = fmt.Errorf("nearest: %w", domain.ErrIndexUnavailable)

func blueKurtiFacets() facet.Facets {
	return facet.Facets{
		Colour:      facet.Some("Blue"),
		SubCategory: facet.Some("kurtis"),
		Gender:      facet.Some("Women"),
		Category:    facet.None(),
	}
}

func assertRanked(t *testing.T, hits []result.Hit) {
	t.Helper()
	seen := make(map[string]bool)
	for i := range hits {
		if seen[hits[i].ID()] {
			t.Errorf("duplicate id %q", hits[i].ID())
		}
		seen[hits[i].ID()] = true
		if i > 0 && hits[i].Score() > hits[i-1].Score() {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, hits[i].Score(), hits[i-1].Score())
		}
	}
}

func TestSearch_BlueKurtiForWomen(t *testing.T) {
	var tier1 []result.Hit
	for i := range 7 {
		tier1 = append(tier1, hit(fmt.Sprintf("p%d", i), "Kurtis", "Blue", "Women", 0.9-float64(i)*0.05))
	}
	repo := &mockRepo{results: [][]result.Hit{tier1}}
	svc := New(repo, okEmbedder(), DefaultConfig())

	hits := svc.Search(context.Background(), "blue kurti for women", blueKurtiFacets(), 5)

	if len(hits) != 5 {
		t.Fatalf("expected 5 hits, got %d", len(hits))
	}
	for i := range hits {
		if hits[i].Item().BaseColour != "Blue" {
			t.Errorf("hit %s colour = %q", hits[i].ID(), hits[i].Item().BaseColour)
		}
	}
	assertRanked(t, hits)

	if len(repo.calls) != 1 {
		t.Fatalf("expected only the hybrid tier to run, got %d calls", len(repo.calls))
	}
	call := repo.calls[0]
	if call.limit != DefaultConfig().CandidatePool {
		t.Errorf("hybrid limit = %d, want the candidate pool %d", call.limit, DefaultConfig().CandidatePool)
	}
	at := conditionFor(t, call.filters.Must(), catalog.FieldArticleType)
	if want := []string{"Kurtis", "Kurti", "kurti", "kurtis"}; !reflect.DeepEqual(at.Values(), want) {
		t.Errorf("articleType values = %v, want %v", at.Values(), want)
	}
	conditionFor(t, call.filters.Must(), catalog.FieldBaseColour)
	gender := conditionFor(t, call.filters.Should(), catalog.FieldGender)
	if !reflect.DeepEqual(gender.Values(), []string{"Women"}) {
		t.Errorf("gender values = %v", gender.Values())
	}
	if len(call.filters.Should()) != 1 {
		t.Errorf("absent category must not add a should condition: %v", call.filters.Should())
	}
}

func TestSearch_FallsBackToVectorOnlyWithKeywordBoost(t *testing.T) {
	tier3 := []result.Hit{
		hit("a", "Kurta Sets", "Red", "Women", 0.5),
		hit("b", "Jeans", "Blue", "Men", 0.6),
		hit("c", "Kurtas", "White", "Men", 0.3),
	}
	repo := &mockRepo{results: [][]result.Hit{nil, nil, tier3}}
	svc := New(repo, okEmbedder(), DefaultConfig())

	hits := svc.Search(context.Background(), "white kurta", facet.Facets{Colour: facet.Some("Mauve")}, 5)

	if len(repo.calls) != 3 {
		t.Fatalf("expected three tiers, got %d calls", len(repo.calls))
	}
	if !repo.calls[2].filters.IsEmpty() {
		t.Error("vector-only tier must run without a filter")
	}
	if want := 2 * DefaultConfig().CandidatePool; repo.calls[2].limit != want {
		t.Errorf("vector-only limit = %d, want %d", repo.calls[2].limit, want)
	}

	scores := make(map[string]float64)
	for i := range hits {
		scores[hits[i].ID()] = hits[i].Score()
	}
	if math.Abs(scores["a"]-0.5*1.5) > 1e-9 {
		t.Errorf("kurta hit a score = %v, want %v", scores["a"], 0.5*1.5)
	}
	if math.Abs(scores["c"]-0.3*1.5) > 1e-9 {
		t.Errorf("kurta hit c score = %v, want %v", scores["c"], 0.3*1.5)
	}
	if scores["b"] != 0.6 {
		t.Errorf("non-matching hit must keep its score, got %v", scores["b"])
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(hitIDs(hits), want) {
		t.Errorf("order = %v, want %v", hitIDs(hits), want)
	}
}

func TestSearch_KeywordBoostIsTunable(t *testing.T) {
	repo := &mockRepo{results: [][]result.Hit{nil, nil, {hit("a", "Sarees", "Red", "Women", 0.5)}}}
	svc := New(repo, okEmbedder(), Config{KeywordBoost: 2})

	hits := svc.Search(context.Background(), "red saree", facet.Facets{}, 3)
	if len(hits) != 1 || hits[0].Score() != 1.0 {
		t.Fatalf("expected boosted score 1.0, got %+v", hits)
	}
}

func TestSearch_EssentialTierAfterHybridFailure(t *testing.T) {
	tier2 := []result.Hit{hit("x", "Kurtis", "Blue", "Women", 0.7)}
	repo := &mockRepo{
		results: [][]result.Hit{nil, tier2},
		errs:    []error{errIndexDown},
	}
	svc := New(repo, okEmbedder(), DefaultConfig())

	hits := svc.Search(context.Background(), "blue kurti", blueKurtiFacets(), 5)

	if !reflect.DeepEqual(hitIDs(hits), []string{"x"}) {
		t.Fatalf("hits = %v", hitIDs(hits))
	}
	if len(repo.calls[1].filters.Should()) != 0 {
		t.Error("essential tier must drop soft conditions")
	}
	if len(repo.calls[1].filters.Must()) != 2 {
		t.Errorf("essential tier must keep colour and sub-category, got %v", repo.calls[1].filters.Must())
	}
}

func TestSearch_EmbeddingFailureGivesEmptyResult(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := New(repo, emb, DefaultConfig())

	hits := svc.Search(context.Background(), "anything", blueKurtiFacets(), 5)

	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", hits)
	}
	if len(repo.calls) != 0 {
		t.Errorf("index must not be queried without a vector, got %d calls", len(repo.calls))
	}
}

func TestSearch_TotalIndexOutage(t *testing.T) {
	repo := &mockRepo{errs: []error{errIndexDown, errIndexDown, errIndexDown}}
	svc := New(repo, okEmbedder(), DefaultConfig())

	hits := svc.Search(context.Background(), "blue kurti", blueKurtiFacets(), 5)

	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hitIDs(hits))
	}
	if len(repo.calls) != 3 {
		t.Errorf("every tier must be attempted, got %d calls", len(repo.calls))
	}
}

func TestSearch_NothingMatchesAnywhere(t *testing.T) {
	repo := &mockRepo{}
	emb := okEmbedder()
	svc := New(repo, emb, DefaultConfig())

	hits := svc.Search(context.Background(), "something obscure with zero catalog matches", facet.Facets{}, 10)

	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty result, got %v", hits)
	}
	if emb.calls != 1 {
		t.Errorf("query must be embedded once, got %d", emb.calls)
	}
}

func TestSearch_NonPositiveTopK(t *testing.T) {
	for _, k := range []int{0, -3} {
		repo := &mockRepo{}
		emb := okEmbedder()
		hits := New(repo, emb, DefaultConfig()).Search(context.Background(), "kurta", facet.Facets{}, k)
		if len(hits) != 0 {
			t.Errorf("topK=%d: expected no hits", k)
		}
		if emb.calls != 0 || len(repo.calls) != 0 {
			t.Errorf("topK=%d: no collaborator may be called", k)
		}
	}
}

func TestSearch_EmptyQueryIsEmbedded(t *testing.T) {
	repo := &mockRepo{results: [][]result.Hit{{hit("a", "Tops", "Red", "Women", 0.3)}}}
	emb := okEmbedder()

	hits := New(repo, emb, DefaultConfig()).Search(context.Background(), "", facet.Facets{}, 3)

	if emb.calls != 1 || len(hits) != 1 {
		t.Errorf("empty query must be searched normally: calls=%d hits=%d", emb.calls, len(hits))
	}
}

func TestSearch_DedupAndStableOrder(t *testing.T) {
	tier1 := []result.Hit{
		hit("b", "Kurtis", "Blue", "Men", 0.8),
		hit("a", "Kurtis", "Blue", "Men", 0.8),
		hit("b", "Kurtis", "Blue", "Men", 0.1),
		hit("c", "Kurtis", "Blue", "Men", 0.9),
	}
	repo := &mockRepo{results: [][]result.Hit{tier1}}
	f := facet.Facets{Colour: facet.Some("Blue"), SubCategory: facet.Some("kurtis")}

	hits := New(repo, okEmbedder(), DefaultConfig()).Search(context.Background(), "kurti", f, 10)

	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(hitIDs(hits), want) {
		t.Fatalf("order = %v, want %v", hitIDs(hits), want)
	}
	if hits[2].Score() != 0.8 {
		t.Errorf("first occurrence of b must win, score = %v", hits[2].Score())
	}
	assertRanked(t, hits)
}

func TestSearch_ShouldBoostReordersWithoutExcluding(t *testing.T) {
	tier1 := []result.Hit{
		hit("men", "Kurtis", "Blue", "Men", 0.80),
		hit("women", "Kurtis", "Blue", "Women", 0.75),
	}
	repo := &mockRepo{results: [][]result.Hit{tier1}}

	hits := New(repo, okEmbedder(), DefaultConfig()).Search(context.Background(), "blue kurti", blueKurtiFacets(), 5)

	if want := []string{"women", "men"}; !reflect.DeepEqual(hitIDs(hits), want) {
		t.Fatalf("order = %v, want %v", hitIDs(hits), want)
	}
	if math.Abs(hits[0].Score()-0.75*1.1) > 1e-9 {
		t.Errorf("boosted score = %v", hits[0].Score())
	}
	if hits[1].Score() != 0.80 {
		t.Errorf("unmatched should condition must not change the score, got %v", hits[1].Score())
	}
}

func TestSearch_DropsHitsViolatingMust(t *testing.T) {
	tier1 := []result.Hit{
		hit("ok", "Kurtis", "Blue", "Women", 0.5),
		hit("bad", "Kurtis", "Red", "Women", 0.9),
	}
	repo := &mockRepo{results: [][]result.Hit{tier1}}

	hits := New(repo, okEmbedder(), DefaultConfig()).Search(context.Background(), "blue kurti", blueKurtiFacets(), 5)

	if !reflect.DeepEqual(hitIDs(hits), []string{"ok"}) {
		t.Fatalf("hits = %v", hitIDs(hits))
	}
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	var many []result.Hit
	for i := range 30 {
		many = append(many, hit(fmt.Sprintf("id%02d", i), "Tops", "Red", "Women", float64(i)/100))
	}
	repo := &mockRepo{results: [][]result.Hit{nil, nil, many}}

	hits := New(repo, okEmbedder(), DefaultConfig()).Search(context.Background(), "top", facet.Facets{}, 4)

	if want := []string{"id29", "id28", "id27", "id26"}; !reflect.DeepEqual(hitIDs(hits), want) {
		t.Errorf("hits = %v, want %v", hitIDs(hits), want)
	}
}

func TestSearch_RankIsPrefixConsistent(t *testing.T) {
	base := []result.Hit{
		hit("d", "Tops", "Red", "Women", 0.5),
		hit("b", "Tops", "Red", "Women", 0.5),
		hit("a", "Tops", "Red", "Women", 0.7),
		hit("c", "Tops", "Red", "Women", 0.5),
	}
	small := New(&mockRepo{results: [][]result.Hit{base}}, okEmbedder(), DefaultConfig()).
		Search(context.Background(), "top", facet.Facets{}, 2)
	large := New(&mockRepo{results: [][]result.Hit{base}}, okEmbedder(), DefaultConfig()).
		Search(context.Background(), "top", facet.Facets{}, 4)

	if !reflect.DeepEqual(hitIDs(small), hitIDs(large)[:2]) {
		t.Errorf("small %v is not a prefix of large %v", hitIDs(small), hitIDs(large))
	}
}

func TestSearch_FetchLimitIndependentOfTopK(t *testing.T) {
	cfg := Config{CandidatePool: 50}
	withShould := blueKurtiFacets()
	noShould := facet.Facets{Colour: facet.Some("Blue")}

	tests := []struct {
		name   string
		facets facet.Facets
		tiers  int
		want   func(topK int) int
	}{
		{"hybrid with should", withShould, 1, func(int) int { return 50 }},
		{"hybrid without should", noShould, 1, func(k int) int { return k }},
		{"essential", withShould, 2, func(k int) int { return k }},
		{"vector-only", withShould, 3, func(int) int { return 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, topK := range []int{3, 7, 20} {
				results := make([][]result.Hit, tt.tiers)
				results[tt.tiers-1] = []result.Hit{hit("a", "Kurtis", "Blue", "Women", 0.5)}
				repo := &mockRepo{results: results}
				New(repo, okEmbedder(), cfg).Search(context.Background(), "kurti", tt.facets, topK)

				if len(repo.calls) != tt.tiers {
					t.Fatalf("calls = %d, want %d", len(repo.calls), tt.tiers)
				}
				if got := repo.calls[tt.tiers-1].limit; got != tt.want(topK) {
					t.Errorf("topK %d: limit = %d, want %d", topK, got, tt.want(topK))
				}
			}
		})
	}
}

func TestKeywordMatch(t *testing.T) {
	tests := []struct {
		query, articleType string
		want               bool
	}{
		{"white kurta", "Kurtas", true},
		{"kurta", "Kurta Sets", true},
		{"kurti for office", "Kurtis", true},
		{"ethnic wear", "Lehenga Choli", true},
		{"red saree", "Sarees", true},
		{"kurta", "Jeans", false},
		{"jeans", "Kurtas", false},
		{"kurta", "", false},
	}
	for _, tt := range tests {
		if got := keywordMatch(tt.query, tt.articleType); got != tt.want {
			t.Errorf("keywordMatch(%q, %q) = %v, want %v", tt.query, tt.articleType, got, tt.want)
		}
	}
}

func TestSearch_CanceledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := &mockRepo{errs: []error{context.Canceled, context.Canceled, context.Canceled}}
	hits := New(repo, okEmbedder(), DefaultConfig()).Search(ctx, "kurta", facet.Facets{}, 3)
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hitIDs(hits))
	}
}

func TestSearch_UnknownSubCategoryLogged(t *testing.T) {
	tests := []struct {
		sub    string
		logged bool
	}{
		{"kurtis", false},
		{"Ponchos", true},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			ctx := logger.ContextWithLogger(context.Background(), zap.New(core))
			repo := &mockRepo{results: [][]result.Hit{{hit("1", tt.sub, "Blue", "Women", 0.9)}}}
			svc := New(repo, okEmbedder(), DefaultConfig())

			hits := svc.Search(ctx, "blue top", facet.Facets{Colour: facet.Some("Blue"), SubCategory: facet.Some(tt.sub)}, 5)
			if len(hits) != 1 {
				t.Fatalf("hits = %v", hitIDs(hits))
			}
			entries := logs.FilterMessage("Sub-category has no alias entry, matching it literally").All()
			if got := len(entries) == 1; got != tt.logged {
				t.Errorf("alias miss logged = %v, want %v", got, tt.logged)
			}
		})
	}
}
