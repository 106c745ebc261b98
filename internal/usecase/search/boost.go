package search

import (
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// keywordTriggers maps an ethnic-wear term found in the query to the articleType
// fragments it vouches for. All entries are lower-case.
var keywordTriggers = map[string][]string{
	"saree":   {"saree"},
	"kurta":   {"kurta"},
	"kurti":   {"kurti"},
	"lehenga": {"lehenga"},
	"dress":   {"dress"},
	"ethnic":  {"kurta", "kurti", "saree", "lehenga", "salwar", "anarkali", "dupatta", "ethnic"},
}

// keywordMatch reports whether the query mentions a trigger term whose related
// fragment appears in articleType.
func keywordMatch(query, articleType string) bool {
	q := strings.ToLower(query)
	at := strings.ToLower(articleType)
	if at == "" {
		return false
	}
	for term, related := range keywordTriggers {
		if !strings.Contains(q, term) {
			continue
		}
		for _, frag := range related {
			if strings.Contains(at, frag) {
				return true
			}
		}
	}
	return false
}

// applyKeywordBoost multiplies the score of every keyword-matching hit by factor, once.
// It returns the number of boosted hits.
func applyKeywordBoost(hits []result.Hit, query string, factor float64) int {
	if factor == 1 {
		return 0
	}
	boosted := 0
	for i := range hits {
		if keywordMatch(query, hits[i].Item().ArticleType) {
			hits[i] = hits[i].WithScore(hits[i].Score() * factor)
			boosted++
		}
	}
	return boosted
}

// applyShouldBoost multiplies a hit's score by factor once per satisfied should condition.
// Should conditions never remove a hit.
func applyShouldBoost(hits []result.Hit, should []filter.Condition, factor float64) {
	if len(should) == 0 || factor == 1 {
		return
	}
	for i := range hits {
		payload := hits[i].Item().Payload()
		score := hits[i].Score()
		for _, c := range should {
			if c.Matches(payload) {
				score *= factor
			}
		}
		hits[i] = hits[i].WithScore(score)
	}
}
