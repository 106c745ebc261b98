package search

import (
	"fmt"

	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shopdex/internal/domain/search/tier"
)

// BuildFilter translates query facets into a filter expression.
// Colour and sub-category (alias-expanded) are hard conditions; category and gender are
// soft. Absent facets contribute nothing, so empty facets give the empty filter.
func BuildFilter(f facet.Facets) (filter.Expression, error) {
	var must, should []filter.Condition

	if colour, ok := f.Colour.Get(); ok {
		c, err := filter.NewMatch(catalog.FieldBaseColour, colour)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("colour: %w", err)
		}
		must = append(must, c)
	}
	if sub, ok := f.SubCategory.Get(); ok {
		c, err := filter.NewAnyMatch(catalog.FieldArticleType, catalog.AcceptedSpellings(sub))
		if err != nil {
			return filter.Expression{}, fmt.Errorf("sub-category: %w", err)
		}
		must = append(must, c)
	}
	if category, ok := f.Category.Get(); ok {
		c, err := filter.NewMatch(catalog.FieldMasterCategory, category)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("category: %w", err)
		}
		should = append(should, c)
	}
	if gender, ok := f.Gender.Get(); ok {
		c, err := filter.NewMatch(catalog.FieldGender, gender)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("gender: %w", err)
		}
		should = append(should, c)
	}

	expr, err := filter.NewExpression(must, should)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build filter: %w", err)
	}
	return expr, nil
}

// FilterForTier narrows the full facet filter to what a fallback tier sends.
// The must group never grows from one tier to the next.
func FilterForTier(full filter.Expression, t tier.Tier) filter.Expression {
	switch {
	case t.UsesShould():
		return full
	case t.UsesFilter():
		return full.WithoutShould()
	default:
		return filter.Expression{}
	}
}

// BrowseFilter builds the exact-match filter for filter-only browsing: every provided
// facet is a hard condition and nothing is soft.
func BrowseFilter(articleTypes []string, colour, gender facet.Value) (filter.Expression, error) {
	var must []filter.Condition

	if len(articleTypes) > 0 {
		c, err := filter.NewAnyMatch(catalog.FieldArticleType, articleTypes)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("article type: %w", err)
		}
		must = append(must, c)
	}
	if v, ok := colour.Get(); ok {
		c, err := filter.NewMatch(catalog.FieldBaseColour, v)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("colour: %w", err)
		}
		must = append(must, c)
	}
	if v, ok := gender.Get(); ok {
		c, err := filter.NewMatch(catalog.FieldGender, v)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("gender: %w", err)
		}
		must = append(must, c)
	}

	expr, err := filter.NewExpression(must, nil)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build browse filter: %w", err)
	}
	return expr, nil
}
