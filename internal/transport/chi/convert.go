package chi

import (
	"github.com/kailas-cloud/shopdex/internal/domain/catalog"
	"github.com/kailas-cloud/shopdex/internal/domain/facet"
	"github.com/kailas-cloud/shopdex/internal/domain/search/page"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

func facetsFromAPI(f *Facets) facet.Facets {
	if f == nil {
		return facet.Facets{}
	}
	return facet.Facets{
		Category:    facet.Parse(derefString(f.Category)),
		SubCategory: facet.Parse(derefString(f.SubCategory)),
		Gender:      facet.Parse(derefString(f.Gender)),
		Colour:      facet.Parse(derefString(f.Colour)),
	}
}

func facetsToAPI(f facet.Facets) Facets {
	return Facets{
		Category:    valuePtr(f.Category),
		SubCategory: valuePtr(f.SubCategory),
		Gender:      valuePtr(f.Gender),
		Colour:      valuePtr(f.Colour),
	}
}

func valuePtr(v facet.Value) *string {
	s, ok := v.Get()
	if !ok {
		return nil
	}
	return &s
}

func productToAPI(it catalog.Item, score *float64) Product {
	return Product{
		ID:             it.ID,
		Name:           it.ProductDisplayName,
		ArticleType:    it.ArticleType,
		BaseColour:     it.BaseColour,
		MasterCategory: it.MasterCategory,
		SubCategory:    it.SubCategory,
		Gender:         it.Gender,
		ImageURL:       it.ImageURL,
		Season:         it.Season,
		Year:           it.Year,
		Usage:          it.Usage,
		Score:          score,
	}
}

func hitsToAPI(hits []result.Hit) []Product {
	out := make([]Product, len(hits))
	for i := range hits {
		score := hits[i].Score()
		out[i] = productToAPI(hits[i].Item(), &score)
	}
	return out
}

func paginationToAPI(info page.Info) *Pagination {
	return &Pagination{
		Offset:            info.Offset,
		Limit:             info.Limit,
		HasMore:           info.HasMore,
		TotalCount:        info.TotalCount,
		TotalIsLowerBound: true,
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
