package catalog

import "strings"

// subCategoryAliases maps an extracted sub-category to the catalog spellings of articleType
// that should be accepted for it. Keys are lower-case.
var subCategoryAliases = map[string][]string{
	"kurtas":           {"Kurtas", "kurta", "Kurta", "Kurta Sets", "kurtas"},
	"kurta-sets":       {"Kurta Sets", "Kurta Set", "kurta sets"},
	"kurtis":           {"Kurtis", "Kurti", "kurti", "kurtis"},
	"tunics":           {"Tunics", "Tunic", "tunics"},
	"tops":             {"Tops", "Top", "tops"},
	"thermal-tops":     {"Thermal Tops", "Thermal Top"},
	"jeans":            {"Jeans", "jeans"},
	"skirts":           {"Skirts", "Skirt", "skirts"},
	"shorts":           {"Shorts", "shorts"},
	"trousers":         {"Trousers", "Trouser", "trousers"},
	"palazzos":         {"Palazzos", "Palazzo", "palazzos"},
	"jumpsuit":         {"Jumpsuit", "Jumpsuits", "jumpsuit"},
	"co-ords":          {"Co-Ords", "Co-ords", "co-ords"},
	"clothing-set":     {"Clothing Set", "Clothing Sets"},
	"saree":            {"Sarees", "Saree", "saree", "sarees"},
	"lehengas":         {"Lehenga Choli", "Lehengas", "Lehenga", "lehenga"},
	"anarkalis":        {"Anarkalis", "Anarkali", "anarkali"},
	"salwar-kameez":    {"Salwar and Dupatta", "Salwar", "Salwar Kameez", "Churidar"},
	"dupattas":         {"Dupatta", "Dupattas", "dupatta"},
	"blouses":          {"Blouse", "Blouses", "blouse"},
	"ethnic-dresses":   {"Ethnic Dress", "Dresses", "Dress", "dress"},
	"traditional-wear": {"Kurtas", "Kurtis", "Sarees", "Lehenga Choli", "Salwar and Dupatta"},
}

// AcceptedSpellings returns the articleType spellings accepted for a sub-category value.
// Unknown values are returned as the sole accepted spelling. The result is always a fresh slice.
func AcceptedSpellings(subCategory string) []string {
	key := strings.ToLower(strings.TrimSpace(subCategory))
	if spellings, ok := subCategoryAliases[key]; ok {
		out := make([]string, len(spellings))
		copy(out, spellings)
		return out
	}
	return []string{subCategory}
}

// HasAlias reports whether the alias table knows the sub-category value.
func HasAlias(subCategory string) bool {
	_, ok := subCategoryAliases[strings.ToLower(strings.TrimSpace(subCategory))]
	return ok
}
