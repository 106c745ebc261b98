package catalog

// Payload field names as stored in the vector index.
const (
	FieldID                 = "id"
	FieldArticleType        = "articleType"
	FieldBaseColour         = "baseColour"
	FieldMasterCategory     = "masterCategory"
	FieldSubCategory        = "subCategory"
	FieldGender             = "gender"
	FieldProductDisplayName = "productDisplayName"
	FieldImageURL           = "image_url"
	FieldSeason             = "season"
	FieldYear               = "year"
	FieldUsage              = "usage"
)

// IndexedFields are the payload fields that carry a keyword index for exact filtering.
var IndexedFields = []string{
	FieldGender,
	FieldMasterCategory,
	FieldSubCategory,
	FieldArticleType,
	FieldBaseColour,
	FieldSeason,
	FieldYear,
	FieldUsage,
}

// Item is a catalog product. The embedding vector is never part of it.
type Item struct {
	ID                 string
	ArticleType        string
	BaseColour         string
	MasterCategory     string
	SubCategory        string
	Gender             string
	ProductDisplayName string
	ImageURL           string
	Season             string
	Year               string
	Usage              string
}

// ItemFromPayload builds an item from index payload fields. Missing fields stay empty.
func ItemFromPayload(id string, payload map[string]string) Item {
	return Item{
		ID:                 id,
		ArticleType:        payload[FieldArticleType],
		BaseColour:         payload[FieldBaseColour],
		MasterCategory:     payload[FieldMasterCategory],
		SubCategory:        payload[FieldSubCategory],
		Gender:             payload[FieldGender],
		ProductDisplayName: payload[FieldProductDisplayName],
		ImageURL:           payload[FieldImageURL],
		Season:             payload[FieldSeason],
		Year:               payload[FieldYear],
		Usage:              payload[FieldUsage],
	}
}

// Payload returns the item fields keyed by payload name, skipping empty ones.
func (i Item) Payload() map[string]string {
	m := make(map[string]string, 11)
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put(FieldArticleType, i.ArticleType)
	put(FieldBaseColour, i.BaseColour)
	put(FieldMasterCategory, i.MasterCategory)
	put(FieldSubCategory, i.SubCategory)
	put(FieldGender, i.Gender)
	put(FieldProductDisplayName, i.ProductDisplayName)
	put(FieldImageURL, i.ImageURL)
	put(FieldSeason, i.Season)
	put(FieldYear, i.Year)
	put(FieldUsage, i.Usage)
	return m
}
