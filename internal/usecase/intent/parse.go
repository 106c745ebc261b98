package intent

import (
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain/facet"
)

// Response line keys.
const (
	keyCategory    = "category"
	keySubCategory = "individual_category"
	keyGender      = "category_by_gender"
	keyColour      = "colour"
	keyMoveOn      = "move_on"
	keyFollowUp    = "follow_up_message"
)

// otherValue is what the model answers when no listed option fits.
const otherValue = "Other"

// Intent is the structured shopping intent extracted from one message.
type Intent struct {
	Facets   facet.Facets
	MoveOn   bool
	FollowUp string
}

// Parse reads a `Key: "value"` response. Keys are case-insensitive, unknown keys are
// ignored, quotes are stripped. "NA" and "Other" become absent facets.
func Parse(content string) Intent {
	in := Intent{FollowUp: defaultFollowUp}

	for line := range strings.Lines(content) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch key {
		case keyCategory:
			in.Facets.Category = facetValue(value)
		case keySubCategory:
			in.Facets.SubCategory = facetValue(value)
		case keyGender:
			in.Facets.Gender = facetValue(value)
		case keyColour, "color":
			in.Facets.Colour = facetValue(value)
		case keyMoveOn:
			in.MoveOn = strings.EqualFold(value, "true")
		case keyFollowUp:
			if value != "" {
				in.FollowUp = value
			}
		}
	}
	return in
}

func facetValue(s string) facet.Value {
	if strings.EqualFold(strings.TrimSpace(s), otherValue) {
		return facet.None()
	}
	return facet.Parse(s)
}
