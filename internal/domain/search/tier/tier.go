package tier

// Tier is one attempt level in the fallback ladder, strictest first.
type Tier int

// Fallback ladder.
const (
	// Hybrid keeps colour and sub-category as hard filters and boosts category and gender.
	Hybrid Tier = iota + 1
	// Essential keeps colour and sub-category as hard filters only.
	Essential
	// VectorOnly runs an unfiltered search with keyword re-biasing.
	VectorOnly
)

// Ladder lists all tiers in execution order.
var Ladder = []Tier{Hybrid, Essential, VectorOnly}

// String returns the metric/log label of the tier.
func (t Tier) String() string {
	switch t {
	case Hybrid:
		return "hybrid"
	case Essential:
		return "essential"
	case VectorOnly:
		return "vector_only"
	default:
		return "unknown"
	}
}

// UsesFilter reports whether the tier sends a structured filter to the index.
func (t Tier) UsesFilter() bool {
	return t == Hybrid || t == Essential
}

// UsesShould reports whether the tier carries soft category/gender conditions.
func (t Tier) UsesShould() bool {
	return t == Hybrid
}
