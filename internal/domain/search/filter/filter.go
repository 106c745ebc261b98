package filter

import (
	"fmt"
	"slices"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter with must/should boolean semantics.
// Must conditions are hard requirements; should conditions are soft and never
// exclude a point on their own.
type Expression struct {
	must   []Condition
	should []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// IsEmpty reports whether the expression has no conditions (matches everything).
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0
}

// WithoutShould returns a copy carrying only the must group.
func (e Expression) WithoutShould() Expression {
	return Expression{must: e.must}
}

// Matches reports whether the payload satisfies every must condition.
func (e Expression) Matches(payload map[string]string) bool {
	for _, c := range e.must {
		if !c.Matches(payload) {
			return false
		}
	}
	return true
}

// Condition is a single filter clause: an exact match on one value or a set match
// against a list of accepted values.
type Condition struct {
	key    string
	values []string
}

// NewMatch creates an exact match condition.
func NewMatch(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, values: []string{value}}, nil
}

// NewAnyMatch creates a set match condition: the field must equal one of values.
// Empty and duplicate values are dropped; order of first occurrence is kept.
func NewAnyMatch(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	accepted := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || slices.Contains(accepted, v) {
			continue
		}
		accepted = append(accepted, v)
	}
	if len(accepted) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	return Condition{key: key, values: accepted}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Values returns a copy of the accepted values.
func (c Condition) Values() []string { return slices.Clone(c.values) }

// IsSet reports whether the condition accepts more than one value.
func (c Condition) IsSet() bool { return len(c.values) > 1 }

// Matches reports whether payload[key] equals one of the accepted values.
func (c Condition) Matches(payload map[string]string) bool {
	v, ok := payload[c.key]
	if !ok {
		return false
	}
	return slices.Contains(c.values, v)
}
