// Package facet holds the structured shopping intent derived from a user message.
package facet

import "strings"

// notSpecified is the textual sentinel used by upstream extractors for a missing value.
const notSpecified = "NA"

// Value is an optional facet value. The zero Value is absent.
type Value struct {
	value string
	set   bool
}

// Some returns a present value. An empty string still yields an absent value.
func Some(v string) Value {
	if v == "" {
		return Value{}
	}
	return Value{value: v, set: true}
}

// None returns an absent value.
func None() Value { return Value{} }

// Parse converts boundary text into a Value: "", whitespace and "NA" are absent,
// anything else is kept verbatim after trimming.
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, notSpecified) {
		return Value{}
	}
	return Value{value: s, set: true}
}

// Get returns the value and whether it is present.
func (v Value) Get() (string, bool) { return v.value, v.set }

// IsSet reports whether the value is present.
func (v Value) IsSet() bool { return v.set }

// String returns the value, or "" when absent.
func (v Value) String() string { return v.value }

// Facets is an immutable set of query facets.
type Facets struct {
	Category    Value
	SubCategory Value
	Gender      Value
	Colour      Value
}

// IsEmpty reports whether no facet carries a value.
func (f Facets) IsEmpty() bool {
	return !f.Category.IsSet() && !f.SubCategory.IsSet() && !f.Gender.IsSet() && !f.Colour.IsSet()
}
