package filter

import "fmt"

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 32

// Expression is a conjunctive filter: every condition must hold.
// Conditions never overwrite one another; two conditions on the same field
// simply both apply.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(conditions []Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the conjunction members.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Condition is a single filter clause: a tag match, a numeric range, or a
// text contains-any-of clause.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
	anyOf     []string
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// NewTextAny creates a text condition that holds when the field contains any
// of the given terms. OR applies inside the condition only; the condition as
// a whole is ANDed with the rest of the expression.
func NewTextAny(key string, terms []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(terms) == 0 {
		return Condition{}, fmt.Errorf("at least one term is required for key %q", key)
	}
	for _, t := range terms {
		if t == "" {
			return Condition{}, fmt.Errorf("empty term for key %q", key)
		}
	}
	return Condition{key: key, anyOf: terms}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// AnyOf returns the text terms.
func (c Condition) AnyOf() []string { return c.anyOf }

// IsMatch reports whether this is a tag match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a numeric range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// IsTextAny reports whether this is a text contains-any condition.
func (c Condition) IsTextAny() bool { return len(c.anyOf) > 0 }

// Range is a numeric range with inclusive gte/lte boundaries.
type Range struct {
	gte *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range. At least one boundary is
// required; an exact value is expressed as gte == lte.
func NewRangeFilter(gte, lte *float64) (Range, error) {
	if gte == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gte != nil && lte != nil && *gte > *lte {
		return Range{}, fmt.Errorf("range lower bound %g above upper bound %g", *gte, *lte)
	}
	return Range{gte: gte, lte: lte}, nil
}

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }
