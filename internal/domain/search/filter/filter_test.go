package filter

import (
	"strings"
	"testing"
)

func TestNewMatch(t *testing.T) {
	cond, err := NewMatch("city", "Austin")
	if err != nil {
		t.Fatalf("NewMatch() error = %v", err)
	}
	if !cond.IsMatch() || cond.IsRange() || cond.IsTextAny() {
		t.Error("condition should be a match and nothing else")
	}
	if cond.Key() != "city" || cond.Match() != "Austin" {
		t.Errorf("condition = %q=%q", cond.Key(), cond.Match())
	}
}

func TestNewMatch_Validation(t *testing.T) {
	if _, err := NewMatch("", "Austin"); err == nil {
		t.Error("empty key should fail")
	}
	if _, err := NewMatch("city", ""); err == nil {
		t.Error("empty match value should fail")
	}
}

func TestNewRangeFilter(t *testing.T) {
	gte, lte := 3.5, 5.0

	r, err := NewRangeFilter(&gte, &lte)
	if err != nil {
		t.Fatalf("NewRangeFilter() error = %v", err)
	}
	if *r.GTE() != 3.5 || *r.LTE() != 5.0 {
		t.Errorf("range = [%v %v]", r.GTE(), r.LTE())
	}
}

func TestNewRangeFilter_OpenEnded(t *testing.T) {
	gte := 4.5

	r, err := NewRangeFilter(&gte, nil)
	if err != nil {
		t.Fatalf("NewRangeFilter() error = %v", err)
	}
	if r.LTE() != nil {
		t.Error("upper bound should stay open")
	}
}

func TestNewRangeFilter_Validation(t *testing.T) {
	if _, err := NewRangeFilter(nil, nil); err == nil {
		t.Error("a range needs at least one boundary")
	}

	gte, lte := 5.0, 3.0
	if _, err := NewRangeFilter(&gte, &lte); err == nil {
		t.Error("inverted bounds should fail")
	}
}

func TestNewRangeFilter_ExactValue(t *testing.T) {
	v := 4.0
	r, err := NewRangeFilter(&v, &v)
	if err != nil {
		t.Fatalf("NewRangeFilter() error = %v", err)
	}
	if *r.GTE() != *r.LTE() {
		t.Error("exact value should pin both bounds")
	}
}

func TestNewTextAny(t *testing.T) {
	cond, err := NewTextAny("reviews", []string{"matcha", "taro"})
	if err != nil {
		t.Fatalf("NewTextAny() error = %v", err)
	}
	if !cond.IsTextAny() || cond.IsMatch() || cond.IsRange() {
		t.Error("condition should be text-any and nothing else")
	}
	if strings.Join(cond.AnyOf(), ",") != "matcha,taro" {
		t.Errorf("terms = %v", cond.AnyOf())
	}
}

func TestNewTextAny_Validation(t *testing.T) {
	if _, err := NewTextAny("reviews", nil); err == nil {
		t.Error("no terms should fail")
	}
	if _, err := NewTextAny("reviews", []string{"matcha", ""}); err == nil {
		t.Error("empty term should fail")
	}
	if _, err := NewTextAny("", []string{"matcha"}); err == nil {
		t.Error("empty key should fail")
	}
}

func TestNewExpression_ConditionLimit(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	for i := range conds {
		c, err := NewMatch("city", "Austin")
		if err != nil {
			t.Fatal(err)
		}
		conds[i] = c
	}

	if _, err := NewExpression(conds); err == nil {
		t.Errorf("more than %d conditions should fail", MaxConditions)
	}
	if _, err := NewExpression(conds[:MaxConditions]); err != nil {
		t.Errorf("NewExpression() at the limit error = %v", err)
	}
}

func TestExpression_Empty(t *testing.T) {
	expr, err := NewExpression(nil)
	if err != nil {
		t.Fatalf("NewExpression(nil) error = %v", err)
	}
	if !expr.IsEmpty() {
		t.Error("nil conditions should be an empty expression")
	}
}
