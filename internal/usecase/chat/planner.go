package chat

import (
	"fmt"
	"time"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/domain/query"
	"github.com/cowlitea/cowlitea/internal/domain/search/filter"
	"github.com/cowlitea/cowlitea/internal/repository/catalog"
)

// Planner turns an extracted FilterSet into a search filter expression.
// Every recognized constraint becomes one conjunction member; constraints
// never overwrite each other.
type Planner struct {
	now func() time.Time
}

// NewPlanner creates a planner using the given clock. A nil clock falls back
// to time.Now.
func NewPlanner(now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{now: now}
}

// Plan maps the filter set onto index fields.
func (p *Planner) Plan(fs query.FilterSet) (filter.Expression, error) {
	var conds []filter.Condition

	add := func(c filter.Condition, err error) error {
		if err != nil {
			return err
		}
		conds = append(conds, c)
		return nil
	}

	if rng, err := ratingRange(fs); err != nil {
		return filter.Expression{}, err
	} else if rng != nil {
		if err := add(filter.NewRange(catalog.FieldStars, *rng)); err != nil {
			return filter.Expression{}, err
		}
	}

	if fs.Name != nil {
		if err := add(filter.NewMatch(catalog.FieldName, *fs.Name)); err != nil {
			return filter.Expression{}, err
		}
	}
	if fs.Subject != nil {
		if err := add(filter.NewMatch(catalog.FieldSubject, *fs.Subject)); err != nil {
			return filter.Expression{}, err
		}
	}

	// The free-form location cue and the closed city vocabulary both target
	// the city tag; a duplicate value collapses into one condition.
	if city := cityValue(fs); city != "" {
		if err := add(filter.NewMatch(catalog.FieldCity, city)); err != nil {
			return filter.Expression{}, err
		}
	}
	if fs.State != nil {
		if err := add(filter.NewMatch(catalog.FieldState, *fs.State)); err != nil {
			return filter.Expression{}, err
		}
	}
	if fs.PostalCode != nil {
		if err := add(filter.NewMatch(catalog.FieldPostalCode, *fs.PostalCode)); err != nil {
			return filter.Expression{}, err
		}
	}

	if len(fs.ReviewKeywords) > 0 {
		if err := add(filter.NewTextAny(catalog.FieldReviews, fs.ReviewKeywords)); err != nil {
			return filter.Expression{}, err
		}
	}

	if day := dayValue(fs, p.now); day != "" {
		if err := add(filter.NewMatch(catalog.FieldOpenDays, day)); err != nil {
			return filter.Expression{}, err
		}
	}

	expr, err := filter.NewExpression(conds)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build filter expression: %w", err)
	}
	return expr, nil
}

// ratingRange resolves the mutually exclusive rating fields into one range.
func ratingRange(fs query.FilterSet) (*filter.Range, error) {
	switch {
	case fs.ExactRating != nil:
		rng, err := filter.NewRangeFilter(fs.ExactRating, fs.ExactRating)
		if err != nil {
			return nil, err
		}
		return &rng, nil
	case fs.MinRating != nil || fs.MaxRating != nil:
		rng, err := filter.NewRangeFilter(fs.MinRating, fs.MaxRating)
		if err != nil {
			return nil, err
		}
		return &rng, nil
	default:
		return nil, nil
	}
}

// cityValue prefers the closed-vocabulary city and falls back to the
// free-form location run when they differ.
func cityValue(fs query.FilterSet) string {
	if fs.City != nil {
		return *fs.City
	}
	if fs.Location != nil {
		return *fs.Location
	}
	return ""
}

// dayValue resolves openNow against the clock; an explicit day wins.
func dayValue(fs query.FilterSet, now func() time.Time) string {
	if fs.Day != nil {
		return string(*fs.Day)
	}
	if fs.OpenNow != nil && *fs.OpenNow {
		return string(domain.WeekdayOf(now()))
	}
	return ""
}
