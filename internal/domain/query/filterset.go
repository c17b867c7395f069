package query

import (
	"github.com/cowlitea/cowlitea/internal/domain"
)

// FilterSet holds the structured constraints recognized in a free-text query.
// A nil field means "no constraint", never a narrowing default. MinRating,
// MaxRating and ExactRating are mutually exclusive outcomes of the same
// rating clause.
type FilterSet struct {
	MinRating   *float64
	MaxRating   *float64
	ExactRating *float64

	Location   *string
	Subject    *string
	Name       *string
	City       *string
	State      *string
	PostalCode *string

	ReviewKeywords []string

	OpenNow *bool
	Day     *domain.Weekday
}

// IsEmpty reports whether no filter matched.
func (f FilterSet) IsEmpty() bool {
	return f.MinRating == nil && f.MaxRating == nil && f.ExactRating == nil &&
		f.Location == nil && f.Subject == nil && f.Name == nil &&
		f.City == nil && f.State == nil && f.PostalCode == nil &&
		len(f.ReviewKeywords) == 0 && f.OpenNow == nil && f.Day == nil
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
