package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a lowercase day-of-week name as stored in record metadata.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists all days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf converts a time.Time weekday to the metadata representation.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

// ParseWeekday matches a day name case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	lower := Weekday(strings.ToLower(s))
	for _, d := range Weekdays {
		if d == lower {
			return d, true
		}
	}
	return "", false
}

// RecordKind distinguishes the two ingested page layouts.
type RecordKind string

const (
	// KindShop is a boba shop record scraped from a review site.
	KindShop RecordKind = "shop"
	// KindProfessor is a professor record scraped from a rating site.
	KindProfessor RecordKind = "professor"
)

// Location is a parsed street address.
type Location struct {
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// String renders the single-line form stored in metadata, skipping empty parts.
func (l Location) String() string {
	var parts []string
	if l.Address != "" {
		parts = append(parts, l.Address)
	}
	if l.City != "" {
		parts = append(parts, l.City)
	}
	statePostal := strings.TrimSpace(l.State + " " + l.PostalCode)
	if statePostal != "" {
		parts = append(parts, statePostal)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

// Review is one customer review attached to a record.
type Review struct {
	Rating   int
	Comment  string
	Date     string
	Reviewer string
}

// Record is a normalized ingested entity, keyed by its unique name.
type Record struct {
	Name        string
	Kind        RecordKind
	Location    Location
	Subject     string
	Rating      float64
	ReviewCount int
	Hours       map[Weekday]string
	Reviews     []Review
}

// Validate checks the fields the ingestion contract requires.
func (r Record) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: missing name", ErrIncompleteRecord)
	}
	if r.Rating <= 0 {
		return fmt.Errorf("%w: missing rating for %q", ErrIncompleteRecord, r.Name)
	}
	if len(r.Reviews) == 0 {
		return fmt.Errorf("%w: no reviews for %q", ErrIncompleteRecord, r.Name)
	}
	switch r.Kind {
	case KindShop:
		if r.Location.City == "" || r.Location.State == "" {
			return fmt.Errorf("%w: missing location for %q", ErrIncompleteRecord, r.Name)
		}
	case KindProfessor:
		if r.Subject == "" {
			return fmt.Errorf("%w: missing subject for %q", ErrIncompleteRecord, r.Name)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrIncompleteRecord, r.Kind)
	}
	return nil
}

// OpenDays returns the days with listed, non-"Closed" hours, in calendar order.
func (r Record) OpenDays() []Weekday {
	var days []Weekday
	for _, d := range Weekdays {
		h, ok := r.Hours[d]
		if !ok {
			continue
		}
		if h == "" || strings.EqualFold(strings.TrimSpace(h), "closed") {
			continue
		}
		days = append(days, d)
	}
	return days
}

// ReviewText joins all review comments into one searchable string.
func (r Record) ReviewText() string {
	parts := make([]string, 0, len(r.Reviews))
	for _, rev := range r.Reviews {
		if rev.Comment != "" {
			parts = append(parts, rev.Comment)
		}
	}
	return strings.Join(parts, " ")
}

// EmbeddingText composes the text that gets vectorized for this record.
func (r Record) EmbeddingText() string {
	var b strings.Builder
	switch r.Kind {
	case KindProfessor:
		fmt.Fprintf(&b, "%s teaches %s. Rating: %g/5.", r.Name, r.Subject, r.Rating)
	default:
		fmt.Fprintf(&b, "%s located in %s, %s. Rating: %g/5 from %d reviews.",
			r.Name, r.Location.City, r.Location.State, r.Rating, r.ReviewCount)
		if len(r.Hours) > 0 {
			b.WriteString(" Hours:")
			for _, d := range Weekdays {
				if h, ok := r.Hours[d]; ok && h != "" {
					fmt.Fprintf(&b, " %s: %s.", d, h)
				}
			}
		}
	}
	if text := r.ReviewText(); text != "" {
		b.WriteString(" ")
		b.WriteString(text)
	}
	return b.String()
}
