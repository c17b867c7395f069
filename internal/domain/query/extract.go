// Package query turns free-text user messages into structured retrieval
// filters. Extraction is rule-based: each filter category owns an ordered
// list of patterns, the first applicable pattern wins within its category,
// and categories are evaluated independently of one another.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cowlitea/cowlitea/internal/domain"
)

var (
	minRatingRe   = regexp.MustCompile(`(?i)\b(?:above|higher than|greater than|at least)\s+(\d+(?:\.\d+)?)`)
	maxRatingRe   = regexp.MustCompile(`(?i)\b(?:below|less than|under)\s+(\d+(?:\.\d+)?)`)
	exactRatingRe = regexp.MustCompile(`(?i)\bexactly\s+(\d+(?:\.\d+)?)`)
	superlativeRe = regexp.MustCompile(`(?i)\b(?:best|top-rated|highly rated)\b`)

	locationRe = regexp.MustCompile(`(?i)\b(?:located in|in|near|around|from)\s+([A-Za-z][A-Za-z\s]*)`)
	subjectRe  = regexp.MustCompile(`(?i)\bfor\s+([A-Za-z][A-Za-z\s]*)`)
	keywordRe  = regexp.MustCompile(`(?i)\b(?:known for|who has|with|serving|offers?)\s+([A-Za-z][A-Za-z\s]*)`)

	keywordSplitRe = regexp.MustCompile(`(?i)\s+and\s+|\s*,\s*|\s+or\s+`)
	postalRe       = regexp.MustCompile(`\b(\d{5})\b`)
	stateRe        = regexp.MustCompile(`\b([A-Z]{2})\b`)
	openNowRe      = regexp.MustCompile(`(?i)\bopen\s+(?:now|right now)\b|\bcurrently open\b`)
)

// SuperlativeMinRating is the implicit threshold applied when the text has a
// superlative cue ("best", "top-rated") but no explicit rating clause.
const SuperlativeMinRating = 4.5

// stopCues end a captured word run: whatever follows belongs to a different
// clause ("in Austin known for matcha" -> "Austin").
var stopCues = map[string]struct{}{
	"known": {}, "who": {}, "with": {}, "serving": {},
	"offers": {}, "offer": {}, "offering": {},
	"rated": {}, "rating": {}, "that": {}, "which": {}, "where": {},
	"open": {}, "and": {}, "or": {},
	"in": {}, "near": {}, "around": {}, "located": {},
}

// defaultCities is the closed vocabulary for the city filter.
var defaultCities = []string{
	"Los Angeles", "San Francisco", "San Jose", "San Diego", "Sacramento",
	"Irvine", "Fullerton", "Pasadena", "Austin", "Houston", "Dallas",
	"Seattle", "Portland", "New York", "Boston", "Chicago",
}

// defaultStates is the closed set of recognized 2-letter state codes.
var defaultStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// Extractor parses free text into a FilterSet.
type Extractor struct {
	knownNames []string
	cities     []string
	states     map[string]struct{}
	cityRe     *regexp.Regexp
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithKnownNames sets the closed list of recognized entity names.
func WithKnownNames(names []string) Option {
	return func(e *Extractor) { e.knownNames = names }
}

// WithCities replaces the closed city vocabulary.
func WithCities(cities []string) Option {
	return func(e *Extractor) { e.cities = cities }
}

// NewExtractor creates a filter extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{cities: defaultCities}
	for _, opt := range opts {
		opt(e)
	}
	e.states = make(map[string]struct{}, len(defaultStates))
	for _, s := range defaultStates {
		e.states[s] = struct{}{}
	}
	e.cityRe = compileCityPattern(e.cities)
	return e
}

// Extract parses text into a FilterSet. Pure and total: the same text always
// yields the same FilterSet, and unmatched categories stay absent.
func (e *Extractor) Extract(text string) FilterSet {
	var f FilterSet
	e.extractRating(text, &f)
	e.extractLocation(text, &f)
	e.extractSubject(text, &f)
	e.extractName(text, &f)
	e.extractKeywords(text, &f)
	e.extractCity(text, &f)
	e.extractState(text, &f)
	e.extractPostal(text, &f)
	e.extractOpenNow(text, &f)
	e.extractDay(text, &f)
	return f
}

// extractRating sets exactly one of Min/Max/ExactRating. An explicit
// comparison clause always beats the superlative cue.
func (e *Extractor) extractRating(text string, f *FilterSet) {
	if m := minRatingRe.FindStringSubmatch(text); m != nil {
		f.MinRating = floatPtr(parseFloat(m[1]))
		return
	}
	if m := maxRatingRe.FindStringSubmatch(text); m != nil {
		f.MaxRating = floatPtr(parseFloat(m[1]))
		return
	}
	if m := exactRatingRe.FindStringSubmatch(text); m != nil {
		f.ExactRating = floatPtr(parseFloat(m[1]))
		return
	}
	if superlativeRe.MatchString(text) {
		f.MinRating = floatPtr(SuperlativeMinRating)
	}
}

func (e *Extractor) extractLocation(text string, f *FilterSet) {
	m := locationRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	if run := truncateAtStopCue(m[1]); run != "" {
		f.Location = strPtr(run)
	}
}

// extractSubject fires on the academic "for <subject>" cue. A "for" preceded
// by "known" belongs to the review-keyword rule and is skipped.
func (e *Extractor) extractSubject(text string, f *FilterSet) {
	for _, idx := range subjectRe.FindAllStringSubmatchIndex(text, -1) {
		before := strings.TrimSpace(text[:idx[0]])
		if strings.HasSuffix(strings.ToLower(before), "known") {
			continue
		}
		if run := truncateAtStopCue(text[idx[2]:idx[3]]); run != "" {
			f.Subject = strPtr(run)
		}
		return
	}
}

func (e *Extractor) extractName(text string, f *FilterSet) {
	lower := strings.ToLower(text)
	for _, name := range e.knownNames {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			f.Name = strPtr(name)
			return
		}
	}
}

func (e *Extractor) extractKeywords(text string, f *FilterSet) {
	m := keywordRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	run := truncateAtConnectiveStop(m[1])
	for _, part := range keywordSplitRe.Split(run, -1) {
		if kw := strings.TrimSpace(part); kw != "" {
			f.ReviewKeywords = append(f.ReviewKeywords, kw)
		}
	}
}

func (e *Extractor) extractCity(text string, f *FilterSet) {
	if e.cityRe == nil {
		return
	}
	m := e.cityRe.FindString(strings.ToLower(text))
	if m == "" {
		return
	}
	for _, city := range e.cities {
		if strings.EqualFold(city, m) {
			f.City = strPtr(city)
			return
		}
	}
}

func (e *Extractor) extractState(text string, f *FilterSet) {
	for _, m := range stateRe.FindAllStringSubmatch(text, -1) {
		if _, ok := e.states[m[1]]; ok {
			f.State = strPtr(m[1])
			return
		}
	}
}

func (e *Extractor) extractPostal(text string, f *FilterSet) {
	if m := postalRe.FindStringSubmatch(text); m != nil {
		f.PostalCode = strPtr(m[1])
	}
}

func (e *Extractor) extractOpenNow(text string, f *FilterSet) {
	if openNowRe.MatchString(text) {
		f.OpenNow = boolPtr(true)
	}
}

func (e *Extractor) extractDay(text string, f *FilterSet) {
	lower := strings.ToLower(text)
	for _, d := range domain.Weekdays {
		if containsWord(lower, string(d)) {
			day := d
			f.Day = &day
			return
		}
	}
}

// truncateAtStopCue cuts a captured word run at the first word owned by
// another clause and returns the trimmed prefix.
func truncateAtStopCue(run string) string {
	words := strings.Fields(run)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopCues[strings.ToLower(w)]; stop {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// truncateAtConnectiveStop is like truncateAtStopCue but keeps "and"/"or",
// which the keyword rule needs as list separators.
func truncateAtConnectiveStop(run string) string {
	words := strings.Fields(run)
	kept := words[:0]
	for _, w := range words {
		lw := strings.ToLower(w)
		if lw != "and" && lw != "or" {
			if _, stop := stopCues[lw]; stop {
				break
			}
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func compileCityPattern(cities []string) *regexp.Regexp {
	if len(cities) == 0 {
		return nil
	}
	quoted := make([]string, len(cities))
	for i, c := range cities {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(c))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func containsWord(lower, word string) bool {
	idx := strings.Index(lower, word)
	for idx >= 0 {
		beforeOK := idx == 0 || !isWordChar(lower[idx-1])
		after := idx + len(word)
		afterOK := after == len(lower) || !isWordChar(lower[after])
		if beforeOK && afterOK {
			return true
		}
		next := strings.Index(lower[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// parseFloat never fails: the rating regexes only capture `\d+(\.\d+)?`.
func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
