package domain

// Match is a single ranked retrieval hit. Metadata holds the flat scalar
// fields stored alongside the vector (location, subject, stars, reviews, ...).
type Match struct {
	ID       string
	Score    float64
	Tags     map[string]string
	Numerics map[string]float64
}

// Tag returns a metadata tag value or "" when absent.
func (m Match) Tag(key string) string { return m.Tags[key] }

// Numeric returns a numeric metadata value and whether it was present.
func (m Match) Numeric(key string) (float64, bool) {
	v, ok := m.Numerics[key]
	return v, ok
}
