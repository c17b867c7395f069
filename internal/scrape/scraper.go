// Package scrape downloads and parses shop and professor profile pages.
package scrape

import (
	"context"
	"fmt"

	"github.com/cowlitea/cowlitea/internal/domain"
)

// Scraper fetches a profile page and parses it by record kind.
type Scraper struct {
	fetcher *Fetcher
}

// NewScraper creates a scraper on top of a fetcher.
func NewScraper(f *Fetcher) *Scraper {
	return &Scraper{fetcher: f}
}

// Scrape downloads url and parses it into a record of the given kind.
func (s *Scraper) Scrape(ctx context.Context, url string, kind domain.RecordKind) (*domain.Record, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	switch kind {
	case domain.KindShop:
		return ParseShop(body)
	case domain.KindProfessor:
		return ParseProfessor(body)
	default:
		return nil, fmt.Errorf("unknown record kind %q: %w", kind, domain.ErrInvalidInput)
	}
}
