package scrape

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cowlitea/cowlitea/internal/domain"
)

// ParseProfessor extracts a professor record from a rating-site profile page.
func ParseProfessor(r io.Reader) (*domain.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse professor page: %w", err)
	}

	firstName := strings.TrimSpace(doc.Find(`div[class^="NameTitle__Name"] span:nth-child(1)`).Text())
	lastName := strings.TrimSpace(doc.Find(`span[class^="NameTitle__LastNameWrapper"]`).Text())

	rec := &domain.Record{
		Name:    strings.TrimSpace(firstName + " " + lastName),
		Kind:    domain.KindProfessor,
		Subject: strings.TrimSpace(doc.Find(`div[class^="NameTitle__Title"] span > a > b`).First().Text()),
	}

	ratingText := strings.TrimSpace(doc.Find(`div[class^="RatingValue__Numerator"]`).Text())
	if rating, err := strconv.ParseFloat(ratingText, 64); err == nil {
		rec.Rating = rating
	}

	doc.Find(`ul#ratingsList li div[class^="Comments__StyledComments"]`).Each(func(_ int, s *goquery.Selection) {
		comment := strings.TrimSpace(s.Text())
		if comment == "" {
			return
		}
		rec.Reviews = append(rec.Reviews, domain.Review{Comment: comment})
	})
	rec.ReviewCount = len(rec.Reviews)

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
