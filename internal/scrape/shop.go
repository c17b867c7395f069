package scrape

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cowlitea/cowlitea/internal/domain"
)

// cityStateZipRe parses the second address line, e.g. "San Francisco, CA 94108".
var cityStateZipRe = regexp.MustCompile(`^(?P<city>[A-Za-z\s]+),?\s*(?P<state>[A-Z]{2})\s*(?P<postalCode>\d{5}(?:-\d{4})?)$`)

var firstNumberRe = regexp.MustCompile(`\d+`)

// ParseShop extracts a shop record from a review-site profile page.
func ParseShop(r io.Reader) (*domain.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse shop page: %w", err)
	}

	rec := &domain.Record{
		Name: strings.TrimSpace(doc.Find("h1").First().Text()),
		Kind: domain.KindShop,
	}

	rec.Location = parseShopLocation(doc)
	rec.Rating = parseShopRating(doc)
	rec.Hours = parseShopHours(doc)
	rec.ReviewCount = parseShopReviewCount(doc)
	rec.Reviews = parseShopReviews(doc)

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseShopLocation(doc *goquery.Document) domain.Location {
	spans := doc.Find("#location-and-hours address span")
	street := strings.TrimSpace(spans.First().Text())
	cityStateZip := strings.TrimSpace(spans.Last().Text())

	loc := domain.Location{Address: street}

	m := cityStateZipRe.FindStringSubmatch(cityStateZip)
	if m == nil {
		return loc
	}
	loc.City = strings.TrimSpace(m[cityStateZipRe.SubexpIndex("city")])
	loc.State = strings.TrimSpace(m[cityStateZipRe.SubexpIndex("state")])
	loc.PostalCode = strings.TrimSpace(m[cityStateZipRe.SubexpIndex("postalCode")])
	loc.Country = "USA"
	return loc
}

// parseShopRating reads the numeric rating from the header block. The value
// is a bare text node among styled children, so direct text nodes are
// filtered out of the selection's contents.
func parseShopRating(doc *goquery.Document) float64 {
	var ratingText string
	doc.Find(`div[class^="photo-header-content"] span`).
		Contents().
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if goquery.NodeName(s) != "#text" {
				return true
			}
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return true
			}
			ratingText = text
			return false
		})

	rating, err := strconv.ParseFloat(ratingText, 64)
	if err != nil {
		return 0
	}
	return rating
}

// parseShopHours reads the hours table. Day rows are interleaved with spacer
// rows, so monday sits at row 2, tuesday at 4, and so on.
func parseShopHours(doc *goquery.Document) map[domain.Weekday]string {
	hours := make(map[domain.Weekday]string, len(domain.Weekdays))
	for i, day := range domain.Weekdays {
		row := 2 + i*2
		sel := fmt.Sprintf("#location-and-hours table tbody tr:nth-child(%d) td:nth-child(2) ul li p", row)
		if text := strings.TrimSpace(doc.Find(sel).Text()); text != "" {
			hours[day] = text
		}
	}
	if len(hours) == 0 {
		return nil
	}
	return hours
}

func parseShopReviewCount(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find(`#reviews div[class*="arrange-unit"] p`).Text())
	m := firstNumberRe.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func parseShopReviews(doc *goquery.Document) []domain.Review {
	var reviews []domain.Review
	doc.Find("#reviews ul li").Each(func(_ int, li *goquery.Selection) {
		reviewer := strings.TrimSpace(li.Find(`a[href*="/user_details"]`).Text())
		comment := strings.TrimSpace(li.Find("p span").Text())
		date := strings.TrimSpace(li.Find(`span:contains("20")`).First().Text())
		rating := countFilledStars(li)

		if reviewer == "" || comment == "" || date == "" || rating == 0 {
			return
		}
		reviews = append(reviews, domain.Review{
			Rating:   rating,
			Comment:  comment,
			Date:     date,
			Reviewer: reviewer,
		})
	})
	return reviews
}

// countFilledStars counts svg star paths with a non-empty fill.
func countFilledStars(li *goquery.Selection) int {
	count := 0
	li.Find("svg path").Each(func(_ int, p *goquery.Selection) {
		fill, ok := p.Attr("fill")
		if ok && fill != "" && fill != "none" {
			count++
		}
	})
	return count
}
