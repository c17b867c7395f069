package scrape

import (
	"errors"
	"strings"
	"testing"

	"github.com/cowlitea/cowlitea/internal/domain"
)

const shopPage = `<html><body>
<h1>Boba Guys</h1>
<div class="photo-header-content__09f24">
  <span>4.5<sup>*</sup></span>
</div>
<div id="location-and-hours">
  <address>
    <span>429 Stockton St</span>
    <span>San Francisco, CA 94108</span>
  </address>
  <table><tbody>
    <tr><td>Mon</td></tr>
    <tr><td>Mon</td><td><ul><li><p>11:00 AM - 9:00 PM</p></li></ul></td></tr>
    <tr><td>Tue</td></tr>
    <tr><td>Tue</td><td><ul><li><p>11:00 AM - 9:00 PM</p></li></ul></td></tr>
    <tr><td>Wed</td></tr>
    <tr><td>Wed</td><td><ul><li><p>11:00 AM - 9:00 PM</p></li></ul></td></tr>
    <tr><td>Thu</td></tr>
    <tr><td>Thu</td><td><ul><li><p>11:00 AM - 9:00 PM</p></li></ul></td></tr>
    <tr><td>Fri</td></tr>
    <tr><td>Fri</td><td><ul><li><p>11:00 AM - 10:00 PM</p></li></ul></td></tr>
    <tr><td>Sat</td></tr>
    <tr><td>Sat</td><td><ul><li><p>12:00 PM - 10:00 PM</p></li></ul></td></tr>
    <tr><td>Sun</td></tr>
    <tr><td>Sun</td><td><ul><li><p>Closed</p></li></ul></td></tr>
  </tbody></table>
</div>
<div id="reviews">
  <div class="arrange-unit__09f24"><p>120 reviews</p></div>
  <ul>
    <li>
      <a href="/user_details?userid=1">Ana L.</a>
      <span>Jan 5, 2024</span>
      <p><span>Great matcha latte, the line moves fast.</span></p>
      <svg><path fill="#f15c00"></path><path fill="#f15c00"></path><path fill="#f15c00"></path><path fill="#f15c00"></path><path fill="#f15c00"></path></svg>
    </li>
    <li>
      <a href="/user_details?userid=2">Ben K.</a>
      <span>Feb 12, 2024</span>
      <p><span>Solid taro milk tea.</span></p>
      <svg><path fill="#f15c00"></path><path fill="#f15c00"></path><path fill="#f15c00"></path><path fill="#f15c00"></path><path fill="none"></path></svg>
    </li>
    <li>
      <p><span>Orphan comment with no reviewer.</span></p>
    </li>
  </ul>
</div>
</body></html>`

func TestParseShop_FullPage(t *testing.T) {
	rec, err := ParseShop(strings.NewReader(shopPage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Name != "Boba Guys" {
		t.Errorf("unexpected name: %q", rec.Name)
	}
	if rec.Kind != domain.KindShop {
		t.Errorf("unexpected kind: %q", rec.Kind)
	}
	if rec.Rating != 4.5 {
		t.Errorf("unexpected rating: %g", rec.Rating)
	}
	if rec.ReviewCount != 120 {
		t.Errorf("unexpected review count: %d", rec.ReviewCount)
	}

	loc := rec.Location
	if loc.Address != "429 Stockton St" {
		t.Errorf("unexpected address: %q", loc.Address)
	}
	if loc.City != "San Francisco" || loc.State != "CA" || loc.PostalCode != "94108" {
		t.Errorf("unexpected location: %+v", loc)
	}
	if loc.Country != "USA" {
		t.Errorf("unexpected country: %q", loc.Country)
	}

	if rec.Hours[domain.Monday] != "11:00 AM - 9:00 PM" {
		t.Errorf("unexpected monday hours: %q", rec.Hours[domain.Monday])
	}
	if rec.Hours[domain.Friday] != "11:00 AM - 10:00 PM" {
		t.Errorf("unexpected friday hours: %q", rec.Hours[domain.Friday])
	}
	if rec.Hours[domain.Sunday] != "Closed" {
		t.Errorf("unexpected sunday hours: %q", rec.Hours[domain.Sunday])
	}
	// Sunday listed as Closed drops out of open days
	open := rec.OpenDays()
	if len(open) != 6 {
		t.Errorf("expected 6 open days, got %v", open)
	}

	if len(rec.Reviews) != 2 {
		t.Fatalf("expected 2 complete reviews, got %d", len(rec.Reviews))
	}
	first := rec.Reviews[0]
	if first.Reviewer != "Ana L." || first.Rating != 5 {
		t.Errorf("unexpected first review: %+v", first)
	}
	if !strings.Contains(first.Comment, "matcha") {
		t.Errorf("unexpected comment: %q", first.Comment)
	}
	if rec.Reviews[1].Rating != 4 {
		t.Errorf("expected 4 filled stars, got %d", rec.Reviews[1].Rating)
	}
}

func TestParseShop_IncompletePage(t *testing.T) {
	page := `<html><body><h1>Nameless</h1></body></html>`

	_, err := ParseShop(strings.NewReader(page))
	if !errors.Is(err, domain.ErrIncompleteRecord) {
		t.Errorf("expected ErrIncompleteRecord, got %v", err)
	}
}

func TestCityStateZipRe(t *testing.T) {
	tests := []struct {
		in        string
		wantCity  string
		wantState string
		wantZip   string
		ok        bool
	}{
		{"San Francisco, CA 94108", "San Francisco", "CA", "94108", true},
		{"Austin TX 78701", "Austin", "TX", "78701", true},
		{"Los Angeles, CA 90001-1234", "Los Angeles", "CA", "90001-1234", true},
		{"not an address", "", "", "", false},
	}
	for _, tc := range tests {
		m := cityStateZipRe.FindStringSubmatch(tc.in)
		if (m != nil) != tc.ok {
			t.Errorf("match(%q) = %v, want %v", tc.in, m != nil, tc.ok)
			continue
		}
		if m == nil {
			continue
		}
		city := strings.TrimSpace(m[cityStateZipRe.SubexpIndex("city")])
		state := m[cityStateZipRe.SubexpIndex("state")]
		zip := m[cityStateZipRe.SubexpIndex("postalCode")]
		if city != tc.wantCity || state != tc.wantState || zip != tc.wantZip {
			t.Errorf("parse(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tc.in, city, state, zip, tc.wantCity, tc.wantState, tc.wantZip)
		}
	}
}
