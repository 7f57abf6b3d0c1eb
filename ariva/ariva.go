// Package ariva scrapes the latest fund close from ariva.de historical
// price pages ("historische Kurse").
//
// The fund reference is the full page URL. Only the top data row is taken:
// ariva paginates aggressively and the page exists here as a cheap freshness
// source, not a backfill one.
package ariva

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"navtrack"

	"github.com/PuerkitoBio/goquery"
)

// Source scrapes ariva.de. The zero value is not usable, call New.
type Source struct {
	Client *http.Client
}

func New() *Source {
	return &Source{Client: navtrack.NewClient()}
}

func (s *Source) Name() string { return "ariva" }

// Fetch returns the most recent close from the page, at most one
// observation. The requested range is ignored.
func (s *Source) Fetch(req navtrack.Request) (navtrack.Result, error) {
	var res navtrack.Result
	header := http.Header{
		"Accept-Language": {"de-DE,de;q=0.9,en;q=0.7"},
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	}
	body, err := navtrack.GetBody(s.Client, req.Ref, header)
	if err != nil {
		return res, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("cannot parse %q: %w", req.Ref, err)
	}

	row := doc.Find("tr.arrow0").First()
	if row.Length() == 0 {
		log.Printf("ariva: no data rows in %q", req.Ref)
		return res, nil
	}
	cells := row.Find("td")
	if cells.Length() < 4 {
		log.Printf("ariva: unexpected row shape (%d cells) in %q", cells.Length(), req.Ref)
		return res, nil
	}

	// Date in the first cell ("02.01.24"), close in the fourth ("87,06 €").
	day, err := parseDate(cells.Eq(0).Text())
	if err != nil {
		log.Printf("ariva: %v", err)
		return res, nil
	}
	close, err := navtrack.ParseDecimal(cells.Eq(3).Text())
	if err != nil {
		log.Printf("ariva: cannot parse price in %q: %v", req.Ref, err)
		return res, nil
	}
	res.Prices = []navtrack.Observation{{Date: day, Close: close}}
	return res, nil
}

// parseDate reads ariva's two-digit-year dates, "02.01.06".
func parseDate(raw string) (navtrack.Date, error) {
	t, err := time.Parse("02.01.06", strings.TrimSpace(raw))
	if err != nil {
		return navtrack.Date{}, fmt.Errorf("cannot parse date %q: %w", raw, err)
	}
	return navtrack.DateOf(t), nil
}
