// Package fundsquare scrapes net asset values from fundsquare.net.
//
// The fund reference is the full URL of the fund's NAV page. The page holds
// a plain HTML table; columns are located by header text, with a positional
// fallback when the headers are missing.
package fundsquare

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

// Source scrapes fundsquare.net. The zero value is not usable, call New.
type Source struct {
	Client *http.Client
}

func New() *Source {
	return &Source{Client: navtrack.NewClient()}
}

func (s *Source) Name() string { return "fundsquare" }

// Fetch downloads the NAV page and parses its price table. The page only
// shows recent NAVs, so the requested range is ignored.
func (s *Source) Fetch(req navtrack.Request) (navtrack.Result, error) {
	var res navtrack.Result
	body, err := navtrack.GetBody(s.Client, req.Ref, nil)
	if err != nil {
		return res, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("cannot parse %q: %w", req.Ref, err)
	}

	table := doc.Find("table.tabHorizontal").First()
	if table.Length() == 0 {
		log.Printf("fundsquare: no price table in %q", req.Ref)
		return res, nil
	}
	res.Prices = parseTable(table)
	return res, nil
}

// parseTable reads the NAV rows. The "NAV date" and "NAV" columns are
// located by header; tables without recognizable headers fall back to the
// first two cells of each row.
func parseTable(table *goquery.Selection) []navtrack.Observation {
	dateIdx, navIdx := -1, -1
	table.Find("tr th").Each(func(i int, th *goquery.Selection) {
		h := strings.ReplaceAll(strings.ToLower(cellText(th)), " ", "")
		if strings.Contains(h, "navdate") {
			dateIdx = i
		}
		if h == "nav" {
			navIdx = i
		}
	})

	var prices []navtrack.Observation
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		var dateRaw, navRaw string
		if dateIdx >= 0 && navIdx >= 0 && cells.Length() > max(dateIdx, navIdx) {
			dateRaw = cellText(cells.Eq(dateIdx))
			navRaw = cellText(cells.Eq(navIdx))
		} else if cells.Length() >= 2 {
			dateRaw = cellText(cells.Eq(0))
			navRaw = cellText(cells.Eq(1))
		} else {
			return
		}
		day, err := parseDate(dateRaw)
		if err != nil {
			return
		}
		nav, err := navtrack.ParseDecimal(navRaw)
		if err != nil {
			return
		}
		prices = append(prices, navtrack.Observation{Date: day, Close: nav})
	})
	return prices
}

// parseDate reads the DDMMYYYY digits out of a date cell, whatever the
// punctuation around them.
func parseDate(raw string) (navtrack.Date, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	t, err := time.Parse("02012006", digits.String())
	if err != nil {
		return navtrack.Date{}, fmt.Errorf("cannot parse date %q: %w", raw, err)
	}
	return navtrack.DateOf(t), nil
}

func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
