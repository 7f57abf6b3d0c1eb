package ft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"navtrack"

	"github.com/PuerkitoBio/goquery"
)

// appConfig is what the historical prices tearsheet embeds for its
// javascript app: the numeric symbol the AJAX endpoint wants, and the fund
// inception date bounding a full backfill.
type appConfig struct {
	Symbol    string
	Inception navtrack.Date
}

// tearsheetMeta is fund metadata read off the tearsheet page itself.
type tearsheetMeta struct {
	Name     string
	Currency string
}

// tearsheet fetches the historical prices page for one symbol spelling and
// extracts the app config and fund metadata.
func (s *Source) tearsheet(symbol string) (appConfig, tearsheetMeta, error) {
	addr := s.TearsheetURL + "?s=" + symbol
	body, err := navtrack.GetBody(s.Discovery, addr, nil)
	if err != nil {
		return appConfig{}, tearsheetMeta{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return appConfig{}, tearsheetMeta{}, fmt.Errorf("cannot parse tearsheet %q: %w", addr, err)
	}
	return extractConfig(doc), extractMeta(doc, symbol), nil
}

// extractConfig finds the HistoricalPricesApp mod-config attribute. The
// attribute value is HTML-escaped JSON; the symbol inside is sometimes a
// number and sometimes a string.
func extractConfig(doc *goquery.Document) appConfig {
	sel := doc.Find(`div[data-module-name="HistoricalPricesApp"][data-mod-config]`)
	if sel.Length() == 0 {
		// Older page revision nests the config under the f2 app container.
		sel = doc.Find(`div[data-f2-app-id="mod-tearsheet-historical-prices"] [data-mod-config]`)
	}
	raw, ok := sel.First().Attr("data-mod-config")
	if !ok {
		return appConfig{}
	}

	var cfg struct {
		Symbol    any    `json:"symbol"`
		Inception string `json:"inception"`
	}
	if err := json.Unmarshal([]byte(html.UnescapeString(raw)), &cfg); err != nil {
		return appConfig{}
	}
	return appConfig{
		Symbol:    configSymbol(cfg.Symbol),
		Inception: parseInception(cfg.Inception),
	}
}

func configSymbol(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

// parseInception reads the ISO timestamp FT embeds, e.g.
// "2001-09-21T00:00:00". The zero Date means unknown.
func parseInception(raw string) navtrack.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return navtrack.Date{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return navtrack.DateOf(t)
		}
	}
	return navtrack.Date{}
}

var currencySuffixRE = regexp.MustCompile(`:?([A-Z]{3})$`)

// extractMeta reads the fund name from the tearsheet header and derives the
// currency from the symbol suffix.
func extractMeta(doc *goquery.Document, symbol string) tearsheetMeta {
	var meta tearsheetMeta
	h1 := doc.Find("h1.mod-tearsheet-overview__header__name").First()
	meta.Name = collapseSpaces(h1.Text())

	if m := currencySuffixRE.FindStringSubmatch(symbol); m != nil && navtrack.ValidCurrency(m[1]) {
		meta.Currency = m[1]
	}
	return meta
}

// longDateRE matches FT's verbose dates ("Monday, January 02, 2006") inside
// a cell that also carries an abbreviated duplicate for small screens.
var longDateRE = regexp.MustCompile(`(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),\s+[A-Za-z]+\s+\d{1,2},\s+\d{4}`)

// parseLongDate extracts and parses the long-form date from a cell text.
func parseLongDate(text string) (navtrack.Date, error) {
	m := longDateRE.FindString(text)
	if m == "" {
		return navtrack.Date{}, fmt.Errorf("no date in %q", text)
	}
	t, err := time.Parse("Monday, January 2, 2006", collapseSpaces(m))
	if err != nil {
		return navtrack.Date{}, fmt.Errorf("cannot parse date %q: %w", m, err)
	}
	return navtrack.DateOf(t), nil
}

// parseFragment parses the <tr> rows of a history fragment. The close price
// is the fifth column. Rows that do not parse are dropped.
func parseFragment(fragment string) []navtrack.Observation {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + fragment + "</table>"))
	if err != nil {
		return nil
	}
	var prices []navtrack.Observation
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 5 {
			return
		}
		day, err := parseLongDate(cells.Eq(0).Text())
		if err != nil {
			return
		}
		close, err := navtrack.ParseDecimal(cells.Eq(4).Text())
		if err != nil {
			return
		}
		prices = append(prices, navtrack.Observation{Date: day, Close: close})
	})
	return prices
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
