// Package ft scrapes historical fund prices from markets.ft.com.
//
// There is no stable API: the tearsheet page embeds a per-fund numeric
// symbol in an HTML-escaped JSON attribute, and an AJAX endpoint returns the
// historical rows as an HTML table fragment wrapped in JSON. Each stage is a
// fallback in an explicit chain; any stage failing soft degrades to "no
// data" for that symbol variant.
package ft

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"navtrack"

	"github.com/shopspring/decimal"
)

const (
	defaultTearsheetURL = "https://markets.ft.com/data/funds/tearsheet/historical"
	defaultHistoryURL   = "https://markets.ft.com/data/equities/ajax/get-historical-prices"

	// chunkDays bounds one AJAX request on a full backfill; the endpoint
	// truncates longer ranges.
	chunkDays = 365

	// backfillYears is how far back to request when the tearsheet does not
	// reveal an inception date.
	backfillYears = 8
)

// Source scrapes markets.ft.com. The zero value is not usable, call New.
type Source struct {
	// Client performs the history requests.
	Client *http.Client
	// Discovery performs the tearsheet requests, behind the daily disk
	// cache: the embedded config changes rarely.
	Discovery *http.Client

	TearsheetURL string
	HistoryURL   string

	// Throttle is the pause between chunked history requests on a full
	// backfill.
	Throttle time.Duration
}

// New returns a Source with production endpoints.
func New() *Source {
	return &Source{
		Client:       navtrack.NewClient(),
		Discovery:    navtrack.NewCachingClient(),
		TearsheetURL: defaultTearsheetURL,
		HistoryURL:   defaultHistoryURL,
		Throttle:     250 * time.Millisecond,
	}
}

func (s *Source) Name() string { return "ft" }

// Fetch resolves the fund on FT and collects its historical closes.
func (s *Source) Fetch(req navtrack.Request) (navtrack.Result, error) {
	var res navtrack.Result

	// A cached numeric symbol skips the tearsheet discovery entirely.
	if req.Hint != "" {
		if prices := s.collect(req.Hint, navtrack.Date{}, req); len(prices) > 0 {
			res.Prices = prices
			res.Hint = req.Hint
			return res, nil
		}
		log.Printf("ft: cached symbol %q yielded nothing, re-discovering", req.Hint)
	}

	for _, sym := range symbolVariants(req.Ref) {
		cfg, meta, err := s.tearsheet(sym)
		if err != nil {
			log.Printf("ft: tearsheet %q: %v", sym, err)
			continue
		}
		if meta.Name != "" {
			res.Name = meta.Name
		}
		if meta.Currency != "" {
			res.Currency = meta.Currency
		}
		if cfg.Symbol == "" {
			// DOM changed, or the challenge page took over.
			log.Printf("ft: no historical prices config found for %q", sym)
			continue
		}
		res.Hint = cfg.Symbol

		if prices := s.collect(cfg.Symbol, cfg.Inception, req); len(prices) > 0 {
			res.Prices = prices
			return res, nil
		}
		log.Printf("ft: 0 prices for %q (symbol=%s), endpoint may be blocked", sym, cfg.Symbol)
	}
	return res, nil
}

// collect requests the historical rows for a resolved numeric symbol,
// chunked by year on a full backfill.
func (s *Source) collect(symbol string, inception navtrack.Date, req navtrack.Request) []navtrack.Observation {
	end := navtrack.Today()

	var chunks []navtrack.Range
	if req.Full {
		start := inception
		if start.IsZero() {
			start = end.Add(-365 * backfillYears)
		}
		chunks = dateChunks(start, end, chunkDays)
	} else {
		chunks = []navtrack.Range{req.Range}
	}

	// Observations are collected by date: chunk boundaries overlap by design
	// and the endpoint occasionally repeats rows.
	collected := make(map[navtrack.Date]decimal.Decimal)
	for _, chunk := range chunks {
		fragment, err := s.history(symbol, chunk)
		if err != nil {
			log.Printf("ft: history %s %s..%s: %v", symbol, chunk.From, chunk.To, err)
			continue
		}
		if fragment == "" {
			continue
		}
		for _, obs := range parseFragment(fragment) {
			collected[obs.Date] = obs.Close
		}
		if req.Full {
			time.Sleep(s.Throttle)
		}
	}

	prices := make([]navtrack.Observation, 0, len(collected))
	for day, close := range collected {
		prices = append(prices, navtrack.Observation{Date: day, Close: close})
	}
	return prices
}

// history calls the AJAX endpoint for one chunk and returns the embedded
// HTML fragment. A blocked or reshaped response is ("", nil): soft failure,
// the caller just gets no rows.
func (s *Source) history(symbol string, chunk navtrack.Range) (string, error) {
	params := url.Values{
		"startDate": {chunk.From.Format("2006/01/02")},
		"endDate":   {chunk.To.Format("2006/01/02")},
		"symbol":    {symbol},
	}
	header := http.Header{
		"Accept":           {"application/json, text/javascript, */*; q=0.01"},
		"X-Requested-With": {"XMLHttpRequest"},
		"Referer":          {"https://markets.ft.com/"},
	}
	body, err := navtrack.GetBody(s.Client, s.HistoryURL+"?"+params.Encode(), header)
	if err != nil {
		return "", err
	}

	// A full HTML document instead of JSON is the anti-bot challenge page.
	if looksLikeHTMLDocument(body) {
		log.Printf("ft: got an html document instead of json (likely blocked), sample=%q", sample(body))
		return "", nil
	}

	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("ft: invalid history json (%v), sample=%q", err, sample(body))
		return "", nil
	}
	return payload.HTML, nil
}

func looksLikeHTMLDocument(body []byte) bool {
	t := strings.ToLower(strings.TrimSpace(string(body)))
	return strings.HasPrefix(t, "<!doctype html") || strings.HasPrefix(t, "<html")
}

var spacesRE = regexp.MustCompile(`\s+`)

// sample condenses a response body for one log line.
func sample(body []byte) string {
	s := spacesRE.ReplaceAllString(string(body), " ")
	if len(s) > 250 {
		s = s[:250]
	}
	return s
}

var threeLetterSuffixRE = regexp.MustCompile(`^(.+?)([A-Z]{3})$`)

// symbolVariants returns the FT symbol spellings to try, deduplicated, in
// order. FT accepts both "F0GBR04ENX:EUR" and "F0GBR04ENXEUR" depending on
// the page, so both forms are derived from whichever was configured.
func symbolVariants(symbol string) []string {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil
	}
	variants := []string{sym}
	if strings.Contains(sym, ":") {
		variants = append(variants, strings.ReplaceAll(sym, ":", ""))
	} else if m := threeLetterSuffixRE.FindStringSubmatch(sym); m != nil {
		variants = append(variants, m[1]+":"+m[2])
	}
	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// dateChunks splits [start, end] into consecutive ranges of at most 'days' days.
func dateChunks(start, end navtrack.Date, days int) []navtrack.Range {
	var chunks []navtrack.Range
	for cur := start; !cur.After(end); {
		next := cur.Add(days - 1)
		if next.After(end) {
			next = end
		}
		chunks = append(chunks, navtrack.Range{From: cur, To: next})
		cur = next.Add(1)
	}
	return chunks
}
