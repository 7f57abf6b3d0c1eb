// Package investing scrapes historical fund closes from investing.com.
//
// The regular API rejects non-browser TLS fingerprints, so the adapter goes
// through the TVC endpoints (tvc1..tvc8.investing.com) that serve
// TradingView-format JSON without that protection. The instrument id the
// endpoint needs is discovered once from the fund's page and cached via the
// result hint.
package investing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"navtrack"

	"github.com/PaesslerAG/jsonpath"
	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const (
	tvcServers = 8

	// attempts is how many TVC servers are tried before giving up on a fund.
	attempts = 3
)

// Source scrapes investing.com. The zero value is not usable, call New.
type Source struct {
	// Client performs the TVC history requests.
	Client *http.Client
	// Discovery performs the instrument id lookups, behind the daily disk
	// cache.
	Discovery *http.Client

	// TVCHost overrides the random tvcN.investing.com selection. For tests.
	TVCHost string

	// RetryDelay is the pause between TVC attempts.
	RetryDelay time.Duration
}

// New returns a Source with production endpoints.
func New() *Source {
	return &Source{
		Client:     navtrack.NewClient(),
		Discovery:  navtrack.NewCachingClient(),
		RetryDelay: 500 * time.Millisecond,
	}
}

func (s *Source) Name() string { return "investing" }

// Fetch resolves the instrument id (from the hint or the fund page) and
// pulls the requested range from a TVC server.
func (s *Source) Fetch(req navtrack.Request) (navtrack.Result, error) {
	var res navtrack.Result

	id := req.Hint
	if id == "" {
		var err error
		if id, err = s.instrumentID(req.Ref); err != nil {
			return res, err
		}
		if id == "" {
			log.Printf("investing: no instrument id found in %q", req.Ref)
			return res, nil
		}
		res.Hint = id
	}

	from := req.Range.From
	to := req.Range.To
	if req.Full || from.IsZero() {
		from = navtrack.NewDate(2000, time.January, 1)
	}
	if req.Full || to.IsZero() {
		to = navtrack.Today()
	}

	for attempt := 0; attempt < attempts; attempt++ {
		prices, retry := s.history(id, from, to)
		if !retry {
			res.Prices = prices
			return res, nil
		}
		if attempt < attempts-1 {
			time.Sleep(s.RetryDelay)
		}
	}
	log.Printf("investing: all tvc attempts failed for %q (id=%s)", req.Ref, id)
	return res, nil
}

// nextDataKeys are the id keys probed in the page's __NEXT_DATA__ blob, in
// order of preference.
var nextDataKeys = []string{"instrument_id", "instrumentId", "pair_id"}

// idPatterns are the raw-HTML fallbacks when the __NEXT_DATA__ blob is
// missing or reshaped.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"instrument_id"\s*:\s*"?(\d+)"?`),
	regexp.MustCompile(`"pair_id"\s*:\s*"?(\d+)"?`),
	regexp.MustCompile(`data-pair-id="(\d+)"`),
}

// instrumentID extracts the numeric instrument id from the fund's page.
// Discovery failure on an intact page is ("", nil): the page layout simply
// did not match, which is not exceptional.
func (s *Source) instrumentID(pageURL string) (string, error) {
	host := "www.investing.com"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Host
	}
	header := http.Header{
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": {"en-US,en;q=0.9"},
		"Referer":         {"https://" + host + "/"},
	}
	body, err := navtrack.GetBody(s.Discovery, pageURL, header)
	if err != nil {
		return "", err
	}

	if id := idFromNextData(body); id != "" {
		return id, nil
	}
	for _, re := range idPatterns {
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1]), nil
		}
	}
	return "", nil
}

// idFromNextData digs the instrument id out of the Next.js __NEXT_DATA__
// script. The id sits at a different depth on every page revision, so it is
// located by a recursive-descent jsonpath query rather than a fixed path.
func idFromNextData(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	raw := doc.Find(`script#__NEXT_DATA__`).First().Text()
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var data any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return ""
	}

	for _, key := range nextDataKeys {
		got, err := jsonpath.Get(`$..`+key, data)
		if err != nil {
			continue
		}
		if id := scalarString(got); id != "" {
			return id
		}
	}
	return ""
}

// scalarString flattens a jsonpath result (single value or match list) into
// the first usable scalar.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case []any:
		for _, item := range t {
			if s := scalarString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// tvcResponse is the TradingView history format: parallel timestamp and
// close arrays.
type tvcResponse struct {
	Status     string        `json:"s"`
	Timestamps []int64       `json:"t"`
	Closes     []json.Number `json:"c"`
}

// history pulls one range from a TVC server. retry reports whether trying
// another server could still help.
func (s *Source) history(id string, from, to navtrack.Date) (prices []navtrack.Observation, retry bool) {
	host := s.TVCHost
	if host == "" {
		host = fmt.Sprintf("https://tvc%d.investing.com", 1+rand.Intn(tvcServers))
	}
	addr := fmt.Sprintf("%s/%d/%d/%d/%d/%s/history",
		host, 100000+rand.Intn(900000), time.Now().Unix(), unixStart(from), unixEnd(to), id)
	header := http.Header{
		"Accept":  {"application/json, text/javascript, */*; q=0.01"},
		"Referer": {"https://www.investing.com/"},
		"Origin":  {"https://www.investing.com"},
	}

	body, err := navtrack.GetBody(s.Client, addr, header)
	if err != nil {
		log.Printf("investing: tvc request failed: %v", err)
		return nil, true
	}
	var payload tvcResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("investing: invalid tvc json for id=%s: %v", id, err)
		return nil, true
	}
	if payload.Status != "ok" {
		// "no_data" is a definitive answer, anything else may be server flakiness.
		if payload.Status == "no_data" {
			return nil, false
		}
		log.Printf("investing: tvc status=%q id=%s", payload.Status, id)
		return nil, true
	}
	if len(payload.Timestamps) == 0 || len(payload.Timestamps) != len(payload.Closes) {
		log.Printf("investing: tvc arrays mismatch id=%s t=%d c=%d", id, len(payload.Timestamps), len(payload.Closes))
		return nil, true
	}

	for i, ts := range payload.Timestamps {
		close, err := decimal.NewFromString(payload.Closes[i].String())
		if err != nil {
			continue
		}
		prices = append(prices, navtrack.Observation{
			Date:  navtrack.DateOf(time.Unix(ts, 0).UTC()),
			Close: close,
		})
	}
	return prices, false
}

func unixStart(d navtrack.Date) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

func unixEnd(d navtrack.Date) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC).Unix()
}
