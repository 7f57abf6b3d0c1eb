package ft

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"navtrack"
)

func TestSymbolVariants(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"F0GBR04ENX:EUR", []string{"F0GBR04ENX:EUR", "F0GBR04ENXEUR"}},
		{"F0GBR04ENXEUR", []string{"F0GBR04ENXEUR", "F0GBR04ENX:EUR"}},
		{"SWDA:LSE", []string{"SWDA:LSE", "SWDALSE"}},
		{"  ", nil},
		{"", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := symbolVariants(tc.in)
			if !slices.Equal(got, tc.want) {
				t.Errorf("symbolVariants(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseLongDate(t *testing.T) {
	// The date cell holds a long and an abbreviated rendition back to back.
	got, err := parseLongDate("Tuesday, January 02, 2024Tue, Jan 02, 2024")
	if err != nil {
		t.Fatal(err)
	}
	if want := navtrack.MustParseDate("2024-01-02"); got != want {
		t.Errorf("parseLongDate() = %s, want %s", got, want)
	}

	if _, err := parseLongDate("no date here"); err == nil {
		t.Errorf("want an error on a cell without a date")
	}
}

func TestParseFragment(t *testing.T) {
	fragment := `
<tr>
  <td><span>Tuesday, January 02, 2024</span><span>Tue, Jan 02, 2024</span></td>
  <td>32.50</td><td>32.80</td><td>32.40</td><td>32.76</td><td>--</td>
</tr>
<tr>
  <td><span>Wednesday, January 03, 2024</span><span>Wed, Jan 03, 2024</span></td>
  <td>32.76</td><td>32.90</td><td>32.70</td><td>32.81</td><td>--</td>
</tr>
<tr><td>broken row</td></tr>
<tr>
  <td><span>Thursday, January 04, 2024</span></td>
  <td>a</td><td>b</td><td>c</td><td>not a number</td><td>--</td>
</tr>`

	got := parseFragment(fragment)
	if len(got) != 2 {
		t.Fatalf("parseFragment() returned %d rows, want 2", len(got))
	}
	if want := navtrack.MustParseDate("2024-01-02"); got[0].Date != want {
		t.Errorf("first date = %s, want %s", got[0].Date, want)
	}
	if want := "32.76"; got[0].Close.String() != want {
		t.Errorf("first close = %s, want %s", got[0].Close, want)
	}
}

func TestDateChunks(t *testing.T) {
	start := navtrack.MustParseDate("2023-01-01")
	end := navtrack.MustParseDate("2024-02-05")
	chunks := dateChunks(start, end, 365)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].From != start {
		t.Errorf("first chunk starts at %s, want %s", chunks[0].From, start)
	}
	if chunks[len(chunks)-1].To != end {
		t.Errorf("last chunk ends at %s, want %s", chunks[len(chunks)-1].To, end)
	}
	// Chunks are contiguous and non-overlapping.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].From != chunks[i-1].To.Add(1) {
			t.Errorf("chunk %d starts at %s, want %s", i, chunks[i].From, chunks[i-1].To.Add(1))
		}
	}
}

const testTearsheet = `<!DOCTYPE html><html><body>
<h1 class="mod-tearsheet-overview__header__name">Acme World Fund A Acc</h1>
<div data-module-name="HistoricalPricesApp"
     data-mod-config="{&quot;symbol&quot;:523731,&quot;inception&quot;:&quot;2024-01-01T00:00:00&quot;}"></div>
</body></html>`

func TestFetch(t *testing.T) {
	var historyCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/tearsheet", func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.URL.Query().Get("s"), "F0GBR04ENX:EUR"; got != want {
			t.Errorf("tearsheet query s = %q, want %q", got, want)
		}
		fmt.Fprint(w, testTearsheet)
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		historyCalls++
		if got, want := r.URL.Query().Get("symbol"), "523731"; got != want {
			t.Errorf("history query symbol = %q, want %q", got, want)
		}
		fmt.Fprint(w, `{"html":"<tr><td>Tuesday, January 02, 2024</td><td>1</td><td>2</td><td>3</td><td>32.76</td></tr>"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := &Source{
		Client:       server.Client(),
		Discovery:    server.Client(),
		TearsheetURL: server.URL + "/tearsheet",
		HistoryURL:   server.URL + "/history",
	}

	res, err := src.Fetch(navtrack.Request{
		Ref:   "F0GBR04ENX:EUR",
		Range: navtrack.NewRange(navtrack.MustParseDate("2024-01-01"), navtrack.MustParseDate("2024-01-15")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Prices) != 1 {
		t.Fatalf("got %d prices, want 1", len(res.Prices))
	}
	if got, want := res.Prices[0].Date, navtrack.MustParseDate("2024-01-02"); got != want {
		t.Errorf("date = %s, want %s", got, want)
	}
	if got, want := res.Name, "Acme World Fund A Acc"; got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
	if got, want := res.Currency, "EUR"; got != want {
		t.Errorf("currency = %q, want %q", got, want)
	}
	if got, want := res.Hint, "523731"; got != want {
		t.Errorf("hint = %q, want %q", got, want)
	}
	if historyCalls != 1 {
		t.Errorf("history endpoint called %d times, want 1", historyCalls)
	}
}

func TestFetchUsesHint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tearsheet", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("tearsheet must not be fetched when the hint works")
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"html":"<tr><td>Tuesday, January 02, 2024</td><td>1</td><td>2</td><td>3</td><td>32.76</td></tr>"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := &Source{
		Client:       server.Client(),
		Discovery:    server.Client(),
		TearsheetURL: server.URL + "/tearsheet",
		HistoryURL:   server.URL + "/history",
	}

	res, err := src.Fetch(navtrack.Request{
		Ref:   "F0GBR04ENX:EUR",
		Hint:  "523731",
		Range: navtrack.NewRange(navtrack.MustParseDate("2024-01-01"), navtrack.MustParseDate("2024-01-15")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Prices) != 1 {
		t.Errorf("got %d prices, want 1", len(res.Prices))
	}
}

func TestFetchBlockedEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tearsheet", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testTearsheet)
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		// The challenge page instead of json.
		fmt.Fprint(w, `<!DOCTYPE html><html><body>Access denied</body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	src := &Source{
		Client:       server.Client(),
		Discovery:    server.Client(),
		TearsheetURL: server.URL + "/tearsheet",
		HistoryURL:   server.URL + "/history",
	}

	res, err := src.Fetch(navtrack.Request{
		Ref:   "F0GBR04ENX:EUR",
		Range: navtrack.NewRange(navtrack.MustParseDate("2024-01-01"), navtrack.MustParseDate("2024-01-15")),
	})
	if err != nil {
		t.Fatalf("a blocked endpoint must degrade to no data, got error %v", err)
	}
	if len(res.Prices) != 0 {
		t.Errorf("got %d prices, want 0", len(res.Prices))
	}
}
