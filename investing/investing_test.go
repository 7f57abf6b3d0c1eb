package investing

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"navtrack"
)

func TestIDFromNextData(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"numeric id nested deep",
			`<html><body><script id="__NEXT_DATA__" type="application/json">
			{"props":{"pageProps":{"state":{"quote":{"instrument_id":9527}}}}}
			</script></body></html>`,
			"9527",
		},
		{
			"camel case key",
			`<html><script id="__NEXT_DATA__" type="application/json">
			{"props":{"instrumentId":"12345"}}
			</script></html>`,
			"12345",
		},
		{
			"pair id fallback key",
			`<html><script id="__NEXT_DATA__" type="application/json">
			{"a":[{"b":{"pair_id":777}}]}
			</script></html>`,
			"777",
		},
		{
			"no script",
			`<html><body>nothing</body></html>`,
			"",
		},
		{
			"invalid json",
			`<html><script id="__NEXT_DATA__" type="application/json">{broken</script></html>`,
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := idFromNextData([]byte(tc.body)); got != tc.want {
				t.Errorf("idFromNextData() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInstrumentIDRegexFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div data-pair-id="45678">chart</div></body></html>`)
	}))
	defer server.Close()

	src := &Source{Client: server.Client(), Discovery: server.Client()}
	id, err := src.instrumentID(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if want := "45678"; id != want {
		t.Errorf("instrumentID() = %q, want %q", id, want)
	}
}

// tvcOK serves a minimal TradingView history: two closes on 2024-01-02 and
// 2024-01-03 (midnight UTC timestamps).
func tvcOK(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, `{"s":"ok","t":[1704153600,1704240000],"c":[32.76,32.81]}`)
}

func TestFetchWithHint(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		tvcOK(w, r)
	}))
	defer server.Close()

	src := &Source{Client: server.Client(), Discovery: server.Client(), TVCHost: server.URL}
	res, err := src.Fetch(navtrack.Request{
		Ref:   "https://www.investing.com/funds/x-historical-data",
		Hint:  "9527",
		Range: navtrack.NewRange(navtrack.MustParseDate("2024-01-01"), navtrack.MustParseDate("2024-01-15")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("tvc called %d times, want 1 (discovery skipped on a hint)", calls)
	}
	if len(res.Prices) != 2 {
		t.Fatalf("got %d prices, want 2", len(res.Prices))
	}
	if got, want := res.Prices[0].Date, navtrack.MustParseDate("2024-01-02"); got != want {
		t.Errorf("first date = %s, want %s", got, want)
	}
	if got, want := res.Prices[1].Close.String(), "32.81"; got != want {
		t.Errorf("second close = %s, want %s", got, want)
	}
	if res.Hint != "" {
		t.Errorf("hint = %q, want empty (nothing newly discovered)", res.Hint)
	}
}

func TestFetchDiscoversID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/funds/x-historical-data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script id="__NEXT_DATA__" type="application/json">{"instrument_id":9527}</script></html>`)
	})
	mux.HandleFunc("/", tvcOK)
	server := httptest.NewServer(mux)
	defer server.Close()

	src := &Source{Client: server.Client(), Discovery: server.Client(), TVCHost: server.URL}
	res, err := src.Fetch(navtrack.Request{
		Ref:  server.URL + "/funds/x-historical-data",
		Full: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := res.Hint, "9527"; got != want {
		t.Errorf("hint = %q, want %q", got, want)
	}
	if len(res.Prices) != 2 {
		t.Errorf("got %d prices, want 2", len(res.Prices))
	}
}

func TestFetchNoData(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer server.Close()

	src := &Source{Client: server.Client(), Discovery: server.Client(), TVCHost: server.URL}
	res, err := src.Fetch(navtrack.Request{Ref: "https://example.com", Hint: "9527", Full: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Prices) != 0 {
		t.Errorf("got %d prices, want 0", len(res.Prices))
	}
	if calls != 1 {
		t.Errorf("tvc called %d times, want 1 (no_data is definitive)", calls)
	}
}

func TestFetchRetriesFlakyServer(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		tvcOK(w, r)
	}))
	defer server.Close()

	src := &Source{Client: server.Client(), Discovery: server.Client(), TVCHost: server.URL}
	res, err := src.Fetch(navtrack.Request{Ref: "https://example.com", Hint: "9527", Full: true})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("tvc called %d times, want 3", calls)
	}
	if len(res.Prices) != 2 {
		t.Errorf("got %d prices, want 2 after retries", len(res.Prices))
	}
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	src := &Source{Client: server.Client(), Discovery: server.Client(), TVCHost: server.URL}
	res, err := src.Fetch(navtrack.Request{Ref: "https://example.com", Hint: "9527", Full: true})
	if err != nil {
		t.Fatalf("exhausted retries must degrade to no data, got error %v", err)
	}
	if len(res.Prices) != 0 {
		t.Errorf("got %d prices, want 0", len(res.Prices))
	}
	if calls != attempts {
		t.Errorf("tvc called %d times, want %d", calls, attempts)
	}
}
