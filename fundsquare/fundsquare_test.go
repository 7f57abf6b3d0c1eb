package fundsquare

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"navtrack"
)

const testPage = `<!DOCTYPE html><html><body>
<table class="tabHorizontal">
  <tr><th>NAV date</th><th>NAV</th><th>Currency</th></tr>
  <tr><td>02/01/2024</td><td>123.45</td><td>EUR</td></tr>
  <tr><td>03/01/2024</td><td>123,70</td><td>EUR</td></tr>
  <tr><td>garbage</td><td>123.99</td><td>EUR</td></tr>
</table>
</body></html>`

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer server.Close()

	src := &Source{Client: server.Client()}
	res, err := src.Fetch(navtrack.Request{Ref: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Prices) != 2 {
		t.Fatalf("got %d prices, want 2 (the garbage row is dropped)", len(res.Prices))
	}
	if got, want := res.Prices[0].Date, navtrack.MustParseDate("2024-01-02"); got != want {
		t.Errorf("first date = %s, want %s", got, want)
	}
	if got, want := res.Prices[1].Close.String(), "123.70"; got != want {
		t.Errorf("second close = %s, want %s", got, want)
	}
}

func TestFetchNoTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!DOCTYPE html><html><body>nothing here</body></html>`)
	}))
	defer server.Close()

	src := &Source{Client: server.Client()}
	res, err := src.Fetch(navtrack.Request{Ref: server.URL})
	if err != nil {
		t.Fatalf("a missing table must degrade to no data, got error %v", err)
	}
	if len(res.Prices) != 0 {
		t.Errorf("got %d prices, want 0", len(res.Prices))
	}
}

func TestFetchPositionalFallback(t *testing.T) {
	// Same table without recognizable headers: first two cells per row.
	page := `<table class="tabHorizontal">
  <tr><td>02/01/2024</td><td>123.45</td><td>EUR</td></tr>
</table>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	src := &Source{Client: server.Client()}
	res, err := src.Fetch(navtrack.Request{Ref: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Prices) != 1 {
		t.Fatalf("got %d prices, want 1", len(res.Prices))
	}
	if got, want := res.Prices[0].Close.String(), "123.45"; got != want {
		t.Errorf("close = %s, want %s", got, want)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"02/01/2024", "2024-01-02"},
		{"02.01.2024", "2024-01-02"},
		{"02 01 2024", "2024-01-02"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseDate(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if want := navtrack.MustParseDate(tc.want); got != want {
				t.Errorf("parseDate(%q) = %s, want %s", tc.in, got, want)
			}
		})
	}

	if _, err := parseDate("2024"); err == nil {
		t.Errorf("want an error on truncated digits")
	}
}
