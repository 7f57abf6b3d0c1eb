package navtrack

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Fund is one configured instrument: a stable isin plus the per-source
// references used to look it up on each site.
type Fund struct {
	ISIN string
	// Refs maps a source name (a csv column header) to the symbol or URL for
	// that source. A missing or empty ref means the source is skipped for
	// this fund.
	Refs map[string]string
}

// Ref returns the reference for a source, or "" when the fund is not
// configured on that source.
func (f Fund) Ref(source string) string { return f.Refs[source] }

// ReadFunds parses the fund configuration from csv. The first row is a
// header; an "isin" column is required and every other column is taken as a
// source name. Rows with a blank isin are skipped; a duplicated isin keeps
// the last row.
func ReadFunds(r io.Reader) ([]Fund, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse funds csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("funds csv is empty, want a header with at least an %q column", "isin")
	}

	header := records[0]
	isinCol := -1
	for i, name := range header {
		if strings.TrimSpace(strings.ToLower(name)) == "isin" {
			isinCol = i
		}
	}
	if isinCol < 0 {
		return nil, fmt.Errorf("funds csv is missing the %q column", "isin")
	}

	index := make(map[string]int) // isin -> position in funds, last row wins
	var funds []Fund
	for _, record := range records[1:] {
		if isinCol >= len(record) {
			continue
		}
		isin := strings.TrimSpace(record[isinCol])
		if isin == "" {
			continue
		}
		f := Fund{ISIN: isin, Refs: make(map[string]string)}
		for i, name := range header {
			if i == isinCol || i >= len(record) {
				continue
			}
			if ref := strings.TrimSpace(record[i]); ref != "" {
				f.Refs[strings.TrimSpace(strings.ToLower(name))] = ref
			}
		}
		if at, ok := index[isin]; ok {
			funds[at] = f
			continue
		}
		index[isin] = len(funds)
		funds = append(funds, f)
	}
	return funds, nil
}

// LoadFunds reads the fund configuration from a csv file.
func LoadFunds(path string) ([]Fund, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open funds file %q: %w", path, err)
	}
	defer f.Close()
	funds, err := ReadFunds(f)
	if err != nil {
		return nil, fmt.Errorf("funds file %q: %w", path, err)
	}
	return funds, nil
}
