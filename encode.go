package navtrack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// This file contains the canonical encoding of the two persisted documents:
// the per-fund price document and the metadata document.
//
// Canonical means deterministic: unchanged semantic content always produces
// byte-identical output (stable key order, fixed indentation, trailing
// newline). This is what makes "persist only if changed" a cheap byte
// comparison, and keeps the data diffs in version control quiet.

// ErrFormat reports a malformed persisted document or observation.
var ErrFormat = errors.New("invalid document format")

// pricePoint is the on-disk shape of one price observation.
// Fields are declared in sorted key order on purpose.
type pricePoint struct {
	Close json.Number `json:"close"`
	Date  string      `json:"date"`
}

// EncodeSeries renders a series as the canonical price document: a JSON list
// of {"close", "date"} objects sorted by date descending, 2-space indent,
// trailing newline.
func EncodeSeries(s *Series) ([]byte, error) {
	rows := make([]pricePoint, 0, s.Len())
	// Iterate backwards: the series is chronological, the document is newest first.
	for i := s.Len() - 1; i >= 0; i-- {
		rows = append(rows, pricePoint{
			Close: json.Number(s.values[i].String()),
			Date:  s.days[i].String(),
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot marshal price document: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSeries parses a canonical price document back into a series.
// Any non-date key or non-numeric price fails the whole document with ErrFormat.
func DecodeSeries(data []byte) (*Series, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []pricePoint
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	s := new(Series)
	for _, row := range rows {
		on, err := ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		price, err := decimal.NewFromString(row.Close.String())
		if err != nil {
			return nil, fmt.Errorf("%w: price %q on %s is not a number: %v", ErrFormat, row.Close, row.Date, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: negative price %s on %s", ErrFormat, price, row.Date)
		}
		s.Append(on, price)
	}
	return s, nil
}

// EncodeMetadata renders the metadata document in canonical form.
// encoding/json sorts map keys, which gives the stable key order for free.
func EncodeMetadata(m *Metadata) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot marshal metadata document: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeMetadata parses a metadata document. Numbers are kept as json.Number
// so that re-encoding an unchanged document is byte-identical.
func DecodeMetadata(data []byte) (*Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	m := new(Metadata)
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if m.Funds == nil {
		m.Funds = make(map[string]Attributes)
	}
	return m, nil
}
