package navtrack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sources render numbers in whatever locale their page happens to use:
// "32.763 EUR", "32,763", "87,06 €". ParseDecimal extracts the first number
// from such a cell and normalizes the decimal separator.

var numberRE = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

// ParseDecimal extracts a decimal number from a scraped cell text.
func ParseDecimal(text string) (decimal.Decimal, error) {
	m := numberRE.FindString(strings.ReplaceAll(text, " ", ""))
	if m == "" {
		return decimal.Decimal{}, fmt.Errorf("no number found in %q", text)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q in %q: %w", m, text, err)
	}
	return d, nil
}
