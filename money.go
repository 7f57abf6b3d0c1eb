package navtrack

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ValidCurrency reports whether code is a known ISO-4217 currency code.
// Sources derive the currency from symbol suffixes, which sometimes yields
// garbage like "ACC"; only validated codes are stored in the metadata.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FormatAmount renders a price with its currency symbol, e.g. "€32.76".
// An unknown or empty currency falls back to the bare number.
func FormatAmount(value decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return value.String()
	}
	// money counts in minor units (cents).
	minor := value.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}
