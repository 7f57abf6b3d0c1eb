package navtrack

import (
	"iter"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// Observation is a single (date, close) price point as reported by a source.
type Observation struct {
	Date  Date
	Close decimal.Decimal
}

// Series stores a chronological series of closing prices, one per date.
// Dates are unique and the series is always sorted in chronological order.
// The zero value is an empty series ready to use.
type Series struct {
	days   []Date
	values []decimal.Decimal
}

// Len returns the number of points in the series.
func (s *Series) Len() int { return len(s.days) }

// Latest returns the latest date and price in the series.
// If the series is empty, it returns zero values.
func (s *Series) Latest() (day Date, price decimal.Decimal) {
	last := len(s.days) - 1
	if last < 0 {
		return Date{}, decimal.Decimal{}
	}
	return s.days[last], s.values[last]
}

// Get returns the price at 'day' and true, or zero value and false.
func (s *Series) Get(day Date) (decimal.Decimal, bool) {
	if i := slices.Index(s.days, day); i >= 0 {
		return s.values[i], true
	}
	return decimal.Decimal{}, false
}

// Append adds a point to the series.
//
// An existing price at that date is overwritten: the last writer wins.
func (s *Series) Append(on Date, price decimal.Decimal) *Series {
	if i := slices.Index(s.days, on); i >= 0 {
		s.values[i] = price
		return s
	}
	s.days, s.values = append(s.days, on), append(s.values, price)
	s.sort()
	return s
}

// chronological is a private implementation to keep the series chronologically sorted.
type chronological struct{ *Series }

func (c chronological) Len() int           { return len(c.days) }
func (c chronological) Less(i, j int) bool { return c.days[i].Before(c.days[j]) }
func (c chronological) Swap(i, j int) {
	c.days[i], c.days[j] = c.days[j], c.days[i]
	c.values[i], c.values[j] = c.values[j], c.values[i]
}

func (s *Series) sort() { sort.Sort(chronological{s}) }

// Values returns an iterator over all date/price pairs, in chronological order.
func (s *Series) Values() iter.Seq2[Date, decimal.Decimal] {
	return func(yield func(Date, decimal.Decimal) bool) {
		for i, on := range s.days {
			if !yield(on, s.values[i]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the series.
func (s *Series) Clone() *Series {
	return &Series{
		days:   slices.Clone(s.days),
		values: slices.Clone(s.values),
	}
}

// Equal reports whether two series hold the same dates and the same prices.
// Prices are compared by value, so 10.5 and 10.50 are equal.
func (s *Series) Equal(o *Series) bool {
	if len(s.days) != len(o.days) {
		return false
	}
	for i, on := range s.days {
		if on != o.days[i] || !s.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// Merge combines an existing series with freshly scraped source observations
// into one authoritative series.
//
// Sources are applied in the given order, and every observation
// unconditionally overwrites any prior value for that date, including
// pre-existing history and earlier sources of the same run. Duplicate dates
// are therefore resolved purely by call order: the last applied source wins.
// An empty source is a no-op, it never clears existing history.
//
// There is deliberately no plausibility check against neighboring points:
// whatever a source returns for a date is taken as is.
func Merge(existing *Series, sources ...[]Observation) *Series {
	working := existing.Clone()
	for _, source := range sources {
		for _, obs := range source {
			working.Append(obs.Date, obs.Close)
		}
	}
	return working
}
