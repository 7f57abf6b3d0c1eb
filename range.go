package navtrack

import "time"

// DefaultLookbackDays is the incremental fetch window: a run re-requests this
// many days before the latest persisted price, so late corrections published
// by a source still land.
const DefaultLookbackDays = 14

// floorDate is the fixed minimum date an incremental fetch start is clamped
// to. No tracked fund has history before it.
var floorDate = NewDate(2000, time.January, 1)

// PlanFetch computes the range to request from the source adapters.
//
// A full fetch (entire available history) happens when explicitly asked, or
// when there is no persisted history to extend. Otherwise the range starts a
// lookback window before the latest persisted date, clamped to the floor
// date, and ends today.
func PlanFetch(existing *Series, fullRefresh bool, lookbackDays int) (rng Range, full bool) {
	if fullRefresh || existing.Len() == 0 {
		return Range{}, true
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	latest, _ := existing.Latest()
	start := latest.Add(-lookbackDays)
	if start.Before(floorDate) {
		start = floorDate
	}
	return NewRange(start, Today()), false
}
