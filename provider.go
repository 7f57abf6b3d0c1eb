package navtrack

// Request identifies what a source adapter should fetch.
type Request struct {
	// Ref is the per-source identifier of the fund: a symbol for ft, a full
	// page URL for the others. Callers never pass an empty Ref, they skip
	// the source instead.
	Ref string

	// Range bounds the observations to fetch. Ignored when Full is set.
	Range Range

	// Full requests the entire available history instead of Range.
	Full bool

	// Hint is the source's cached internal identifier from a previous run
	// (numeric symbol, instrument id). Empty when unknown; the adapter then
	// performs its own discovery.
	Hint string
}

// Result is what a source adapter hands back.
type Result struct {
	// Prices are the fetched observations, not necessarily sorted nor
	// deduplicated. Empty means "no data", which is never an error.
	Prices []Observation

	// Name and Currency are optional metadata fragments, set only when the
	// source happened to resolve them.
	Name     string
	Currency string

	// Hint is a discovered internal identifier worth caching for the next
	// run, or "" when there is nothing new to cache.
	Hint string
}

// Source is one external site providing historical price observations.
//
// Implementations return an error only for truly exceptional conditions.
// Ordinary "no data" is an empty Result, and individual unparseable rows are
// dropped while sibling rows are kept.
type Source interface {
	Name() string
	Fetch(req Request) (Result, error)
}
