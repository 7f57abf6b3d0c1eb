package navtrack

import (
	"errors"
	"fmt"
	"log"
)

// This file contains the run orchestration: iterate the configured funds,
// query each source, merge, and persist what changed.

// ErrPrimaryEmpty is returned in strict mode when the primary source yields
// no observation for a fund that has no history at all. It surfaces systemic
// breakage (site redesign, blocking) early instead of silently persisting an
// empty series.
var ErrPrimaryEmpty = errors.New("primary source returned no observation for a fund without history")

// Updater runs a full update over the configured funds. It owns the stores
// and the source list, and accumulates the metadata document across the loop
// with a single flush point at the end.
type Updater struct {
	Prices *PriceStore
	Meta   *MetadataStore

	// Sources in precedence order: they are applied to the merge in this
	// order, so the last one wins on same-date conflicts and acts as the
	// primary source for strict mode.
	Sources []Source

	FullRefresh  bool
	LookbackDays int

	// Strict aborts the whole run on ErrPrimaryEmpty instead of carrying on.
	Strict bool
}

// FundReport sums up what happened to one fund during a run.
type FundReport struct {
	ISIN    string
	Fetched map[string]int // observations per source name
	Merged  int            // points in the merged series
	Changed bool           // whether the persisted document changed
}

// Summary is the run-level outcome.
type Summary struct {
	Reports []FundReport
	Changed bool // whether anything on disk changed
}

// Run updates every configured fund, sequentially. A failing source degrades
// to zero observations for that fund, a failing persistence is fatal for
// that fund only; both are reported in the joined error without stopping the
// run. Only a strict-mode violation aborts.
func (u *Updater) Run(funds []Fund) (*Summary, error) {
	if len(funds) == 0 {
		return nil, errors.New("no funds configured")
	}

	meta := u.Meta.Load()
	summary := &Summary{}
	var errs error

	// Garbage collect funds that were removed from the configuration.
	active := make([]string, 0, len(funds))
	for _, f := range funds {
		active = append(active, f.ISIN)
	}
	gcChanged, err := u.Prices.GC(active)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	meta.GC(active)
	summary.Changed = summary.Changed || gcChanged

	for _, fund := range funds {
		report := FundReport{ISIN: fund.ISIN, Fetched: make(map[string]int)}

		existing, err := u.Prices.Load(fund.ISIN)
		if err != nil {
			// A malformed document is rebuilt from scratch rather than
			// blocking the fund forever.
			log.Printf("fund=%s %v; starting over with an empty series", fund.ISIN, err)
			errs = errors.Join(errs, err)
			existing = new(Series)
		}

		rng, full := PlanFetch(existing, u.FullRefresh, u.LookbackDays)

		observations := make([][]Observation, 0, len(u.Sources))
		for _, src := range u.Sources {
			ref := fund.Ref(src.Name())
			if ref == "" {
				continue // fund not configured on this source
			}
			meta.Set(fund.ISIN, src.Name()+"_ref", ref)

			res, err := src.Fetch(Request{
				Ref:   ref,
				Range: rng,
				Full:  full,
				Hint:  meta.Fund(fund.ISIN).GetString(src.Name() + "_id"),
			})
			if err != nil {
				// Recovered locally: a broken source must not abort the
				// fund, let alone the run.
				log.Printf("fund=%s source=%s fetch failed: %v", fund.ISIN, src.Name(), err)
				errs = errors.Join(errs, fmt.Errorf("fund %s source %s: %w", fund.ISIN, src.Name(), err))
				res = Result{}
			}
			observations = append(observations, res.Prices)
			report.Fetched[src.Name()] = len(res.Prices)
			log.Printf("fund=%s source=%s fetched=%d", fund.ISIN, src.Name(), len(res.Prices))

			u.foldResult(meta, fund.ISIN, src.Name(), res)
		}

		if u.Strict && len(u.Sources) > 0 && existing.Len() == 0 {
			if primary := u.Sources[len(u.Sources)-1]; fund.Ref(primary.Name()) != "" && report.Fetched[primary.Name()] == 0 {
				return nil, fmt.Errorf("fund %s source %s: %w", fund.ISIN, primary.Name(), ErrPrimaryEmpty)
			}
		}

		merged := Merge(existing, observations...)
		report.Merged = merged.Len()

		changed, err := u.Prices.SaveIfChanged(fund.ISIN, merged)
		if err != nil {
			log.Printf("fund=%s persist failed: %v", fund.ISIN, err)
			errs = errors.Join(errs, fmt.Errorf("fund %s: %w", fund.ISIN, err))
		}
		report.Changed = changed
		summary.Changed = summary.Changed || changed
		log.Printf("fund=%s merged=%d changed=%v", fund.ISIN, report.Merged, changed)

		summary.Reports = append(summary.Reports, report)
	}

	// Single flush point for the metadata accumulated across the loop. The
	// file comparison decides whether the document really changed.
	metaChanged, err := u.Meta.SaveIfChanged(meta)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	summary.Changed = summary.Changed || metaChanged

	log.Printf("run done funds=%d changed=%v", len(funds), summary.Changed)
	return summary, errs
}

// foldResult merges the metadata fragment of one source result into the
// document.
func (u *Updater) foldResult(meta *Metadata, isin, source string, res Result) {
	if res.Hint != "" {
		meta.Set(isin, source+"_id", res.Hint)
	}
	if res.Name != "" {
		meta.Set(isin, "name", res.Name)
	}
	if res.Currency != "" && ValidCurrency(res.Currency) {
		meta.Set(isin, "currency", res.Currency)
	}
}
