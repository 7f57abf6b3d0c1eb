package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"navtrack"

	"github.com/google/subcommands"
)

type updateCmd struct {
	fullRefresh bool
	lookback    int
	strict      bool
}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "fetch the latest prices from all sources and persist what changed"
}
func (*updateCmd) Usage() string {
	return `navt update [-full-refresh] [-lookback <days>] [-strict]

  Updates the price document of every fund listed in the funds file. Each
  configured source is queried, the observations are merged (the last source
  wins on conflicting dates) and the document is rewritten only when its
  content changed.

Usage Examples:
# Incremental daily run.
$ navt update

# Rebuild the whole history from scratch.
$ navt update -full-refresh

`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.fullRefresh, "full-refresh", envBool("NAVTRACK_FULL_REFRESH"),
		"Refetch the entire available history instead of the incremental window.")
	f.IntVar(&c.lookback, "lookback", envInt("NAVTRACK_LOOKBACK_DAYS", navtrack.DefaultLookbackDays),
		"Days before the latest persisted price to re-request, so late corrections land.")
	f.BoolVar(&c.strict, "strict", envBool("NAVTRACK_STRICT"),
		"Abort the run when the primary source returns nothing for a fund without history.")
}

func (c *updateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}

	funds, err := navtrack.LoadFunds(*fundsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	updater := &navtrack.Updater{
		Prices:       priceStore(),
		Meta:         metadataStore(),
		Sources:      sources(),
		FullRefresh:  c.fullRefresh,
		LookbackDays: c.lookback,
		Strict:       c.strict,
	}
	summary, err := updater.Run(funds)
	if summary == nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	for _, report := range summary.Reports {
		fmt.Printf("%s: %d points (changed=%v)\n", report.ISIN, report.Merged, report.Changed)
	}
	if !summary.Changed {
		fmt.Println("everything already up to date")
	}

	if err != nil {
		// The run completed but some funds or sources degraded.
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
