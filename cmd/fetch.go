package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"navtrack"

	"github.com/google/subcommands"
)

// fetchCmd queries one source for one reference and prints what comes back.
// It bypasses the stores entirely, which makes it the tool of choice to debug
// a site that stopped returning data.
type fetchCmd struct {
	source   string
	full     bool
	lookback int
}

func (*fetchCmd) Name() string { return "fetch" }
func (*fetchCmd) Synopsis() string {
	return "fetch prices from a single source without touching the data folder"
}
func (*fetchCmd) Usage() string {
	return `navt fetch -source <name> [-full] [-lookback <days>] <ref>

  Queries one source with the given reference (a symbol for ft, a page URL
  for the others) and prints the observations, without persisting anything.

Usage Examples:
# Check what FT currently returns for a symbol.
$ navt fetch -source ft F0GBR04ENX:EUR

`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "Source to query (ariva, investing, fundsquare, ft).")
	f.BoolVar(&c.full, "full", false, "Request the entire available history.")
	f.IntVar(&c.lookback, "lookback", navtrack.DefaultLookbackDays, "Days of history to request.")
}

func (c *fetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "want exactly one reference argument")
		return subcommands.ExitUsageError
	}
	src := sourceByName(c.source)
	if src == nil {
		fmt.Fprintf(os.Stderr, "unknown source %q\n", c.source)
		return subcommands.ExitUsageError
	}

	today := navtrack.Today()
	res, err := src.Fetch(navtrack.Request{
		Ref:   f.Arg(0),
		Range: navtrack.NewRange(today.Add(-c.lookback), today),
		Full:  c.full,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if res.Name != "" {
		fmt.Println("name:", res.Name)
	}
	if res.Currency != "" {
		fmt.Println("currency:", res.Currency)
	}
	if res.Hint != "" {
		fmt.Println("id:", res.Hint)
	}
	series := navtrack.Merge(new(navtrack.Series), res.Prices)
	for day, close := range series.Values() {
		fmt.Printf("%s %s\n", day, close)
	}
	fmt.Printf("%d observations\n", series.Len())
	return subcommands.ExitSuccess
}
