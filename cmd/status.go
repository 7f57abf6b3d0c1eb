package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"navtrack"

	"github.com/google/subcommands"
)

type statusCmd struct{}

func (*statusCmd) Name() string { return "status" }
func (*statusCmd) Synopsis() string {
	return "show the latest persisted price of every tracked fund"
}
func (*statusCmd) Usage() string {
	return `navt status

  Renders a table with, for each fund in the funds file, its resolved name
  and the latest price on record. Reads only the data folder, nothing is
  fetched.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {}

func (c *statusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}

	funds, err := navtrack.LoadFunds(*fundsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	prices := priceStore()
	meta := metadataStore().Load()

	var b strings.Builder
	b.WriteString("# Tracked funds\n\n")
	b.WriteString("| ISIN | Name | Date | Close |\n")
	b.WriteString("|------|------|------|-------|\n")
	for _, fund := range funds {
		attrs := meta.Fund(fund.ISIN)
		name := attrs.GetString("name")
		if name == "" {
			name = "?"
		}

		day, close := "-", "-"
		series, err := prices.Load(fund.ISIN)
		if err != nil {
			day, close = "corrupt", "-"
		} else if series.Len() > 0 {
			latestDay, latestClose := series.Latest()
			day = latestDay.String()
			close = navtrack.FormatAmount(latestClose, attrs.GetString("currency"))
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", fund.ISIN, name, day, close)
	}
	printMarkdown(b.String())

	return subcommands.ExitSuccess
}
