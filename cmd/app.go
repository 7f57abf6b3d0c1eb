// Package cmd implements the CLI application to track fund prices.
package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"navtrack"
	"navtrack/ariva"
	"navtrack/ft"
	"navtrack/fundsquare"
	"navtrack/investing"

	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package calls Register() to install them, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&updateCmd{}, "prices")
	c.Register(&fetchCmd{}, "prices")
	c.Register(&statusCmd{}, "prices")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dataDir = flag.String("data-dir", "data", "Path to the folder holding the per-fund price documents")
var fundsFile = flag.String("funds-file", "funds.csv", "Path to the csv file listing the tracked funds")

func priceStore() *navtrack.PriceStore {
	return &navtrack.PriceStore{Dir: *dataDir}
}

func metadataStore() *navtrack.MetadataStore {
	return &navtrack.MetadataStore{Path: filepath.Join(*dataDir, "funds_metadata.json")}
}

// sources returns the adapters in precedence order. Later sources win on
// same-date conflicts, so the most reliable one comes last and doubles as the
// primary source for -strict.
func sources() []navtrack.Source {
	return []navtrack.Source{
		ariva.New(),
		investing.New(),
		fundsquare.New(),
		ft.New(),
	}
}

func sourceByName(name string) navtrack.Source {
	for _, s := range sources() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// envBool reads a boolean environment variable used as a flag default, so
// scheduled runs can be configured without editing the command line.
func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// envInt reads an integer environment variable used as a flag default.
func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
