package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adav/coinjournal"
	"github.com/adav/coinjournal/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	prices  string
	jsonOut bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio-level metrics rollup" }
func (*summaryCmd) Usage() string {
	return `cj summary [-p <asset=price,...>] [-json]

  Replays every asset in the journal and aggregates the results. Assets
  without a quoted price fall back to their last traded price.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.prices, "p", "", "Comma-separated asset=price quotes (e.g. BTC=64000,ETH=3200)")
	f.BoolVar(&c.jsonOut, "json", false, "Output the raw metrics record as JSON")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeJournal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading journal: %v\n", err)
		return subcommands.ExitFailure
	}

	prices, err := parseQuotes(c.prices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -p quotes: %v\n", err)
		return subcommands.ExitUsageError
	}

	metrics := ledger.UserMetrics(prices, time.Now())

	if c.jsonOut {
		b, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding metrics: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(b))
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.SummaryMarkdown(&metrics))
	return subcommands.ExitSuccess
}

// parseQuotes reads a "BTC=64000,ETH=3200" flag value into a price map.
func parseQuotes(s string) (map[string]coinjournal.Money, error) {
	prices := make(map[string]coinjournal.Money)
	if s == "" {
		return prices, nil
	}
	for _, quote := range strings.Split(s, ",") {
		asset, value, ok := strings.Cut(quote, "=")
		if !ok {
			return nil, fmt.Errorf("quote %q is not of the form asset=price", quote)
		}
		p, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("invalid price in quote %q: %w", quote, err)
		}
		prices[strings.TrimSpace(asset)] = coinjournal.M(p)
	}
	return prices, nil
}
