package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/adav/coinjournal"
	"github.com/adav/coinjournal/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// assetCmd holds the flags for the 'asset' subcommand.
type assetCmd struct {
	asset   string
	price   string
	jsonOut bool
}

func (*assetCmd) Name() string     { return "asset" }
func (*assetCmd) Synopsis() string { return "display position and PnL metrics for one asset" }
func (*assetCmd) Usage() string {
	return `cj asset -a <asset> [-p <price>] [-json]

  Replays the asset's trade history into its metrics record. Without -p
  the most recent transaction price stands in for the market price.
`
}

func (c *assetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "Asset ticker to report on")
	f.StringVar(&c.price, "p", "", "Current market price (defaults to the last traded price)")
	f.BoolVar(&c.jsonOut, "json", false, "Output the raw metrics record as JSON")
}

func (c *assetCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" {
		fmt.Fprintln(os.Stderr, "Error: missing -a asset ticker")
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeJournal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading journal: %v\n", err)
		return subcommands.ExitFailure
	}

	var price coinjournal.Money
	if c.price != "" {
		p, err := decimal.NewFromString(c.price)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
			return subcommands.ExitUsageError
		}
		price = coinjournal.M(p)
	}

	metrics := ledger.AssetMetrics(c.asset, price, time.Now())

	if c.jsonOut {
		b, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding metrics: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(b))
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.AssetMarkdown(&metrics))
	return subcommands.ExitSuccess
}
