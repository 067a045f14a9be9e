package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/adav/coinjournal"
	"github.com/adav/coinjournal/renderer"
	"github.com/google/subcommands"
)

// txCmd holds the flags for the 'tx' subcommand.
type txCmd struct {
	asset string
	head  int
	tail  int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions in the journal" }
func (*txCmd) Usage() string {
	return `cj tx [-a <asset>] [-head <n> | -tail <n>]

  Lists journal transactions in chronological order, with options for
  filtering and limiting the output.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "Show only this asset's transactions.")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeJournal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading journal: %v\n", err)
		return subcommands.ExitFailure
	}

	var transactions []coinjournal.Transaction
	if c.asset != "" {
		transactions = ledger.AssetTransactions(c.asset)
	} else {
		transactions = ledger.Transactions()
	}

	if c.head > 0 && len(transactions) > c.head {
		transactions = transactions[:c.head]
	}
	if c.tail > 0 && len(transactions) > c.tail {
		transactions = transactions[len(transactions)-c.tail:]
	}

	printMarkdown(renderer.Transactions(transactions))
	return subcommands.ExitSuccess
}
