package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/adav/coinjournal"
	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "rewrites the journal file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `cj fmt

  Reads all journal records, sorts them by date, and writes them back in
  a canonical JSONL format. Unreadable lines are dropped with a warning.
`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (c *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeJournal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading journal: %v\n", err)
		return subcommands.ExitFailure
	}

	tmp := *journalFile + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", tmp, err)
		return subcommands.ExitFailure
	}
	if err := coinjournal.EncodeJournal(out, ledger); err != nil {
		out.Close()
		os.Remove(tmp)
		fmt.Fprintf(os.Stderr, "Error writing journal: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing %q: %v\n", tmp, err)
		return subcommands.ExitFailure
	}
	if err := os.Rename(tmp, *journalFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error replacing journal: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Formatted %d transactions in %s\n", len(ledger.Transactions()), *journalFile)
	return subcommands.ExitSuccess
}
