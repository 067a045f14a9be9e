// Package cmd implements the CLI application to manage a crypto trading
// journal and report on its positions.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/adav/coinjournal"
	"github.com/google/subcommands"
)

// Commands lists the subcommands of the cj tool, in help order.
var Commands = []subcommands.Command{
	&buyCmd{},
	&sellCmd{},
	&txCmd{},
	&fmtCmd{},
	&assetCmd{},
	&summaryCmd{},
	&getCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use a global flag for the journal location.

var journalFile = flag.String("journal-file", "journal.jsonl", "Path to the journal file containing trades (JSONL format)")

// DecodeJournal loads the app journal file into a sorted ledger. A missing
// file yields an empty ledger, not an error.
func DecodeJournal() (*coinjournal.Ledger, error) {
	f, err := os.Open(*journalFile)
	if errors.Is(err, fs.ErrNotExist) {
		return coinjournal.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open journal %q: %w", *journalFile, err)
	}
	defer f.Close()
	return coinjournal.DecodeJournal(f)
}

// EncodeTransaction appends a single trade to the app journal file.
func EncodeTransaction(tx coinjournal.Transaction) subcommands.ExitStatus {
	f, err := os.OpenFile(*journalFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal file %q: %v\n", *journalFile, err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	if err := coinjournal.EncodeTransaction(f, tx); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to journal file %q: %v\n", *journalFile, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Successfully appended transaction to %s\n", *journalFile)
	return subcommands.ExitSuccess
}
