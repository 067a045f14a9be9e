package coinjournal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DecodeJournal reads a JSONL journal from r, one transaction per line,
// and returns a sorted Ledger. Lines that are not JSON objects are skipped
// with a warning; within a valid line, dirty fields coerce to zero. The
// journal is user-editable, so decoding is deliberately forgiving.
func DecodeJournal(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var tx Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			log.Printf("journal line %d: skipping unreadable record: %v", line, err)
			continue
		}
		ledger.Append(tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read journal: %w", err)
	}
	return ledger, nil
}

// EncodeTransaction appends a single transaction to w in JSONL form.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	b, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("could not encode transaction: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("could not write transaction: %w", err)
	}
	return nil
}

// EncodeJournal writes the whole ledger to w in canonical, chronologically
// sorted JSONL form.
func EncodeJournal(w io.Writer, l *Ledger) error {
	for _, tx := range l.Transactions() {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
