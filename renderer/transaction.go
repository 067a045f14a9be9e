package renderer

import (
	"fmt"
	"strings"

	"github.com/adav/coinjournal"
)

// Transaction renders a single trade as a one-line description.
func Transaction(tx coinjournal.Transaction) string {
	verb := "bought"
	if tx.Kind == coinjournal.Sell {
		verb = "sold"
	}
	return fmt.Sprintf("%s: %s %s %s at %s (%s)",
		tx.Date.Format("2006-01-02 15:04"), verb, tx.Amount, tx.Asset, tx.Price, tx.Cost())
}

// Transactions renders a trade list as a markdown table.
func Transactions(txs []coinjournal.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transactions (%d)\n\n", len(txs))
	fmt.Fprintln(&b, "| Date | Asset | Kind | Amount | Price | Total |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|")
	for _, tx := range txs {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			tx.Date.Format("2006-01-02 15:04"), tx.Asset, tx.Kind, tx.Amount, tx.Price, tx.Cost())
	}
	return b.String()
}
