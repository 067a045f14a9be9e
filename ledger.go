package coinjournal

import (
	"iter"
	"slices"
	"sort"
	"time"
)

// Ledger represents a journal of trades, possibly spanning several assets.
//
// In a Ledger transactions are always in chronological order.
type Ledger struct {
	transactions []Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{transactions: make([]Transaction, 0)}
}

// Append adds transactions to the ledger and restores chronological order.
func (l *Ledger) Append(txs ...Transaction) {
	l.transactions = append(l.transactions, txs...)
	l.stableSort()
}

// stableSort sorts the ledger by transaction date. The sort is stable:
// same-day trades keep the order they were recorded in.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Date.Before(l.transactions[j].Date)
	})
}

// Transactions returns all transactions in chronological order.
func (l *Ledger) Transactions() []Transaction {
	return slices.Clone(l.transactions)
}

// AssetTransactions returns the chronological transactions for one asset.
func (l *Ledger) AssetTransactions(asset string) []Transaction {
	var txs []Transaction
	for _, tx := range l.transactions {
		if tx.Asset == asset {
			txs = append(txs, tx)
		}
	}
	return txs
}

// Assets iterates over the distinct asset tickers in the ledger, in
// alphabetical order.
func (l *Ledger) Assets() iter.Seq[string] {
	seen := make(map[string]struct{})
	var tickers []string
	for _, tx := range l.transactions {
		if _, ok := seen[tx.Asset]; !ok {
			seen[tx.Asset] = struct{}{}
			tickers = append(tickers, tx.Asset)
		}
	}
	sort.Strings(tickers)
	return func(yield func(string) bool) {
		for _, t := range tickers {
			if !yield(t) {
				return
			}
		}
	}
}

// LastTradedPrice returns the most recent transaction price for an asset.
// It is the documented fallback when no live market price is available.
func (l *Ledger) LastTradedPrice(asset string) (Money, bool) {
	for i := len(l.transactions) - 1; i >= 0; i-- {
		if l.transactions[i].Asset == asset {
			return l.transactions[i].Price, true
		}
	}
	return Money{}, false
}

// OldestTransactionDate returns the date of the first transaction, or the
// zero time for an empty ledger.
func (l *Ledger) OldestTransactionDate() time.Time {
	if len(l.transactions) == 0 {
		return time.Time{}
	}
	return l.transactions[0].Date
}

// NewestTransactionDate returns the date of the last transaction, or the
// zero time for an empty ledger.
func (l *Ledger) NewestTransactionDate() time.Time {
	if len(l.transactions) == 0 {
		return time.Time{}
	}
	return l.transactions[len(l.transactions)-1].Date
}

// AssetMetrics replays one asset's history against the given price.
// See ComputeAssetMetrics for the price fallback rule applied when price is
// the zero Money.
func (l *Ledger) AssetMetrics(asset string, price Money, now time.Time) AssetMetrics {
	if price.IsZero() {
		if last, ok := l.LastTradedPrice(asset); ok {
			price = last
		}
	}
	m := ComputeAssetMetrics(l.AssetTransactions(asset), price, now)
	m.Asset = asset
	return m
}

// UserMetrics replays every asset in the ledger and aggregates the results.
// Prices maps asset tickers to current market prices; assets missing from
// it fall back to their last traded price.
func (l *Ledger) UserMetrics(prices map[string]Money, now time.Time) UserMetrics {
	var all []AssetMetrics
	for asset := range l.Assets() {
		all = append(all, l.AssetMetrics(asset, prices[asset], now))
	}
	return AggregateUserMetrics(all, nil)
}
