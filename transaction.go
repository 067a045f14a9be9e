package coinjournal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TradeKind is a typed string identifying the side of a trade.
type TradeKind string

const (
	Buy  TradeKind = "buy"
	Sell TradeKind = "sell"
)

// ParseTradeKind parses a string into a TradeKind.
func ParseTradeKind(s string) (TradeKind, error) {
	switch TradeKind(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade kind: %q", s)
	}
}

// DatetimeFormat is the format used to persist transaction dates.
const DatetimeFormat = time.RFC3339

// dayFormat is the permissive fallback for hand-edited journals.
const dayFormat = "2006-01-02"

// Transaction is a single buy or sell record in an asset's history.
// It is an immutable input: the engine never mutates transactions, it
// replays them.
type Transaction struct {
	Date   time.Time // when the trade happened
	Asset  string    // ticker of the traded asset (e.g. "BTC")
	Kind   TradeKind // buy or sell
	Amount Quantity  // units traded, always positive
	Price  Money     // unit price paid or received
}

// NewBuy creates a buy transaction.
func NewBuy(date time.Time, asset string, amount Quantity, price Money) Transaction {
	return Transaction{Date: date, Asset: asset, Kind: Buy, Amount: amount, Price: price}
}

// NewSell creates a sell transaction.
func NewSell(date time.Time, asset string, amount Quantity, price Money) Transaction {
	return Transaction{Date: date, Asset: asset, Kind: Sell, Amount: amount, Price: price}
}

// Cost returns the transaction's total value (amount times unit price).
func (t Transaction) Cost() Money { return t.Amount.Mul(t.Price) }

func (t Transaction) Equal(o Transaction) bool {
	return t.Date.Equal(o.Date) &&
		t.Asset == o.Asset &&
		t.Kind == o.Kind &&
		t.Amount.Equal(o.Amount) &&
		t.Price.Equal(o.Price)
}

// MarshalJSON implements the json.Marshaler interface with a stable field
// order for canonical journal files.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", t.Date.Format(DatetimeFormat))
	w.Optional("asset", t.Asset)
	w.Append("kind", t.Kind)
	w.Append("amount", t.Amount)
	w.Append("price", t.Price)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface. Decoding is
// defensive: missing or non-numeric amount and price coerce to zero, and a
// missing date decodes to the zero time, which sorts first. Only a line
// that is not a JSON object at all is an error.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date   string   `json:"date"`
		Asset  string   `json:"asset"`
		Kind   string   `json:"kind"`
		Amount Quantity `json:"amount"`
		Price  Money    `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid transaction record: %w", err)
	}

	t.Date = parseWhen(raw.Date)
	t.Asset = raw.Asset
	if kind, err := ParseTradeKind(raw.Kind); err == nil {
		t.Kind = kind
	} else {
		t.Kind = TradeKind(strings.ToLower(raw.Kind))
	}
	t.Amount = raw.Amount
	t.Price = raw.Price
	return nil
}

// ParseWhen parses a transaction date in RFC3339 or day-only form.
func ParseWhen(s string) (time.Time, error) {
	if ts, err := time.Parse(DatetimeFormat, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(dayFormat, s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", s)
}

// parseWhen is the lenient journal-decoding variant of ParseWhen: anything
// unreadable maps to the zero time, which sorts first.
func parseWhen(s string) time.Time {
	ts, err := ParseWhen(s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
