package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/adav/coinjournal"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// tradeCmd holds the flags shared by the 'buy' and 'sell' subcommands.
type tradeCmd struct {
	date   string
	asset  string
	amount string
	price  string
}

func (c *tradeCmd) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the trade (RFC3339 or YYYY-MM-DD, defaults to now)")
	f.StringVar(&c.asset, "a", "", "Asset ticker (e.g. BTC)")
	f.StringVar(&c.amount, "q", "", "Quantity traded")
	f.StringVar(&c.price, "p", "", "Unit price")
}

// transaction validates the flags and builds the trade record.
func (c *tradeCmd) transaction(kind coinjournal.TradeKind) (coinjournal.Transaction, error) {
	if c.asset == "" {
		return coinjournal.Transaction{}, fmt.Errorf("missing -a asset ticker")
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return coinjournal.Transaction{}, fmt.Errorf("invalid -q quantity %q: %w", c.amount, err)
	}
	if !amount.IsPositive() {
		return coinjournal.Transaction{}, fmt.Errorf("quantity must be positive, got %s", amount)
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		return coinjournal.Transaction{}, fmt.Errorf("invalid -p price %q: %w", c.price, err)
	}
	if price.IsNegative() {
		return coinjournal.Transaction{}, fmt.Errorf("price cannot be negative, got %s", price)
	}

	when := time.Now().Truncate(time.Second)
	if c.date != "" {
		var err error
		when, err = coinjournal.ParseWhen(c.date)
		if err != nil {
			return coinjournal.Transaction{}, err
		}
	}

	return coinjournal.Transaction{
		Date:   when,
		Asset:  c.asset,
		Kind:   kind,
		Amount: coinjournal.Q(amount),
		Price:  coinjournal.M(price),
	}, nil
}

type buyCmd struct{ tradeCmd }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a buy in the journal" }
func (*buyCmd) Usage() string {
	return `cj buy -a <asset> -q <quantity> -p <price> [-d <date>]

  Appends a buy record to the journal file.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tx, err := c.transaction(coinjournal.Buy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return EncodeTransaction(tx)
}

type sellCmd struct{ tradeCmd }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sell in the journal" }
func (*sellCmd) Usage() string {
	return `cj sell -a <asset> -q <quantity> -p <price> [-d <date>]

  Appends a sell record to the journal file. Selling more than the held
  size is recorded as-is; the replay clamps it to a full close with a
  warning.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tx, err := c.transaction(coinjournal.Sell)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return EncodeTransaction(tx)
}
