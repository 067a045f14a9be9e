package coinjournal

import "time"

// Test helpers shared across the package tests.

func usd(v float64) Money { return NewMoney(v, "USD") }

// t0 is an arbitrary fixed origin; tests derive every timestamp from it so
// holding durations are deterministic.
var t0 = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func hours(h float64) time.Time { return t0.Add(time.Duration(h * float64(time.Hour))) }

func buyAt(h float64, amount, price float64) Transaction {
	return NewBuy(hours(h), "BTC", Q(amount), usd(price))
}

func sellAt(h float64, amount, price float64) Transaction {
	return NewSell(hours(h), "BTC", Q(amount), usd(price))
}
