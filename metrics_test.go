package coinjournal

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestComputeAssetMetrics_EmptyHistory(t *testing.T) {
	m := ComputeAssetMetrics(nil, usd(100), t0)

	if m.Status != Flat {
		t.Errorf("Status = %v, want %v", m.Status, Flat)
	}
	if !m.CurrentSize.IsZero() {
		t.Errorf("CurrentSize = %v, want 0", m.CurrentSize)
	}
	if !m.LifetimePnL.IsZero() || !m.RealizedPnL.IsZero() || !m.UnrealizedPnL.IsZero() {
		t.Errorf("PnL fields should all be zero, got %v/%v/%v", m.LifetimePnL, m.RealizedPnL, m.UnrealizedPnL)
	}
	if m.RoundTrips != 0 || m.RoundTripWinRate != 0 || m.AvgHoldingHours != 0 {
		t.Errorf("round-trip stats should all be zero, got %d/%v/%v", m.RoundTrips, m.RoundTripWinRate, m.AvgHoldingHours)
	}
	if m.OpenCycle != nil {
		t.Errorf("OpenCycle = %v, want nil", m.OpenCycle)
	}
}

func TestComputeAssetMetrics_FullRoundTrip(t *testing.T) {
	// Buy 10 @ $100, sell 10 @ $120.
	txs := []Transaction{
		buyAt(0, 10, 100),
		sellAt(24, 10, 120),
	}
	m := ComputeAssetMetrics(txs, usd(120), hours(48))

	if got, want := m.RealizedPnL, usd(200); !got.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", got, want)
	}
	if m.RoundTrips != 1 || m.ProfitableRoundTrips != 1 {
		t.Errorf("RoundTrips = %d (profitable %d), want 1 (1)", m.RoundTrips, m.ProfitableRoundTrips)
	}
	if m.Status != Closed {
		t.Errorf("Status = %v, want %v", m.Status, Closed)
	}
	if !m.CurrentSize.IsZero() {
		t.Errorf("CurrentSize = %v, want 0", m.CurrentSize)
	}
	if !m.TotalCost.IsZero() {
		t.Errorf("TotalCost = %v, want 0 after a full close", m.TotalCost)
	}
	if got, want := m.RealizedPnLPct, Percent(20); !got.Equal(want) {
		t.Errorf("RealizedPnLPct = %v, want %v", got, want)
	}
	if got, want := m.RoundTripWinRate, Percent(100); !got.Equal(want) {
		t.Errorf("RoundTripWinRate = %v, want %v", got, want)
	}
	if got, want := m.AvgRoundTripPnLPct, Percent(20); !got.Equal(want) {
		t.Errorf("AvgRoundTripPnLPct = %v, want %v", got, want)
	}
	if got, want := m.RoundTripExpectancyPct, Percent(20); !got.Equal(want) {
		t.Errorf("RoundTripExpectancyPct = %v, want %v", got, want)
	}
	if got, want := m.AvgHoldingHours, 24.0; got != want {
		t.Errorf("AvgHoldingHours = %v, want %v", got, want)
	}
	if got, want := m.MaxHoldingHours, 24.0; got != want {
		t.Errorf("MaxHoldingHours = %v, want %v", got, want)
	}
	if got, want := m.LastClosedAt, hours(24); !got.Equal(want) {
		t.Errorf("LastClosedAt = %v, want %v", got, want)
	}
}

func TestComputeAssetMetrics_AverageUp(t *testing.T) {
	// Buy 5 @ $100 then 5 @ $200: the position averages up to $150.
	txs := []Transaction{
		buyAt(0, 5, 100),
		buyAt(1, 5, 200),
	}
	m := ComputeAssetMetrics(txs, usd(180), hours(2))

	if got, want := m.AvgEntryPrice, usd(150); !got.Equal(want) {
		t.Errorf("AvgEntryPrice = %v, want %v", got, want)
	}
	if got, want := m.TotalCost, usd(1500); !got.Equal(want) {
		t.Errorf("TotalCost = %v, want %v", got, want)
	}
	if got, want := m.CurrentSize, Q(10); !got.Equal(want) {
		t.Errorf("CurrentSize = %v, want %v", got, want)
	}
	if m.Status != Open {
		t.Errorf("Status = %v, want %v", m.Status, Open)
	}
	if got, want := m.UnrealizedPnL, usd(300); !got.Equal(want) {
		t.Errorf("UnrealizedPnL = %v, want %v", got, want)
	}
	if got, want := m.UnrealizedPnLPct, Percent(20); !got.Equal(want) {
		t.Errorf("UnrealizedPnLPct = %v, want %v", got, want)
	}
	if m.OpenCycle == nil {
		t.Fatal("OpenCycle should be emitted for an open position")
	}
	if got, want := m.OpenCycle.OpenedAt, hours(0); !got.Equal(want) {
		t.Errorf("OpenCycle.OpenedAt = %v, want %v", got, want)
	}
	if got, want := m.OpenCycle.Size, Q(10); !got.Equal(want) {
		t.Errorf("OpenCycle.Size = %v, want %v", got, want)
	}
}

func TestComputeAssetMetrics_PartialClose(t *testing.T) {
	// Buy 10 @ $100, sell 4 @ $150: still open, avg price unchanged.
	txs := []Transaction{
		buyAt(0, 10, 100),
		sellAt(5, 4, 150),
	}
	m := ComputeAssetMetrics(txs, usd(150), hours(10))

	if got, want := m.CurrentSize, Q(6); !got.Equal(want) {
		t.Errorf("CurrentSize = %v, want %v", got, want)
	}
	if got, want := m.TotalCost, usd(600); !got.Equal(want) {
		t.Errorf("TotalCost = %v, want %v", got, want)
	}
	if got, want := m.AvgEntryPrice, usd(100); !got.Equal(want) {
		t.Errorf("AvgEntryPrice = %v, want %v", got, want)
	}
	if got, want := m.RealizedPnL, usd(200); !got.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", got, want)
	}
	if m.RoundTrips != 0 {
		t.Errorf("RoundTrips = %d, want 0 while the cycle is still open", m.RoundTrips)
	}
	if m.Status != Open {
		t.Errorf("Status = %v, want %v", m.Status, Open)
	}
}

func TestComputeAssetMetrics_PnLConservation(t *testing.T) {
	// Awkward quantities so the average price is non-terminating.
	txs := []Transaction{
		buyAt(0, 3, 10),
		buyAt(1, 7, 13),
		sellAt(2, 4, 15),
		buyAt(3, 2, 9),
		sellAt(4, 5, 11),
	}
	m := ComputeAssetMetrics(txs, usd(12.5), hours(5))

	if got, want := m.LifetimePnL, m.RealizedPnL.Add(m.UnrealizedPnL); !got.Equal(want) {
		t.Errorf("LifetimePnL = %v, want realized+unrealized = %v", got, want)
	}
	// Position conservation: buys minus sells.
	if got, want := m.CurrentSize, Q(3); !got.Equal(want) {
		t.Errorf("CurrentSize = %v, want %v", got, want)
	}
	if m.CurrentSize.IsNegative() {
		t.Error("CurrentSize must never be negative")
	}
}

func TestComputeAssetMetrics_Idempotent(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 2, 50000),
		sellAt(30, 1, 52000),
		sellAt(60, 1, 49000),
		buyAt(100, 0.5, 61000),
	}
	a := ComputeAssetMetrics(txs, usd(63000), hours(120))
	b := ComputeAssetMetrics(txs, usd(63000), hours(120))

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(ja, jb) {
		t.Errorf("recomputation is not byte-identical:\n%s\n%s", ja, jb)
	}
}

func TestComputeAssetMetrics_InputOrderIndependence(t *testing.T) {
	chronological := []Transaction{
		buyAt(0, 1, 100),
		sellAt(10, 1, 130),
		buyAt(20, 2, 120),
		sellAt(25, 2, 110),
	}
	// Same records, scrambled: the replay stable-sorts before folding.
	shuffled := []Transaction{chronological[2], chronological[0], chronological[3], chronological[1]}

	a := ComputeAssetMetrics(chronological, usd(115), hours(30))
	b := ComputeAssetMetrics(shuffled, usd(115), hours(30))

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Errorf("shuffled input diverged:\n%s\n%s", ja, jb)
	}
}

func TestComputeAssetMetrics_RoundTripClassification(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 1, 100), sellAt(1, 1, 120), // win
		buyAt(2, 1, 100), sellAt(3, 1, 80), // loss
		buyAt(4, 1, 100), sellAt(5, 1, 100), // breakeven
	}
	m := ComputeAssetMetrics(txs, usd(100), hours(6))

	if m.RoundTrips != 3 {
		t.Fatalf("RoundTrips = %d, want 3", m.RoundTrips)
	}
	if got := m.ProfitableRoundTrips + m.LosingRoundTrips + m.BreakevenRoundTrips; got != m.RoundTrips {
		t.Errorf("classified trips = %d, want %d", got, m.RoundTrips)
	}
	if m.ProfitableRoundTrips != 1 || m.LosingRoundTrips != 1 || m.BreakevenRoundTrips != 1 {
		t.Errorf("classification = %d/%d/%d, want 1/1/1",
			m.ProfitableRoundTrips, m.LosingRoundTrips, m.BreakevenRoundTrips)
	}
	// Breakeven trips count against the win rate.
	if got, want := m.RoundTripWinRate, Percent(100.0/3); !got.Equal(want) {
		t.Errorf("RoundTripWinRate = %v, want %v", got, want)
	}
	if got, want := m.AvgWinRoundTripPnLPct, Percent(20); !got.Equal(want) {
		t.Errorf("AvgWinRoundTripPnLPct = %v, want %v", got, want)
	}
	if got, want := m.AvgLossRoundTripPnLPct, Percent(-20); !got.Equal(want) {
		t.Errorf("AvgLossRoundTripPnLPct = %v, want %v", got, want)
	}
	// expectancy = winRate*avgWin - (1-winRate)*|avgLoss|
	if got, want := m.RoundTripExpectancyPct, Percent((1.0/3)*20-(2.0/3)*20); !got.Equal(want) {
		t.Errorf("RoundTripExpectancyPct = %v, want %v", got, want)
	}
}

func TestComputeAssetMetrics_HoldingTimes(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 1, 100), sellAt(24, 1, 110),
		buyAt(100, 1, 100), sellAt(148, 1, 90),
	}
	m := ComputeAssetMetrics(txs, usd(100), hours(200))

	if got, want := m.AvgHoldingHours, 36.0; got != want {
		t.Errorf("AvgHoldingHours = %v, want %v", got, want)
	}
	if got, want := m.MaxHoldingHours, 48.0; got != want {
		t.Errorf("MaxHoldingHours = %v, want %v", got, want)
	}
}

func TestComputeAssetMetrics_OpenCycleExtendsMaxHolding(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 1, 100), sellAt(10, 1, 110),
		buyAt(20, 1, 100),
	}
	// The open cycle has been running for 80 hours at the reference time,
	// longer than the 10-hour completed one.
	m := ComputeAssetMetrics(txs, usd(105), hours(100))

	if got, want := m.MaxHoldingHours, 80.0; got != want {
		t.Errorf("MaxHoldingHours = %v, want %v", got, want)
	}
	if got, want := m.AvgHoldingHours, 10.0; got != want {
		t.Errorf("AvgHoldingHours = %v, want %v (open cycle must not affect the average)", got, want)
	}
}

func TestComputeAssetMetrics_OversellClampsToFullClose(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 5, 100),
		sellAt(10, 8, 120), // 3 more than held
	}
	m := ComputeAssetMetrics(txs, usd(120), hours(20))

	if !m.CurrentSize.IsZero() {
		t.Errorf("CurrentSize = %v, want 0 after a clamped oversell", m.CurrentSize)
	}
	// PnL realizes on the held 5 units only.
	if got, want := m.RealizedPnL, usd(100); !got.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", got, want)
	}
	if m.RoundTrips != 1 || m.ProfitableRoundTrips != 1 {
		t.Errorf("RoundTrips = %d (profitable %d), want 1 (1)", m.RoundTrips, m.ProfitableRoundTrips)
	}
	if m.Status != Closed {
		t.Errorf("Status = %v, want %v", m.Status, Closed)
	}
}

func TestComputeAssetMetrics_SellAgainstEmptyPosition(t *testing.T) {
	txs := []Transaction{
		sellAt(0, 3, 100),
	}
	m := ComputeAssetMetrics(txs, usd(100), hours(1))

	if !m.CurrentSize.IsZero() {
		t.Errorf("CurrentSize = %v, want 0", m.CurrentSize)
	}
	if !m.RealizedPnL.IsZero() {
		t.Errorf("RealizedPnL = %v, want 0", m.RealizedPnL)
	}
	if m.RoundTrips != 0 {
		t.Errorf("RoundTrips = %d, want 0", m.RoundTrips)
	}
	// Trades exist, so the asset is closed rather than flat.
	if m.Status != Closed {
		t.Errorf("Status = %v, want %v", m.Status, Closed)
	}
}

func TestComputeAssetMetrics_DirtyTransactionsCoerceToZero(t *testing.T) {
	// A zero-amount record (the coerced form of a dirty journal line) must
	// not start a cycle or move the position.
	txs := []Transaction{
		{Date: hours(0), Asset: "BTC", Kind: Buy},
		buyAt(1, 1, 100),
		{Date: hours(2), Asset: "BTC", Kind: "transfer", Amount: Q(5), Price: usd(10)},
		sellAt(3, 1, 110),
	}
	m := ComputeAssetMetrics(txs, usd(110), hours(4))

	if m.RoundTrips != 1 {
		t.Errorf("RoundTrips = %d, want 1", m.RoundTrips)
	}
	if got, want := m.RealizedPnL, usd(10); !got.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", got, want)
	}
	// The real cycle opened at hour 1, not at the dirty record.
	if got, want := m.AvgHoldingHours, 2.0; got != want {
		t.Errorf("AvgHoldingHours = %v, want %v", got, want)
	}
}

func TestComputeAssetMetrics_ZeroPriceGuards(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 10, 0), // free coins: zero invested
		sellAt(1, 10, 5),
	}
	m := ComputeAssetMetrics(txs, Money{}, hours(2))

	// Every ratio with a zero denominator resolves to 0, never NaN.
	if m.RealizedPnLPct != 0 || m.LifetimePnLPct != 0 {
		t.Errorf("pct fields = %v/%v, want 0/0 on zero invested", m.RealizedPnLPct, m.LifetimePnLPct)
	}
	if got, want := m.RealizedPnL, usd(50); !got.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", got, want)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if bytes.Contains(b, []byte("NaN")) || bytes.Contains(b, []byte("Inf")) {
		t.Errorf("serialized record contains non-finite numbers: %s", b)
	}
}

func TestLedger_AssetMetricsPriceFallback(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		buyAt(0, 2, 100),
		buyAt(5, 2, 140),
	)

	// No live price: the most recent transaction's price stands in.
	m := ledger.AssetMetrics("BTC", Money{}, hours(10))
	if got, want := m.UnrealizedPnL, usd(4*140).Sub(usd(480)); !got.Equal(want) {
		t.Errorf("UnrealizedPnL = %v, want %v", got, want)
	}
}

func TestLedger_StableSortKeepsSameDateOrder(t *testing.T) {
	// Two same-instant trades: the recorded order decides the replay order.
	when := hours(0)
	ledger := NewLedger()
	ledger.Append(
		NewBuy(when, "BTC", Q(1), usd(100)),
		NewSell(when, "BTC", Q(1), usd(120)),
	)
	m := ComputeAssetMetrics(ledger.Transactions(), usd(120), hours(1))

	if m.RoundTrips != 1 {
		t.Errorf("RoundTrips = %d, want 1 (buy must replay before the same-instant sell)", m.RoundTrips)
	}
	if got, want := m.RealizedPnL, usd(20); !got.Equal(want) {
		t.Errorf("RealizedPnL = %v, want %v", got, want)
	}
}

func TestComputeAssetMetrics_TimestampFields(t *testing.T) {
	txs := []Transaction{
		buyAt(0, 1, 100),
		sellAt(10, 1, 110),
		buyAt(20, 2, 105),
	}
	m := ComputeAssetMetrics(txs, usd(110), hours(30))

	if !m.FirstTradeAt.Equal(hours(0)) {
		t.Errorf("FirstTradeAt = %v, want %v", m.FirstTradeAt, hours(0))
	}
	if !m.LastTradeAt.Equal(hours(20)) {
		t.Errorf("LastTradeAt = %v, want %v", m.LastTradeAt, hours(20))
	}
	if !m.LastOpenedAt.Equal(hours(20)) {
		t.Errorf("LastOpenedAt = %v, want %v", m.LastOpenedAt, hours(20))
	}
	if !m.LastClosedAt.Equal(hours(10)) {
		t.Errorf("LastClosedAt = %v, want %v", m.LastClosedAt, hours(10))
	}
}

func TestComputeAssetMetrics_UnknownKindsLeaveLifecycleUntouched(t *testing.T) {
	// A history holding only records of an unrecognized kind is an empty
	// trading history: status stays Flat and the trade timestamps stay zero.
	only := []Transaction{
		{Date: hours(0), Asset: "BTC", Kind: "transfer", Amount: Q(5), Price: usd(10)},
	}
	m := ComputeAssetMetrics(only, usd(10), hours(1))
	if m.Status != Flat {
		t.Errorf("Status = %q, want %q", m.Status, Flat)
	}
	if !m.FirstTradeAt.IsZero() || !m.LastTradeAt.IsZero() {
		t.Errorf("trade timestamps = %v / %v, want both zero", m.FirstTradeAt, m.LastTradeAt)
	}

	// An unrecognized record after the last real trade must not push
	// LastTradeAt forward.
	mixed := []Transaction{
		buyAt(0, 1, 100),
		sellAt(10, 1, 110),
		{Date: hours(20), Asset: "BTC", Kind: "airdrop", Amount: Q(1), Price: usd(0)},
	}
	m = ComputeAssetMetrics(mixed, usd(110), hours(30))
	if m.Status != Closed {
		t.Errorf("Status = %q, want %q", m.Status, Closed)
	}
	if !m.FirstTradeAt.Equal(hours(0)) {
		t.Errorf("FirstTradeAt = %v, want %v", m.FirstTradeAt, hours(0))
	}
	if !m.LastTradeAt.Equal(hours(10)) {
		t.Errorf("LastTradeAt = %v, want %v", m.LastTradeAt, hours(10))
	}
}
