package coinjournal

import (
	"log"
	"time"
)

// PositionStatus describes an asset's position after a full replay.
type PositionStatus string

const (
	// Open means some size is still held.
	Open PositionStatus = "open"
	// Closed means the asset was traded but the position is back to zero.
	Closed PositionStatus = "closed"
	// Flat means the asset has no buy or sell history at all.
	Flat PositionStatus = "flat"
)

// OpenCycle is a snapshot of the in-progress position episode, emitted only
// while the position is open.
type OpenCycle struct {
	OpenedAt         time.Time
	Size             Quantity
	AvgEntryPrice    Money
	UnrealizedPnL    Money
	UnrealizedPnLPct Percent
}

// AssetMetrics is the per-asset output of a replay: position state,
// profit-and-loss, round-trip statistics and holding times. It is a pure
// derivation of the transaction history plus a current price, recomputed
// from scratch on demand and never patched incrementally.
type AssetMetrics struct {
	Asset  string
	Status PositionStatus

	CurrentSize   Quantity
	AvgEntryPrice Money
	TotalCost     Money // cost basis of the open position

	RealizedPnL      Money
	RealizedPnLPct   Percent
	UnrealizedPnL    Money
	UnrealizedPnLPct Percent
	LifetimePnL      Money
	LifetimePnLPct   Percent
	LifetimeInvested Money // every unit of capital ever deployed on this asset

	RoundTrips           int
	ProfitableRoundTrips int
	LosingRoundTrips     int
	BreakevenRoundTrips  int

	RoundTripWinRate       Percent
	AvgRoundTripPnLPct     Percent
	AvgWinRoundTripPnLPct  Percent
	AvgLossRoundTripPnLPct Percent
	RoundTripExpectancyPct Percent

	AvgHoldingHours float64
	MaxHoldingHours float64

	FirstTradeAt time.Time
	LastTradeAt  time.Time
	LastOpenedAt time.Time
	LastClosedAt time.Time

	OpenCycle *OpenCycle
}

// positionState is the accumulator of the replay fold. Each transaction
// produces a new state, so any intermediate state can be inspected in
// isolation.
type positionState struct {
	size             Quantity
	costBasis        Money
	lifetimeInvested Money
	realized         Money

	cycleStart time.Time
	lastOpened time.Time
	lastClosed time.Time

	roundTrips int
	wins       int
	losses     int
	breakevens int
	returns    []Percent

	holdingSum float64
	holdingMax float64
}

// apply folds one transaction into the state. The invariant size >= 0 holds
// after every step: a sell larger than the held size is clamped to a full
// close, and a sell against an empty position is ignored.
func (s positionState) apply(tx Transaction) positionState {
	switch tx.Kind {
	case Buy:
		if !tx.Amount.IsPositive() {
			return s
		}
		if s.size.IsZero() {
			s.cycleStart = tx.Date
			s.lastOpened = tx.Date
		}
		cost := tx.Cost()
		s.costBasis = s.costBasis.Add(cost)
		s.lifetimeInvested = s.lifetimeInvested.Add(cost)
		s.size = s.size.Add(tx.Amount)
		return s

	case Sell:
		if !tx.Amount.IsPositive() {
			return s
		}
		if s.size.IsZero() {
			log.Printf("%s: ignoring sell of %s %s against an empty position", tx.Date.Format(DatetimeFormat), tx.Amount, tx.Asset)
			return s
		}
		amount := tx.Amount
		if amount.GreaterThan(s.size) {
			log.Printf("%s: sell of %s %s exceeds held size %s, clamping to a full close", tx.Date.Format(DatetimeFormat), amount, tx.Asset, s.size)
			amount = s.size
		}

		avgPrice := s.costBasis.Div(s.size)
		costOfSold := amount.Mul(avgPrice)
		pnl := amount.Mul(tx.Price).Sub(costOfSold)

		s.realized = s.realized.Add(pnl)
		s.costBasis = s.costBasis.Sub(costOfSold)
		s.size = s.size.Sub(amount)

		if s.size.IsZero() {
			s.costBasis = Money{cur: s.costBasis.Currency()}
			s.closeCycle(tx, avgPrice, pnl)
			s.cycleStart = time.Time{}
			s.lastClosed = tx.Date
			return s
		}
		return s

	default:
		// unknown kinds come from dirty journal lines; they carry no
		// position information.
		return s
	}
}

// closeCycle records a completed round trip: classification, return and
// holding duration.
func (s *positionState) closeCycle(tx Transaction, avgPrice Money, pnl Money) {
	s.roundTrips++
	switch {
	case pnl.IsPositive():
		s.wins++
	case pnl.IsNegative():
		s.losses++
	default:
		s.breakevens++
	}
	s.returns = append(s.returns, tx.Price.Sub(avgPrice).PercentOf(avgPrice))

	if !s.cycleStart.IsZero() {
		hours := tx.Date.Sub(s.cycleStart).Hours()
		s.holdingSum += hours
		if hours > s.holdingMax {
			s.holdingMax = hours
		}
	}
}

// ComputeAssetMetrics replays one asset's transaction history into its
// metrics record. The input need not be sorted: the replay stable-sorts a
// copy by date first, so same-date trades keep their recorded order.
//
// currentPrice marks the open position to market; now is the reference time
// for the in-progress cycle's holding duration. Both are explicit inputs so
// the computation is deterministic: calling it twice on the same arguments
// yields the same record. An empty history yields an all-zero record with
// status Flat, never an error.
func ComputeAssetMetrics(transactions []Transaction, currentPrice Money, now time.Time) AssetMetrics {
	ledger := NewLedger()
	ledger.Append(transactions...)
	sorted := ledger.Transactions()

	// Records with an unrecognized kind are carried through decoding but are
	// not trades: they contribute nothing to the position and do not count
	// toward the lifecycle timestamps or the open/closed/flat status.
	var state positionState
	var trades int
	var firstTrade, lastTrade time.Time
	for _, tx := range sorted {
		if tx.Kind == Buy || tx.Kind == Sell {
			if trades == 0 {
				firstTrade = tx.Date
			}
			lastTrade = tx.Date
			trades++
		}
		state = state.apply(tx)
	}

	m := AssetMetrics{
		CurrentSize:      state.size,
		TotalCost:        state.costBasis,
		RealizedPnL:      state.realized,
		LifetimeInvested: state.lifetimeInvested,

		RoundTrips:           state.roundTrips,
		ProfitableRoundTrips: state.wins,
		LosingRoundTrips:     state.losses,
		BreakevenRoundTrips:  state.breakevens,

		LastOpenedAt: state.lastOpened,
		LastClosedAt: state.lastClosed,
	}
	if len(sorted) > 0 {
		m.Asset = sorted[0].Asset
	}
	m.FirstTradeAt = firstTrade
	m.LastTradeAt = lastTrade

	// Position state and mark-to-market.
	m.AvgEntryPrice = state.costBasis.Div(state.size)
	m.UnrealizedPnL = state.size.Mul(currentPrice.Sub(m.AvgEntryPrice))
	m.UnrealizedPnLPct = currentPrice.Sub(m.AvgEntryPrice).PercentOf(m.AvgEntryPrice)

	// Lifetime figures. Percentages share the lifetime-invested denominator
	// so they stay comparable across assets whatever fraction of the
	// position was closed.
	m.LifetimePnL = state.realized.Add(m.UnrealizedPnL)
	m.LifetimePnLPct = m.LifetimePnL.PercentOf(state.lifetimeInvested)
	m.RealizedPnLPct = state.realized.PercentOf(state.lifetimeInvested)

	// Round-trip statistics.
	if state.roundTrips > 0 {
		m.RoundTripWinRate = Percent(100 * float64(state.wins) / float64(state.roundTrips))
		m.AvgHoldingHours = state.holdingSum / float64(state.roundTrips)
	}
	m.MaxHoldingHours = state.holdingMax
	m.AvgRoundTripPnLPct = meanPercent(state.returns)
	var winReturns, lossReturns []Percent
	for _, r := range state.returns {
		if r > 0 {
			winReturns = append(winReturns, r)
		} else if r < 0 {
			lossReturns = append(lossReturns, r)
		}
	}
	m.AvgWinRoundTripPnLPct = meanPercent(winReturns)
	m.AvgLossRoundTripPnLPct = meanPercent(lossReturns)
	winRatio := m.RoundTripWinRate.Ratio()
	loss := float64(m.AvgLossRoundTripPnLPct)
	if loss < 0 {
		loss = -loss
	}
	m.RoundTripExpectancyPct = Percent(winRatio*float64(m.AvgWinRoundTripPnLPct) - (1-winRatio)*loss)

	// Status and the open-cycle snapshot.
	switch {
	case state.size.IsPositive():
		m.Status = Open
		m.OpenCycle = &OpenCycle{
			OpenedAt:         state.cycleStart,
			Size:             state.size,
			AvgEntryPrice:    m.AvgEntryPrice,
			UnrealizedPnL:    m.UnrealizedPnL,
			UnrealizedPnLPct: m.UnrealizedPnLPct,
		}
		// The live cycle competes for the holding-time maximum. This is the
		// one time-dependent part of the record, measured against the
		// injected now.
		if !state.cycleStart.IsZero() && now.After(state.cycleStart) {
			if elapsed := now.Sub(state.cycleStart).Hours(); elapsed > m.MaxHoldingHours {
				m.MaxHoldingHours = elapsed
			}
		}
	case trades > 0:
		m.Status = Closed
	default:
		m.Status = Flat
	}

	return m.sane()
}

// sane guards every floating-point field against NaN and infinities before
// the record leaves the engine.
func (m AssetMetrics) sane() AssetMetrics {
	m.RealizedPnLPct = Percent(sane(float64(m.RealizedPnLPct)))
	m.UnrealizedPnLPct = Percent(sane(float64(m.UnrealizedPnLPct)))
	m.LifetimePnLPct = Percent(sane(float64(m.LifetimePnLPct)))
	m.RoundTripWinRate = Percent(sane(float64(m.RoundTripWinRate)))
	m.AvgRoundTripPnLPct = Percent(sane(float64(m.AvgRoundTripPnLPct)))
	m.AvgWinRoundTripPnLPct = Percent(sane(float64(m.AvgWinRoundTripPnLPct)))
	m.AvgLossRoundTripPnLPct = Percent(sane(float64(m.AvgLossRoundTripPnLPct)))
	m.RoundTripExpectancyPct = Percent(sane(float64(m.RoundTripExpectancyPct)))
	m.AvgHoldingHours = sane(m.AvgHoldingHours)
	m.MaxHoldingHours = sane(m.MaxHoldingHours)
	if m.OpenCycle != nil {
		m.OpenCycle.UnrealizedPnLPct = Percent(sane(float64(m.OpenCycle.UnrealizedPnLPct)))
	}
	return m
}

// MarshalJSON implements the json.Marshaler interface with a stable field
// order, so recomputing identical inputs produces byte-identical records.
func (m AssetMetrics) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("asset", m.Asset)
	w.Append("status", m.Status)
	w.Append("currentSize", m.CurrentSize)
	w.Append("avgEntryPrice", m.AvgEntryPrice)
	w.Append("totalCost", m.TotalCost)
	w.Append("realizedPnl", m.RealizedPnL)
	w.Append("realizedPnlPct", m.RealizedPnLPct)
	w.Append("unrealizedPnl", m.UnrealizedPnL)
	w.Append("unrealizedPnlPct", m.UnrealizedPnLPct)
	w.Append("lifetimePnl", m.LifetimePnL)
	w.Append("lifetimePnlPct", m.LifetimePnLPct)
	w.Append("lifetimeInvested", m.LifetimeInvested)
	w.Append("roundTrips", m.RoundTrips)
	w.Append("profitableRoundTrips", m.ProfitableRoundTrips)
	w.Append("losingRoundTrips", m.LosingRoundTrips)
	w.Append("breakevenRoundTrips", m.BreakevenRoundTrips)
	w.Append("roundTripWinRate", m.RoundTripWinRate)
	w.Append("avgRoundTripPnlPct", m.AvgRoundTripPnLPct)
	w.Append("avgWinRoundTripPnlPct", m.AvgWinRoundTripPnLPct)
	w.Append("avgLossRoundTripPnlPct", m.AvgLossRoundTripPnLPct)
	w.Append("roundTripExpectancyPct", m.RoundTripExpectancyPct)
	w.Append("avgHoldingHours", m.AvgHoldingHours)
	w.Append("maxHoldingHours", m.MaxHoldingHours)
	w.Optional("firstTradeAt", formatWhen(m.FirstTradeAt))
	w.Optional("lastTradeAt", formatWhen(m.LastTradeAt))
	w.Optional("lastOpenedAt", formatWhen(m.LastOpenedAt))
	w.Optional("lastClosedAt", formatWhen(m.LastClosedAt))
	if m.OpenCycle != nil {
		w.Append("openCycle", m.OpenCycle)
	}
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface.
func (c OpenCycle) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("openedAt", formatWhen(c.OpenedAt))
	w.Append("size", c.Size)
	w.Append("avgEntryPrice", c.AvgEntryPrice)
	w.Append("unrealizedPnl", c.UnrealizedPnL)
	w.Append("unrealizedPnlPct", c.UnrealizedPnLPct)
	return w.MarshalJSON()
}

// formatWhen renders a timestamp, with "" for the zero time so Optional
// can drop it.
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DatetimeFormat)
}
