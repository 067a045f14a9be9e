package coinjournal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
)

var errInvalidRecord = errors.New("negative size or round-trip count")

// AssetRank is one entry of the best/worst asset rankings.
type AssetRank struct {
	Asset          string
	LifetimePnLPct Percent
}

// MarshalJSON implements the json.Marshaler interface.
func (r AssetRank) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("asset", r.Asset)
	w.Append("lifetimePnlPct", r.LifetimePnLPct)
	return w.MarshalJSON()
}

// UserMetrics is the portfolio-level rollup of all per-asset records for
// one user. Like AssetMetrics it is a pure derivation, recomputed from
// scratch whenever the underlying history changes.
type UserMetrics struct {
	LifetimePnL      Money
	LifetimePnLPct   Percent
	LifetimeInvested Money

	TotalAssetsTraded  int
	TotalRoundTrips    int
	OpenPositionsCount int

	// RoundTripWinRate and AvgRoundTripPnLPct are weighted by each asset's
	// round-trip count. The per-asset win/loss split is reconstructed from
	// the rounded win rate, so both are approximations.
	RoundTripWinRate   Percent
	AvgRoundTripPnLPct Percent

	AvgHoldingHours float64
	MaxHoldingHours float64

	BestAssets  []AssetRank
	WorstAssets []AssetRank

	// Profile is an opaque behavioral profile supplied by the caller. The
	// engine threads it through untouched; it never computes it.
	Profile json.RawMessage
}

// AggregateUserMetrics rolls a user's per-asset records into portfolio
// totals. A malformed record (non-finite ratio or hour fields, negative
// counts) is skipped with a warning rather than aborting the rollup: one
// corrupt asset summary must not blank out the whole dashboard.
func AggregateUserMetrics(assets []AssetMetrics, profile json.RawMessage) UserMetrics {
	u := UserMetrics{Profile: profile}

	var valid []AssetMetrics
	for _, a := range assets {
		if err := a.checkAggregable(); err != nil {
			log.Printf("skipping asset %q in portfolio rollup: %v", a.Asset, err)
			continue
		}
		valid = append(valid, a)
	}

	var holdingWeightedSum float64
	var returnWeightedSum float64
	var approxWins int

	for _, a := range valid {
		u.LifetimePnL = u.LifetimePnL.Add(a.LifetimePnL)
		u.LifetimeInvested = u.LifetimeInvested.Add(a.LifetimeInvested)
		u.TotalRoundTrips += a.RoundTrips
		if a.Status == Open {
			u.OpenPositionsCount++
		}

		// Weight per-asset means by the asset's own round-trip count; an
		// unweighted mean would bias toward low-volume assets.
		holdingWeightedSum += a.AvgHoldingHours * float64(a.RoundTrips)
		returnWeightedSum += float64(a.AvgRoundTripPnLPct) * float64(a.RoundTrips)
		approxWins += int(math.Round(float64(a.RoundTrips) * a.RoundTripWinRate.Ratio()))

		if a.MaxHoldingHours > u.MaxHoldingHours {
			u.MaxHoldingHours = a.MaxHoldingHours
		}
	}
	u.TotalAssetsTraded = len(valid)

	u.LifetimePnLPct = u.LifetimePnL.PercentOf(u.LifetimeInvested)
	if u.TotalRoundTrips > 0 {
		u.AvgHoldingHours = holdingWeightedSum / float64(u.TotalRoundTrips)
		u.AvgRoundTripPnLPct = Percent(returnWeightedSum / float64(u.TotalRoundTrips))
		u.RoundTripWinRate = Percent(100 * float64(approxWins) / float64(u.TotalRoundTrips))
	}

	u.BestAssets, u.WorstAssets = rankAssets(valid)

	return u.sane()
}

// rankAssets returns the top and bottom 3 assets by lifetime PnL percent.
// The worst list is worst-first.
func rankAssets(assets []AssetMetrics) (best, worst []AssetRank) {
	best = make([]AssetRank, 0, 3)
	worst = make([]AssetRank, 0, 3)
	ranked := make([]AssetRank, 0, len(assets))
	for _, a := range assets {
		ranked = append(ranked, AssetRank{Asset: a.Asset, LifetimePnLPct: a.LifetimePnLPct})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LifetimePnLPct > ranked[j].LifetimePnLPct
	})

	n := len(ranked)
	top := n
	if top > 3 {
		top = 3
	}
	best = append(best, ranked[:top]...)
	for i := n - 1; i >= n-top; i-- {
		worst = append(worst, ranked[i])
	}
	return best, worst
}

// checkAggregable reports why a record cannot take part in aggregation.
func (m AssetMetrics) checkAggregable() error {
	for name, f := range map[string]float64{
		"lifetimePnlPct":     float64(m.LifetimePnLPct),
		"roundTripWinRate":   float64(m.RoundTripWinRate),
		"avgRoundTripPnlPct": float64(m.AvgRoundTripPnLPct),
		"avgHoldingHours":    m.AvgHoldingHours,
		"maxHoldingHours":    m.MaxHoldingHours,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("field %s is not finite", name)
		}
	}
	if m.RoundTrips < 0 || m.CurrentSize.IsNegative() {
		return errInvalidRecord
	}
	return nil
}

// sane guards every floating-point field before the record leaves the
// engine: the persistence layer treats non-finite numbers as corruption.
func (u UserMetrics) sane() UserMetrics {
	u.LifetimePnLPct = Percent(sane(float64(u.LifetimePnLPct)))
	u.RoundTripWinRate = Percent(sane(float64(u.RoundTripWinRate)))
	u.AvgRoundTripPnLPct = Percent(sane(float64(u.AvgRoundTripPnLPct)))
	u.AvgHoldingHours = sane(u.AvgHoldingHours)
	u.MaxHoldingHours = sane(u.MaxHoldingHours)
	return u
}

// MarshalJSON implements the json.Marshaler interface with a stable field
// order.
func (u UserMetrics) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("lifetimePnl", u.LifetimePnL)
	w.Append("lifetimePnlPct", u.LifetimePnLPct)
	w.Append("lifetimeInvested", u.LifetimeInvested)
	w.Append("totalAssetsTraded", u.TotalAssetsTraded)
	w.Append("totalRoundTrips", u.TotalRoundTrips)
	w.Append("openPositionsCount", u.OpenPositionsCount)
	w.Append("roundTripWinRate", u.RoundTripWinRate)
	w.Append("avgRoundTripPnlPct", u.AvgRoundTripPnLPct)
	w.Append("avgHoldingHours", u.AvgHoldingHours)
	w.Append("maxHoldingHours", u.MaxHoldingHours)
	w.Append("bestAssets", u.BestAssets)
	w.Append("worstAssets", u.WorstAssets)
	w.Raw("profile", u.Profile)
	return w.MarshalJSON()
}
