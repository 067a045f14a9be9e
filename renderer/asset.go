package renderer

import (
	"bytes"
	"fmt"

	"github.com/adav/coinjournal"
	md "github.com/nao1215/markdown"
)

// AssetMarkdown renders one asset's metrics record to a markdown string.
func AssetMarkdown(m *coinjournal.AssetMetrics) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s position (%s)", m.Asset, m.Status))

	doc.H2("Position")
	position := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows: [][]string{
			{"Current Size", m.CurrentSize.String()},
			{"Avg Entry Price", m.AvgEntryPrice.String()},
			{"Cost Basis", m.TotalCost.String()},
			{"Lifetime Invested", m.LifetimeInvested.String()},
		},
	}
	doc.Table(position)

	doc.H2("Profit & Loss")
	pnl := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"", "Abs", "Pct"},
		Rows: [][]string{
			{"Realized", m.RealizedPnL.SignedString(), m.RealizedPnLPct.SignedString()},
			{"Unrealized", m.UnrealizedPnL.SignedString(), m.UnrealizedPnLPct.SignedString()},
			{md.Bold("Lifetime"), md.Bold(m.LifetimePnL.SignedString()), m.LifetimePnLPct.SignedString()},
		},
	}
	doc.Table(pnl)

	if m.RoundTrips > 0 {
		doc.H2("Round Trips")
		trips := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Metric", "Value"},
			Rows: [][]string{
				{"Completed", fmt.Sprintf("%d (%d won / %d lost / %d flat)", m.RoundTrips, m.ProfitableRoundTrips, m.LosingRoundTrips, m.BreakevenRoundTrips)},
				{"Win Rate", m.RoundTripWinRate.String()},
				{"Avg Return", m.AvgRoundTripPnLPct.SignedString()},
				{"Avg Win", m.AvgWinRoundTripPnLPct.SignedString()},
				{"Avg Loss", m.AvgLossRoundTripPnLPct.SignedString()},
				{"Expectancy", m.RoundTripExpectancyPct.SignedString()},
				{"Avg Holding", fmt.Sprintf("%.1fh", m.AvgHoldingHours)},
				{"Max Holding", fmt.Sprintf("%.1fh", m.MaxHoldingHours)},
			},
		}
		doc.Table(trips)
	}

	if m.OpenCycle != nil {
		doc.H2("Open Cycle")
		doc.PlainText(fmt.Sprintf("Opened %s, holding %s at %s avg entry (%s unrealized, %s).",
			m.OpenCycle.OpenedAt.Format("2006-01-02 15:04"),
			m.OpenCycle.Size,
			m.OpenCycle.AvgEntryPrice,
			m.OpenCycle.UnrealizedPnL.SignedString(),
			m.OpenCycle.UnrealizedPnLPct.SignedString(),
		))
	}

	return doc.String()
}
