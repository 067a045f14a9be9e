package renderer

import (
	"bytes"
	"fmt"

	"github.com/adav/coinjournal"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the portfolio-level rollup to a markdown string.
func SummaryMarkdown(u *coinjournal.UserMetrics) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio Summary")
	doc.PlainText(fmt.Sprintf("Lifetime PnL: %s (%s) on %s invested across %d assets.",
		u.LifetimePnL.SignedString(), u.LifetimePnLPct.SignedString(),
		u.LifetimeInvested, u.TotalAssetsTraded))

	doc.H2("Activity")
	activity := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows: [][]string{
			{"Open Positions", fmt.Sprintf("%d", u.OpenPositionsCount)},
			{"Round Trips", fmt.Sprintf("%d", u.TotalRoundTrips)},
			{"Win Rate", u.RoundTripWinRate.String()},
			{"Avg Round-Trip Return", u.AvgRoundTripPnLPct.SignedString()},
			{"Avg Holding", fmt.Sprintf("%.1fh", u.AvgHoldingHours)},
			{"Max Holding", fmt.Sprintf("%.1fh", u.MaxHoldingHours)},
		},
	}
	doc.Table(activity)

	if len(u.BestAssets) > 0 {
		doc.H2("Best / Worst")
		ranking := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft, md.AlignRight},
			Header:    []string{"Best", "PnL", "Worst", "PnL"},
		}
		for i := range u.BestAssets {
			row := []string{u.BestAssets[i].Asset, u.BestAssets[i].LifetimePnLPct.SignedString(), "", ""}
			if i < len(u.WorstAssets) {
				row[2] = u.WorstAssets[i].Asset
				row[3] = u.WorstAssets[i].LifetimePnLPct.SignedString()
			}
			ranking.Rows = append(ranking.Rows, row)
		}
		doc.Table(ranking)
	}

	return doc.String()
}
