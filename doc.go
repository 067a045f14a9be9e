// Package coinjournal implements the position and lot-accounting engine of
// a crypto trading journal. It replays a chronological stream of buy and
// sell records into per-asset position ledgers, and rolls those ledgers up
// into a portfolio-level summary.
//
// The core functionalities include:
//   - Ledger Management: recording trades in an immutable, chronologically
//     sorted journal (JSONL on disk, human-editable).
//   - Asset Replay: a pure fold over one asset's history producing its
//     AssetMetrics record: current position, weighted-average cost basis,
//     realized and unrealized profit-and-loss, completed round trips and
//     holding-time statistics.
//   - Portfolio Aggregation: rolling all AssetMetrics of a user into a
//     UserMetrics record with weighted averages and best/worst rankings.
//
// The engine does no I/O and holds no state of its own: every metrics
// record is recomputed from scratch from the full transaction history plus
// a current price, making recomputation idempotent and safe to rerun after
// any edit to the journal. All money arithmetic is exact decimal; floating
// point appears only in the final percentage fields.
//
// This package serves as the foundational logic for the `cj` command-line
// tool.
package coinjournal
