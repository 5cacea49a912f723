// Package harness runs scenario files against the real planner and engine.
//
// A scenario names tickers, canned price and news fixtures, optional
// routing, steps and rubric overrides, and a list of assertions. Run builds
// the plan, executes it with fixture sources, a deterministic clock, a fixed
// run ID and an in-memory SQLite ledger, and evaluates the assertions
// against the trace, the results and the ledger.
//
// Snapshot renders a result as stable text so scenarios can be compared
// against golden files in testdata/golden. Snapshots are only stable for
// sequential runs (concurrency 1).
package harness
