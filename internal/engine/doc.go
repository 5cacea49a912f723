// Package engine executes a task graph.
//
// The engine walks the graph's topological order exactly once. Each visit
// is stamped with a seq from a monotonic logical clock, routed through the
// Router, and dispatched to the handler for the task's kind. Skipped,
// degraded and failed tasks are recorded as outcomes; a run never aborts on
// a per-task failure.
//
// STATE:
//
// Every entity owns a chain: the artifacts its ingest tasks produced and
// the Result its summarize task created. Chains never share state, so with
// WithConcurrency(n) the per-entity slices of the order run in parallel
// while each slice keeps its own order. Outcomes are merged by seq.
//
// If any dependency crosses entities the engine falls back to the
// sequential walk.
package engine
