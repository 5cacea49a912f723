// Package graph builds dependency graphs over tasks and resolves their
// execution order.
//
// Construction validates the whole task set up front. Empty or duplicate
// IDs, dependencies naming tasks outside the set, and cycles are all
// reported by New as *ConstructionError before anything executes.
//
// ORDERING:
//
// The order is computed once with Kahn's algorithm and memoized. When more
// than one task is ready, the task that appeared first in the input list
// runs first (a min-heap keyed by insertion index). The same input list
// always yields the same order, which keeps progress logs stable across
// runs.
package graph
