// Package evalopt closes the loop on a generated report.
//
// An Evaluator scores a Markdown body against a weighted rubric, appends at
// most one round of improvement suggestions, and remembers the score in a
// durable ledger so later runs can compare against it.
package evalopt
