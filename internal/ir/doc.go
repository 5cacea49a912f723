// Package ir defines the data model shared by every tickerflow package.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Kind is a closed enumeration; dispatch on it is an exhaustive switch
//   - Task IDs are derived from (kind, entity) so references resolve by construction
//   - Artifacts are immutable and addressed by (kind, key)
//   - Result is a value type; updates return a copy (copy-on-write sections)
//   - All JSON tags use snake_case
package ir
