// Package store persists the evaluation ledger.
//
// A ledger is a flat key → JSON value map. Two backends exist:
//
//   - FileLedger: one JSON document, rewritten atomically on every Put
//   - SQLiteLedger: a single ledger table with upsert
//
// Open picks the backend from the path's extension (.db, .sqlite and
// .sqlite3 select SQLite). Both backends serialize writers and degrade
// unreadable state to an empty ledger with a warning; write errors are
// always returned.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
