package ir

// RecordKind prefixes ledger keys.
type RecordKind string

// RecordScore marks evaluation score records.
const RecordScore RecordKind = "score"

// LedgerKey builds the composite ledger key, e.g. "score:AAPL".
func LedgerKey(kind RecordKind, entity string) string {
	return string(kind) + ":" + entity
}

// LedgerRecord is the value stored for an evaluation.
type LedgerRecord struct {
	Timestamp int64   `json:"ts"`    // unix seconds
	Score     float64 `json:"score"` // in [0, 1]
}
