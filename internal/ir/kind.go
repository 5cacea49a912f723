package ir

import (
	"fmt"
	"strings"
)

// Kind identifies the stage a task belongs to.
//
// The set is closed. Adding a stage means adding a constant here, a case in
// ParseKind, and a case in the engine's dispatch switch.
type Kind int

const (
	// KindIngestPrimary fetches the entity's price series.
	KindIngestPrimary Kind = iota + 1
	// KindIngestSecondary fetches the entity's news items.
	KindIngestSecondary
	// KindSummarize derives statistics and renders the entity's body.
	KindSummarize
	// KindEvaluate scores the rendered body and records the score.
	KindEvaluate
)

var kindNames = map[Kind]string{
	KindIngestPrimary:   "ingest-primary",
	KindIngestSecondary: "ingest-secondary",
	KindSummarize:       "summarize",
	KindEvaluate:        "evaluate",
}

// kindAliases maps legacy stage names onto kinds.
var kindAliases = map[string]Kind{
	"prices": KindIngestPrimary,
	"news":   KindIngestSecondary,
}

// AllKinds returns every kind in template order.
func AllKinds() []Kind {
	return []Kind{KindIngestPrimary, KindIngestSecondary, KindSummarize, KindEvaluate}
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind converts a stage name into a Kind.
// Canonical names and the legacy aliases "prices" and "news" are accepted,
// case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown task kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("marshal kind: invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
