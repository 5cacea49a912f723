package ir

// ParamEntity is the Params key holding the owning entity identifier.
const ParamEntity = "symbol"

// Task is a declared unit of work.
type Task struct {
	ID     string         `json:"id"`
	Kind   Kind           `json:"kind"`
	Params map[string]any `json:"params"`
	Deps   []string       `json:"deps,omitempty"` // IDs that must complete first; order irrelevant
}

// TaskID derives the identifier for the given stage of an entity.
//
// Format: "<kind>:<entity>", e.g. "summarize:AAPL".
func TaskID(kind Kind, entity string) string {
	return kind.String() + ":" + entity
}

// NewTask builds a task for an entity with the entity stored in Params.
func NewTask(kind Kind, entity string, deps ...string) Task {
	return Task{
		ID:     TaskID(kind, entity),
		Kind:   kind,
		Params: map[string]any{ParamEntity: entity},
		Deps:   deps,
	}
}

// Entity returns the owning entity identifier, or "" if none is set.
func (t Task) Entity() string {
	s, _ := t.Params[ParamEntity].(string)
	return s
}
