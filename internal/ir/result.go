package ir

// Section names written by the summarize stage.
const (
	SectionStats     = "stats"
	SectionNews      = "news"
	SectionSentiment = "sentiment"
)

// Result accumulates one entity's stage outputs.
//
// Result is passed by value. WithSection and WithBody return updated copies
// and never touch the receiver's section map, so a stage handler cannot
// mutate a Result it does not return.
type Result struct {
	Entity   string         `json:"entity"`
	Sections map[string]any `json:"sections"`
	Body     string         `json:"body"`
}

// NewResult returns an empty Result for entity.
func NewResult(entity string) Result {
	return Result{Entity: entity, Sections: map[string]any{}}
}

// WithSection returns a copy of r with the named section set.
func (r Result) WithSection(name string, content any) Result {
	sections := make(map[string]any, len(r.Sections)+1)
	for k, v := range r.Sections {
		sections[k] = v
	}
	sections[name] = content
	r.Sections = sections
	return r
}

// WithBody returns a copy of r with the rendered body replaced.
func (r Result) WithBody(body string) Result {
	r.Body = body
	return r
}

// Section returns the named section and whether it is present.
func (r Result) Section(name string) (any, bool) {
	v, ok := r.Sections[name]
	return v, ok
}
