package harness

import "github.com/roach88/tickerflow/internal/ir"

// TraceEvent is one task visit.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	TaskID string `json:"task_id"`
	Route  string `json:"route"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID is the engine's run identifier.
	RunID string `json:"run_id,omitempty"`

	// Trace contains every task visit in seq order.
	Trace []TraceEvent `json:"trace"`

	// Bodies maps entity to final Markdown body.
	Bodies map[string]string `json:"bodies"`

	// Ledger holds the remembered scores by ledger key.
	Ledger map[string]ir.LedgerRecord `json:"ledger"`

	// PlanError is the graph error code when planning failed.
	PlanError string `json:"plan_error,omitempty"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Bodies: map[string]string{},
		Ledger: map[string]ir.LedgerRecord{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
