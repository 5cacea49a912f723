package engine

import (
	"sort"

	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/router"
)

// Status is the outcome of one task visit.
type Status string

const (
	StatusCompleted          Status = "completed"
	StatusSkipped            Status = "skipped"
	StatusDegraded           Status = "degraded"
	StatusFailedPrecondition Status = "failed-precondition"
	StatusFailed             Status = "failed"
)

// TaskOutcome records one visit.
type TaskOutcome struct {
	Seq    int64        `json:"seq"`
	TaskID string       `json:"task_id"`
	Kind   ir.Kind      `json:"kind"`
	Entity string       `json:"entity"`
	Route  router.Route `json:"route"`
	Status Status       `json:"status"`
	Detail string       `json:"detail,omitempty"`
	Err    error        `json:"-"`
}

// Report is the product of a run.
type Report struct {
	RunID    string               `json:"run_id"`
	Outcomes []TaskOutcome        `json:"outcomes"`
	Results  map[string]ir.Result `json:"results"`
}

func newReport(runID string) *Report {
	return &Report{RunID: runID, Outcomes: []TaskOutcome{}, Results: map[string]ir.Result{}}
}

// Entities returns the entities with a Result, sorted.
func (r *Report) Entities() []string {
	out := make([]string, 0, len(r.Results))
	for e := range r.Results {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the run produced no results.
func (r *Report) Empty() bool { return len(r.Results) == 0 }

// Result returns the Result for entity.
func (r *Report) Result(entity string) (ir.Result, bool) {
	res, ok := r.Results[entity]
	return res, ok
}

// Outcome returns the outcome recorded for taskID.
func (r *Report) Outcome(taskID string) (TaskOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.TaskID == taskID {
			return o, true
		}
	}
	return TaskOutcome{}, false
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) sortOutcomes() {
	sort.Slice(r.Outcomes, func(i, j int) bool { return r.Outcomes[i].Seq < r.Outcomes[j].Seq })
}
