package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/tickerflow/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.TaskID, ev.Status)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceOrder:
		return assertTraceOrder(r.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(r.Trace, a)
	case AssertStatus:
		return assertStatus(r.Trace, a)
	case AssertResultContains:
		return assertResultContains(r, a)
	case AssertNoResult:
		if _, ok := r.Bodies[a.Entity]; ok {
			return &AssertionError{Type: a.Type, Expected: "no result for " + a.Entity, Actual: "result present"}
		}
		return nil
	case AssertLedgerScore:
		return assertLedgerScore(r, a)
	case AssertNoLedger:
		key := ir.LedgerKey(ir.RecordScore, a.Entity)
		if rec, ok := r.Ledger[key]; ok {
			return &AssertionError{Type: a.Type, Expected: "no ledger record " + key, Actual: fmt.Sprintf("score %.3f", rec.Score)}
		}
		return nil
	default:
		return &AssertionError{Type: a.Type, Expected: "known assertion type", Actual: a.Type}
	}
}

// assertTraceOrder checks that tasks appear in the given relative order.
// Intervening tasks are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int, len(trace))
	for i, ev := range trace {
		positions[ev.TaskID] = i + 1 // 1-indexed for readability
	}

	for _, id := range a.Tasks {
		if positions[id] == 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("all tasks present: %v", a.Tasks),
				Actual:   "missing task: " + id,
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Tasks); i++ {
		prev, curr := a.Tasks[i-1], a.Tasks[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("tasks in order: %v", a.Tasks),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount counts outcomes, filtered by status when one is given.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.Status == "" || ev.Status == a.Status {
			count++
		}
	}
	if count != a.Count {
		what := "outcomes"
		if a.Status != "" {
			what = a.Status + " outcomes"
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Trace:    trace,
		}
	}
	return nil
}

func assertStatus(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.TaskID == a.Task {
			if ev.Status != a.Status {
				return &AssertionError{
					Type:     a.Type,
					Expected: fmt.Sprintf("%s %s", a.Task, a.Status),
					Actual:   fmt.Sprintf("%s %s", a.Task, ev.Status),
					Trace:    trace,
				}
			}
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s", a.Task, a.Status),
		Actual:   "task not in trace",
		Trace:    trace,
	}
}

func assertResultContains(r *Result, a Assertion) error {
	body, ok := r.Bodies[a.Entity]
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "result for " + a.Entity, Actual: "no result"}
	}
	if !strings.Contains(body, a.Text) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s body contains %q", a.Entity, a.Text),
			Actual:   body,
		}
	}
	return nil
}

func assertLedgerScore(r *Result, a Assertion) error {
	key := ir.LedgerKey(ir.RecordScore, a.Entity)
	rec, ok := r.Ledger[key]
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "ledger record " + key, Actual: "missing"}
	}
	if a.Min != nil && rec.Score < *a.Min {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s >= %.3f", key, *a.Min), Actual: fmt.Sprintf("%.3f", rec.Score)}
	}
	if a.Max != nil && rec.Score > *a.Max {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s <= %.3f", key, *a.Max), Actual: fmt.Sprintf("%.3f", rec.Score)}
	}
	return nil
}
