package harness

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text: the trace, each entity's
// final body, and the ledger, all in deterministic order.
func Snapshot(name string, r *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	if r.PlanError != "" {
		fmt.Fprintf(&b, "plan error: %s\n", r.PlanError)
		return []byte(b.String())
	}

	b.WriteString("trace:\n")
	for _, ev := range r.Trace {
		fmt.Fprintf(&b, "%d\t%s\t%s\t%s", ev.Seq, ev.TaskID, ev.Route, ev.Status)
		if ev.Detail != "" {
			fmt.Fprintf(&b, "\t%s", ev.Detail)
		}
		b.WriteString("\n")
	}

	b.WriteString("results:\n")
	for _, entity := range sortedKeys(r.Bodies) {
		fmt.Fprintf(&b, "=== %s\n", entity)
		body := r.Bodies[entity]
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}

	b.WriteString("ledger:\n")
	keys := make([]string, 0, len(r.Ledger))
	for k := range r.Ledger {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec := r.Ledger[k]
		fmt.Fprintf(&b, "%s\tts=%d\tscore=%.3f\n", k, rec.Timestamp, rec.Score)
	}
	return []byte(b.String())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	AssertGolden(t, scenario.Name, result)
	if !result.Pass {
		return fmt.Errorf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}
	return nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
