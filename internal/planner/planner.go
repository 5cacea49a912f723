// Package planner expands a per-entity stage template into a task graph.
package planner

import (
	"fmt"

	"github.com/roach88/tickerflow/internal/graph"
	"github.com/roach88/tickerflow/internal/ir"
)

// Stage is one step of the per-entity template.
type Stage struct {
	Kind  ir.Kind
	After []ir.Kind // stages of the same entity that must complete first
}

// DefaultTemplate is the four-stage analysis chain.
var DefaultTemplate = []Stage{
	{Kind: ir.KindIngestPrimary},
	{Kind: ir.KindIngestSecondary, After: []ir.Kind{ir.KindIngestPrimary}},
	{Kind: ir.KindSummarize, After: []ir.Kind{ir.KindIngestPrimary, ir.KindIngestSecondary}},
	{Kind: ir.KindEvaluate, After: []ir.Kind{ir.KindSummarize}},
}

// TemplateFor restricts DefaultTemplate to the given kinds. Stages keep
// template order regardless of the order of steps, and edges to omitted
// stages are dropped. An empty steps list returns the full template.
func TemplateFor(steps []ir.Kind) []Stage {
	if len(steps) == 0 {
		return DefaultTemplate
	}
	keep := make(map[ir.Kind]bool, len(steps))
	for _, k := range steps {
		keep[k] = true
	}

	var out []Stage
	for _, st := range DefaultTemplate {
		if !keep[st.Kind] {
			continue
		}
		var after []ir.Kind
		for _, k := range st.After {
			if keep[k] {
				after = append(after, k)
			}
		}
		out = append(out, Stage{Kind: st.Kind, After: after})
	}
	return out
}

// Build produces the graph for entities under template.
//
// Tasks are emitted entity by entity in template order, so the graph's
// insertion-order tie-break runs each entity's chain before the next
// entity's. Edges never cross entities.
func Build(entities []string, template []Stage) (*graph.Graph, error) {
	tasks := make([]ir.Task, 0, len(entities)*len(template))
	for _, entity := range entities {
		if entity == "" {
			return nil, fmt.Errorf("plan: empty entity identifier")
		}
		for _, st := range template {
			deps := make([]string, 0, len(st.After))
			for _, k := range st.After {
				deps = append(deps, ir.TaskID(k, entity))
			}
			tasks = append(tasks, ir.NewTask(st.Kind, entity, deps...))
		}
	}

	g, err := graph.New(tasks)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return g, nil
}
