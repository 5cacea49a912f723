package planner

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickerflow/internal/graph"
	"github.com/roach88/tickerflow/internal/ir"
)

func ids(tasks []ir.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestBuild_TwoEntitiesFourStages(t *testing.T) {
	g, err := Build([]string{"AAA", "BBB"}, DefaultTemplate)
	require.NoError(t, err)
	require.Equal(t, 8, g.Len())

	var want []string
	for _, k := range ir.AllKinds() {
		for _, e := range []string{"AAA", "BBB"} {
			want = append(want, ir.TaskID(k, e))
		}
	}
	got := ids(g.Tasks())
	sort.Strings(want)
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("task IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_IntraEntityOrder(t *testing.T) {
	g, err := Build([]string{"AAA", "BBB"}, DefaultTemplate)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, id := range ids(g.TopologicalOrder()) {
		pos[id] = i
	}
	for _, e := range []string{"AAA", "BBB"} {
		assert.Less(t, pos["ingest-primary:"+e], pos["ingest-secondary:"+e])
		assert.Less(t, pos["ingest-secondary:"+e], pos["summarize:"+e])
		assert.Less(t, pos["ingest-primary:"+e], pos["summarize:"+e])
		assert.Less(t, pos["summarize:"+e], pos["evaluate:"+e])
	}
}

// TestBuild_NoCrossEntityEdges verifies entity chains are independent.
func TestBuild_NoCrossEntityEdges(t *testing.T) {
	g, err := Build([]string{"AAA", "BBB"}, DefaultTemplate)
	require.NoError(t, err)
	assert.False(t, g.CrossesEntities())

	for _, task := range g.Tasks() {
		for _, dep := range task.Deps {
			d, ok := g.Task(dep)
			require.True(t, ok)
			assert.Equal(t, task.Entity(), d.Entity(), "%s -> %s crosses entities", task.ID, dep)
		}
	}

	secondary, _ := g.Task("ingest-secondary:AAA")
	assert.Equal(t, []string{"ingest-primary:AAA"}, secondary.Deps)
	assert.Empty(t, g.Dependents("evaluate:AAA"))
}

func TestBuild_DeterministicOrder(t *testing.T) {
	g, err := Build([]string{"AAA", "BBB"}, DefaultTemplate)
	require.NoError(t, err)

	want := []string{
		"ingest-primary:AAA", "ingest-secondary:AAA", "summarize:AAA", "evaluate:AAA",
		"ingest-primary:BBB", "ingest-secondary:BBB", "summarize:BBB", "evaluate:BBB",
	}
	assert.Equal(t, want, ids(g.TopologicalOrder()))
}

func TestBuild_NoEntities(t *testing.T) {
	g, err := Build(nil, DefaultTemplate)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestBuild_EmptyEntity(t *testing.T) {
	_, err := Build([]string{"AAA", ""}, DefaultTemplate)
	require.Error(t, err)
}

func TestBuild_DuplicateEntity(t *testing.T) {
	_, err := Build([]string{"AAA", "AAA"}, DefaultTemplate)
	require.Error(t, err)
	assert.True(t, graph.IsConstructionError(err))
}

func TestTemplateFor_Subset(t *testing.T) {
	tpl := TemplateFor([]ir.Kind{ir.KindEvaluate, ir.KindIngestPrimary, ir.KindSummarize})
	require.Len(t, tpl, 3)
	assert.Equal(t, ir.KindIngestPrimary, tpl[0].Kind)
	assert.Equal(t, ir.KindSummarize, tpl[1].Kind)
	assert.Equal(t, []ir.Kind{ir.KindIngestPrimary}, tpl[1].After)
	assert.Equal(t, ir.KindEvaluate, tpl[2].Kind)

	g, err := Build([]string{"AAA"}, tpl)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
}

func TestTemplateFor_EvaluateOnly(t *testing.T) {
	tpl := TemplateFor([]ir.Kind{ir.KindEvaluate})
	require.Len(t, tpl, 1)
	assert.Empty(t, tpl[0].After)
}

func TestTemplateFor_EmptyMeansAll(t *testing.T) {
	assert.Equal(t, DefaultTemplate, TemplateFor(nil))
}
