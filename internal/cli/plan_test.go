package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executePlan(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewPlanCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestPlan_Text(t *testing.T) {
	ws := newWorkspace(t, []string{"AAA", "BBB"}, "")

	out, err := executePlan(t, "text", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 8 tasks.")
	assert.Contains(t, out, "summarize:AAA")
	assert.Contains(t, out, "after ingest-primary:AAA, ingest-secondary:AAA")
}

func TestPlan_JSONOrderAndRoutes(t *testing.T) {
	ws := newWorkspace(t, []string{"AAA", "BBB"}, "routing:\n  map:\n    prices: market\n    publish: web\n")

	out, err := executePlan(t, "json", "--config", ws.config)
	require.NoError(t, err)

	var resp struct {
		Data PlanResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Tasks, 8)
	assert.Equal(t, []string{"publish"}, resp.Data.Ignored)

	ids := make([]string, len(resp.Data.Tasks))
	for i, task := range resp.Data.Tasks {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{
		"ingest-primary:AAA", "ingest-secondary:AAA", "summarize:AAA", "evaluate:AAA",
		"ingest-primary:BBB", "ingest-secondary:BBB", "summarize:BBB", "evaluate:BBB",
	}, ids)

	assert.Equal(t, "market", resp.Data.Tasks[0].Route)
	assert.Equal(t, "skip", resp.Data.Tasks[1].Route)
	assert.Equal(t, "AAA", resp.Data.Tasks[0].Entity)
	assert.Equal(t, 1, resp.Data.Tasks[0].Position)
	assert.Empty(t, resp.Data.Tasks[0].Deps)
}

func TestPlan_TickersFlag(t *testing.T) {
	ws := newWorkspace(t, []string{"AAA"}, "planner:\n  steps: [summarize, evaluate]\n")

	out, err := executePlan(t, "text", "--config", ws.config, "--tickers", "X,Y,Z")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 6 tasks.")
	assert.NotContains(t, out, "ingest")
}

func TestPlan_DuplicateTicker(t *testing.T) {
	ws := newWorkspace(t, []string{"AAA"}, "")

	_, err := executePlan(t, "text", "--config", ws.config, "--tickers", "AAA,AAA")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "DUPLICATE_TASK")
}

func TestPlan_MissingConfigUsesDefaults(t *testing.T) {
	out, err := executePlan(t, "text", "--config", t.TempDir()+"/missing.yml")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 0 tasks.")
}
