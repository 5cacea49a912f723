package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeLedger(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewLedgerCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

const sampleLedger = `{
  "score:AAA": {"ts": 1709294400, "score": 0.85},
  "score:BBB": {"ts": 1709294401, "score": 0.575},
  "notes": "kept"
}`

func TestLedger_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	writeFile(t, path, sampleLedger)

	out, err := executeLedger(t, "text", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ledger: "+path)
	assert.Contains(t, out, "score:AAA")
	assert.Contains(t, out, "0.850  2024-03-01T12:00:00Z")
	assert.Regexp(t, `notes\s+"kept"`, out)
	assert.Contains(t, out, "Entries: 3")
	assert.Contains(t, out, "Scores:  2")
	assert.Contains(t, out, "(min 0.575, max 0.850)")
}

func TestLedger_JSONEntityFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	writeFile(t, path, sampleLedger)

	out, err := executeLedger(t, "json", "--path", path, "--entity", "BBB")
	require.NoError(t, err)

	var resp struct {
		Data LedgerResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Entries, 1)
	e := resp.Data.Entries[0]
	assert.Equal(t, "BBB", e.Entity)
	require.NotNil(t, e.Score)
	assert.InDelta(t, 0.575, *e.Score, 1e-9)
	assert.Equal(t, int64(1709294401), e.Timestamp)
}

func TestLedger_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.json")

	out, err := executeLedger(t, "text", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(no entries)")
}

func TestLedger_PathFromConfig(t *testing.T) {
	ws := newWorkspace(t, []string{"AAA"}, "")
	writeFile(t, ws.ledger, sampleLedger)

	out, err := executeLedger(t, "text", "--config", ws.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Ledger: "+ws.ledger)
	assert.Contains(t, out, "Entries: 3")
}

func TestSummarizeEntries(t *testing.T) {
	a, b := 0.2, 0.6
	st := summarizeEntries([]LedgerEntry{{Key: "score:A", Score: &a}, {Key: "x"}, {Key: "score:B", Score: &b}})
	assert.Equal(t, 3, st.Entries)
	assert.Equal(t, 2, st.Scores)
	assert.InDelta(t, 0.4, st.Mean, 1e-9)
	assert.Equal(t, 0.2, st.Min)
	assert.Equal(t, 0.6, st.Max)
}
