package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// workspace is a temp directory with CSV price and news fixtures and a
// config pointing at them.
type workspace struct {
	dir    string
	config string
	rubric string
	ledger string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// priceCSV returns n daily rows from 2024-03-01 with closes from+i.
func priceCSV(n int, from float64) string {
	var b strings.Builder
	b.WriteString("Date,Close\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2024-03-%02d,%.2f\n", i+1, from+float64(i))
	}
	return b.String()
}

func newWorkspace(t *testing.T, tickers []string, extra string) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:    dir,
		config: filepath.Join(dir, "config.yml"),
		rubric: filepath.Join(dir, "rubric.yml"),
		ledger: filepath.Join(dir, "memory.json"),
	}

	writeFile(t, filepath.Join(dir, "prices", "AAA.csv"), priceCSV(25, 100))
	writeFile(t, filepath.Join(dir, "news.csv"), "symbol,title,source,link\nAAA,AAA beats estimates,Wire,https://news.test/aaa\n")

	cfg := fmt.Sprintf(`universe:
  tickers: [%s]
memory:
  path: %s
prices:
  provider: csv
  csv_dir: %s
news:
  provider: csv
  csv_path: %s
%s`, strings.Join(tickers, ", "), ws.ledger, filepath.Join(dir, "prices"), filepath.Join(dir, "news.csv"), extra)
	writeFile(t, ws.config, cfg)
	return ws
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func replaceLedgerPath(cfg, from, to string) string {
	return strings.Replace(cfg, "path: "+from, "path: "+to, 1)
}
