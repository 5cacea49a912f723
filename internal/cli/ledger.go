package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/store"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	ConfigPath string
	Path       string // overrides memory.path
	Entity     string // optional - filter to one entity
}

// LedgerEntry is one ledger key in the listing.
type LedgerEntry struct {
	Key       string          `json:"key"`
	Entity    string          `json:"entity,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
	Score     *float64        `json:"score,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"` // values that are not score records
}

// LedgerResult holds the complete ledger listing.
type LedgerResult struct {
	Path    string        `json:"path"`
	Entries []LedgerEntry `json:"entries"`
	Stats   LedgerStats   `json:"stats"`
}

// LedgerStats summarizes the listed scores.
type LedgerStats struct {
	Entries int     `json:"entries"`
	Scores  int     `json:"scores"`
	Mean    float64 `json:"mean,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show remembered evaluation scores",
		Long: `List the records in the evaluation ledger.

The ledger path comes from memory.path in the config unless --path is
given. Score records are shown with their timestamp; other keys are
listed with their raw value.

Examples:
  tickerflow ledger
  tickerflow ledger --path memory.db --entity AAPL
  tickerflow ledger --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", config.DefaultConfigPath, "path to config.yml")
	cmd.Flags().StringVar(&opts.Path, "path", "", "ledger path (overrides memory.path)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "filter to one entity")

	return cmd
}

func runLedger(opts *LedgerOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	path := opts.Path
	if path == "" {
		cfg, err := config.Load(opts.ConfigPath, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
		path = cfg.Memory.Path
	}

	ledger, err := store.Open(path, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	defer ledger.Close()

	all, err := ledger.All(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read ledger", err)
	}

	result := LedgerResult{Path: path, Entries: buildEntries(all, opts.Entity)}
	result.Stats = summarizeEntries(result.Entries)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputLedgerText(cmd, result)
}

// buildEntries decodes score records and keeps everything else raw. Keys
// are sorted.
func buildEntries(all map[string]json.RawMessage, entity string) []LedgerEntry {
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	scorePrefix := string(ir.RecordScore) + ":"
	entries := []LedgerEntry{}
	for _, key := range keys {
		e := LedgerEntry{Key: key}
		if strings.HasPrefix(key, scorePrefix) {
			e.Entity = strings.TrimPrefix(key, scorePrefix)
		}
		if entity != "" && e.Entity != entity {
			continue
		}

		var rec ir.LedgerRecord
		if e.Entity != "" && json.Unmarshal(all[key], &rec) == nil {
			score := rec.Score
			e.Timestamp, e.Score = rec.Timestamp, &score
		} else {
			e.Raw = all[key]
		}
		entries = append(entries, e)
	}
	return entries
}

func summarizeEntries(entries []LedgerEntry) LedgerStats {
	st := LedgerStats{Entries: len(entries)}
	sum := 0.0
	for _, e := range entries {
		if e.Score == nil {
			continue
		}
		s := *e.Score
		if st.Scores == 0 || s < st.Min {
			st.Min = s
		}
		if st.Scores == 0 || s > st.Max {
			st.Max = s
		}
		sum += s
		st.Scores++
	}
	if st.Scores > 0 {
		st.Mean = sum / float64(st.Scores)
	}
	return st
}

// outputLedgerText outputs the ledger listing as text.
func outputLedgerText(cmd *cobra.Command, result LedgerResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Ledger: %s\n", result.Path)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Entries ===")
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "  (no entries)")
	}
	for _, e := range result.Entries {
		if e.Score != nil {
			ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
			fmt.Fprintf(w, "  %-20s %.3f  %s\n", e.Key, *e.Score, ts)
			continue
		}
		fmt.Fprintf(w, "  %-20s %s\n", e.Key, string(e.Raw))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Entries: %d\n", result.Stats.Entries)
	fmt.Fprintf(w, "  Scores:  %d\n", result.Stats.Scores)
	if result.Stats.Scores > 0 {
		fmt.Fprintf(w, "  Mean:    %.3f (min %.3f, max %.3f)\n", result.Stats.Mean, result.Stats.Min, result.Stats.Max)
	}
	return nil
}
