package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/engine"
	"github.com/roach88/tickerflow/internal/evalopt"
	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/planner"
	"github.com/roach88/tickerflow/internal/render"
	"github.com/roach88/tickerflow/internal/store"
)

// firstTaskIDs is how many task IDs are listed after planning.
const firstTaskIDs = 10

const noResultsMessage = "No results generated — check data availability or ticker symbols."

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath  string
	RubricPath  string
	Tickers     []string // overrides universe.tickers
	Concurrency int      // overrides engine.concurrency when > 0
	Render      string

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Now overrides the evaluator clock (for testing).
	Now func() time.Time
}

// RunOutcome is one task visit in JSON output.
type RunOutcome struct {
	Seq    int64  `json:"seq"`
	TaskID string `json:"task_id"`
	Route  string `json:"route"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	RunID    string            `json:"run_id"`
	Planned  int               `json:"planned"`
	Outcomes []RunOutcome      `json:"outcomes"`
	Results  map[string]string `json:"results"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan and execute the analysis graph",
		Long: `Plan the task graph for every configured ticker and execute it once.

Each ticker gets the chain ingest-primary → ingest-secondary → summarize →
evaluate (restricted by planner.steps). Kinds are routed through
routing.map; unmapped kinds fall back to routing.fallback. Evaluation
scores are remembered in the ledger at memory.path (JSON file, or SQLite
for .db/.sqlite/.sqlite3).

A run that produces no results is not an error.

Examples:
  tickerflow run
  tickerflow run --config config/config.yml --rubric config/rubric.yml
  tickerflow run --tickers AAPL,MSFT --concurrency 2 --render markdown
  tickerflow run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", config.DefaultConfigPath, "path to config.yml")
	cmd.Flags().StringVar(&opts.RubricPath, "rubric", config.DefaultRubricPath, "path to rubric.yml")
	cmd.Flags().StringSliceVar(&opts.Tickers, "tickers", nil, "tickers to analyse (overrides universe.tickers)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "entity chains run in parallel (overrides engine.concurrency)")
	cmd.Flags().StringVar(&opts.Render, "render", string(render.ModePlain), "body rendering (plain|markdown|none)")

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	mode, err := render.ParseMode(opts.Render)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRender, "invalid --render", err)
	}

	cfg, err := config.Load(opts.ConfigPath, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	rubric, err := config.LoadRubric(opts.RubricPath, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRubric, "failed to load rubric", err)
	}

	tickers := cfg.Universe.Tickers
	if len(opts.Tickers) > 0 {
		tickers = opts.Tickers
	}
	steps, err := cfg.Steps()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid planner steps", err)
	}
	g, err := planner.Build(tickers, planner.TemplateFor(steps))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodePlan, "failed to build plan", err)
	}

	prices, news, err := buildSources(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSource, "failed to configure sources", err)
	}

	ledger, err := store.Open(cfg.Memory.Path, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	defer func() {
		if closeErr := ledger.Close(); closeErr != nil {
			logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	evalOpts := []evalopt.Option{evalopt.WithLogger(logger)}
	if opts.Now != nil {
		evalOpts = append(evalOpts, evalopt.WithClock(opts.Now))
	}

	concurrency := cfg.Engine.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	engOpts := []engine.Option{engine.WithConcurrency(concurrency)}
	if opts.RunIDs != nil {
		engOpts = append(engOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}

	eng := engine.New(g, cfg.Router(logger), engine.Deps{
		Prices:     prices,
		News:       news,
		Evaluator:  evalopt.New(rubric, ledger, evalOpts...),
		Logger:     logger,
		Period:     cfg.Prices.Period,
		Interval:   cfg.Prices.Interval,
		MaxNews:    cfg.News.MaxPerSymbol,
		MaxBullets: cfg.Summarizer.MaxBullets,
	}, engOpts...)

	w := cmd.OutOrStdout()
	if opts.Format != "json" {
		printPlan(w, taskIDs(g.Tasks()))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := eng.Run(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "run interrupted", err)
	}

	if opts.Format == "json" {
		return formatter.Success(toRunResult(report, g.Len()))
	}
	return outputRunText(w, mode, report)
}

func taskIDs(tasks []ir.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func printPlan(w io.Writer, ids []string) {
	fmt.Fprintf(w, "Planned %d tasks.\n", len(ids))
	if len(ids) == 0 {
		return
	}
	if len(ids) > firstTaskIDs {
		ids = ids[:firstTaskIDs]
	}
	fmt.Fprintf(w, "First task IDs: %s\n", strings.Join(ids, ", "))
}

func toRunResult(report *engine.Report, planned int) RunResult {
	out := RunResult{
		RunID:    report.RunID,
		Planned:  planned,
		Outcomes: make([]RunOutcome, 0, len(report.Outcomes)),
		Results:  make(map[string]string, len(report.Results)),
	}
	for _, o := range report.Outcomes {
		ro := RunOutcome{
			Seq:    o.Seq,
			TaskID: o.TaskID,
			Route:  string(o.Route),
			Status: string(o.Status),
			Detail: o.Detail,
		}
		if o.Err != nil {
			ro.Error = o.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, ro)
	}
	for entity, res := range report.Results {
		out.Results[entity] = res.Body
	}
	return out
}

func outputRunText(w io.Writer, mode render.Mode, report *engine.Report) error {
	for _, o := range report.Outcomes {
		fmt.Fprintf(w, "  [%d] %s → %s: %s", o.Seq, o.TaskID, o.Route, o.Status)
		if o.Detail != "" {
			fmt.Fprintf(w, " (%s)", o.Detail)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	if report.Empty() {
		fmt.Fprintln(w, noResultsMessage)
		return nil
	}

	rule := strings.Repeat("#", 40)
	for _, entity := range report.Entities() {
		res, _ := report.Result(entity)
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Report for %s\n", entity)
		fmt.Fprintln(w, rule)
		if err := render.Write(w, mode, res.Body); err != nil {
			return WrapExitError(ExitFailure, "failed to render result", err)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generated %d results.\n", len(report.Results))
	return nil
}
