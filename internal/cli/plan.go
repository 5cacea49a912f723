package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/planner"
	"github.com/roach88/tickerflow/internal/router"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	ConfigPath string
	Tickers    []string
}

// PlanTask is one task in execution order.
type PlanTask struct {
	Position int      `json:"position"`
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Entity   string   `json:"entity"`
	Route    string   `json:"route"`
	Deps     []string `json:"deps,omitempty"`
}

// PlanResult is the JSON payload of the plan command.
type PlanResult struct {
	Tasks   []PlanTask `json:"tasks"`
	Ignored []string   `json:"ignored_routing_keys,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the execution order without running it",
		Long: `Build the task graph from the configuration and print the
deterministic execution order with each task's route and dependencies.
Nothing is fetched and the ledger is not touched.

Examples:
  tickerflow plan
  tickerflow plan --tickers AAPL,MSFT --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", config.DefaultConfigPath, "path to config.yml")
	cmd.Flags().StringSliceVar(&opts.Tickers, "tickers", nil, "tickers to plan for (overrides universe.tickers)")

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := config.Load(opts.ConfigPath, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
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

	table, ignored := cfg.RoutingTable()
	fallback := router.Route(cfg.Routing.Fallback)

	result := PlanResult{Tasks: []PlanTask{}, Ignored: ignored}
	for i, task := range g.TopologicalOrder() {
		route, ok := table[task.Kind]
		if !ok || route == "" {
			route = fallback
		}
		deps := append([]string(nil), task.Deps...)
		sort.Strings(deps)
		result.Tasks = append(result.Tasks, PlanTask{
			Position: i + 1,
			ID:       task.ID,
			Kind:     task.Kind.String(),
			Entity:   task.Entity(),
			Route:    string(route),
			Deps:     deps,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Planned %d tasks.\n", len(result.Tasks))
	for _, name := range result.Ignored {
		fmt.Fprintf(w, "  ignored routing key: %s\n", name)
	}
	for _, t := range result.Tasks {
		fmt.Fprintf(w, "  %3d. %-28s → %s", t.Position, t.ID, t.Route)
		if len(t.Deps) > 0 {
			fmt.Fprintf(w, "  after %s", strings.Join(t.Deps, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
