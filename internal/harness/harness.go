package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/engine"
	"github.com/roach88/tickerflow/internal/evalopt"
	"github.com/roach88/tickerflow/internal/graph"
	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
	"github.com/roach88/tickerflow/internal/planner"
	"github.com/roach88/tickerflow/internal/store"
	"github.com/roach88/tickerflow/internal/testutil"
)

// clockStep separates the timestamps of consecutive ledger writes.
const clockStep = time.Second

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory ledger. Logs are discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with an explicit logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	result := NewResult()

	steps, err := parseSteps(scenario.Steps)
	if err != nil {
		return nil, err
	}

	g, err := planner.Build(scenario.Tickers, planner.TemplateFor(steps))
	if err != nil {
		var ce *graph.ConstructionError
		if !errors.As(err, &ce) || scenario.ExpectPlanError == "" {
			return nil, err
		}
		result.PlanError = string(ce.Code)
		if result.PlanError != scenario.ExpectPlanError {
			result.AddError(fmt.Sprintf("plan error: expected %s, got %s", scenario.ExpectPlanError, result.PlanError))
		}
		return result, nil
	}
	if scenario.ExpectPlanError != "" {
		result.AddError(fmt.Sprintf("plan error: expected %s, planning succeeded", scenario.ExpectPlanError))
		return result, nil
	}

	ledger, err := store.OpenSQLite(":memory:", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer ledger.Close()

	cfg := config.Default()
	if scenario.Routing != nil {
		cfg.Routing = *scenario.Routing
		if cfg.Routing.Fallback == "" {
			cfg.Routing.Fallback = config.Default().Routing.Fallback
		}
	}

	var rubric evalopt.Rubric
	if len(scenario.Rubric) > 0 {
		rubric = evalopt.Rubric(scenario.Rubric)
	}
	clock := testutil.NewDeterministicClock(time.Time{}, clockStep)
	evaluator := evalopt.New(rubric, ledger, evalopt.WithClock(clock.Now), evalopt.WithLogger(logger))

	source, err := buildSource(scenario.Fixtures)
	if err != nil {
		return nil, err
	}

	concurrency := scenario.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}
	eng := engine.New(g, cfg.Router(logger), engine.Deps{
		Prices:     source,
		News:       source,
		Evaluator:  evaluator,
		Logger:     logger,
		MaxBullets: scenario.MaxBullets,
	}, engine.WithConcurrency(concurrency), engine.WithRunIDGenerator(testutil.FixedRunID(scenario.Name)))

	ctx := context.Background()
	report, err := eng.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run failed: %w", err)
	}

	result.RunID = report.RunID
	for _, o := range report.Outcomes {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:    o.Seq,
			TaskID: o.TaskID,
			Route:  string(o.Route),
			Status: string(o.Status),
			Detail: o.Detail,
		})
	}
	for entity, res := range report.Results {
		result.Bodies[entity] = res.Body
	}

	all, err := ledger.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	for key, raw := range all {
		var rec ir.LedgerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode ledger %s: %w", key, err)
		}
		result.Ledger[key] = rec
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func parseSteps(names []string) ([]ir.Kind, error) {
	steps := make([]ir.Kind, 0, len(names))
	for _, name := range names {
		k, err := ir.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("steps: %w", err)
		}
		steps = append(steps, k)
	}
	return steps, nil
}

func buildSource(f Fixtures) (*testutil.StaticSource, error) {
	src := testutil.NewStaticSource()
	for sym, p := range f.Prices {
		var start time.Time
		if p.Start != "" {
			t, err := time.Parse(fixtureDateLayout, p.Start)
			if err != nil {
				return nil, fmt.Errorf("prices.%s: %w", sym, err)
			}
			start = t
		}
		closes := p.Closes
		if p.Ramp != nil {
			closes = testutil.Ramp(p.Ramp.N, p.Ramp.From, p.Ramp.Step)
		}
		src.Prices[sym] = testutil.BuildSeries(start, closes...)
	}
	for sym, items := range f.News {
		for _, it := range items {
			src.News[sym] = append(src.News[sym], market.NewsItem{Title: it.Title, Source: it.Source, Link: it.Link})
		}
	}
	for _, sym := range f.Fail {
		src.Fail[sym] = true
	}
	return src, nil
}
