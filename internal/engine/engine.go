package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tickerflow/internal/evalopt"
	"github.com/roach88/tickerflow/internal/graph"
	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
	"github.com/roach88/tickerflow/internal/router"
)

// Default fetch parameters.
const (
	DefaultPeriod   = "6mo"
	DefaultInterval = "1d"
	DefaultMaxNews  = 15
)

// Deps are the collaborators the handlers call.
type Deps struct {
	Prices    market.PriceSource
	News      market.NewsSource
	Evaluator *evalopt.Evaluator
	Logger    *slog.Logger

	Period     string
	Interval   string
	MaxNews    int
	MaxBullets int
}

// Engine executes one task graph per Run.
type Engine struct {
	graph       *graph.Graph
	router      *router.Router
	deps        Deps
	logger      *slog.Logger
	runIDs      RunIDGenerator
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency runs up to n entity chains in parallel. n <= 1 keeps the
// sequential walk.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithRunIDGenerator replaces the UUIDv7 run ID generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = gen
	}
}

// New creates an Engine for g. Zero-valued Deps fields get defaults: the
// default fetch parameters, slog.Default() and an Evaluator with the
// default rubric and no ledger.
func New(g *graph.Graph, r *router.Router, deps Deps, opts ...Option) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Period == "" {
		deps.Period = DefaultPeriod
	}
	if deps.Interval == "" {
		deps.Interval = DefaultInterval
	}
	if deps.MaxNews <= 0 {
		deps.MaxNews = DefaultMaxNews
	}
	if deps.MaxBullets <= 0 {
		deps.MaxBullets = market.DefaultMaxBullets
	}
	if deps.Evaluator == nil {
		deps.Evaluator = evalopt.New(nil, nil, evalopt.WithLogger(deps.Logger))
	}
	if r == nil {
		r = router.New(router.DefaultRoutes(), router.RouteSkip, deps.Logger)
	}

	e := &Engine{
		graph:       g,
		router:      r,
		deps:        deps,
		logger:      deps.Logger,
		runIDs:      UUIDv7Generator{},
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run walks the topological order once and returns the report. It returns
// an error only when ctx is cancelled; the partial report is returned with
// it.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := newReport(e.runIDs.Generate())
	order := e.graph.TopologicalOrder()
	clock := NewClock()

	parallel := e.concurrency > 1
	if parallel && e.graph.CrossesEntities() {
		e.logger.Warn("dependencies cross entities, running sequentially",
			"run_id", report.RunID,
			"concurrency", e.concurrency)
		parallel = false
	}

	e.logger.Info("run starting",
		"run_id", report.RunID,
		"tasks", len(order),
		"concurrency", e.concurrency)

	var err error
	if parallel {
		err = e.runParallel(ctx, order, clock, report)
	} else {
		err = e.runSequential(ctx, order, clock, report)
	}

	e.logger.Info("run finished",
		"run_id", report.RunID,
		"results", len(report.Results),
		"completed", report.Count(StatusCompleted),
		"degraded", report.Count(StatusDegraded),
		"skipped", report.Count(StatusSkipped),
		"failed", report.Count(StatusFailed)+report.Count(StatusFailedPrecondition))
	return report, err
}

func (e *Engine) runSequential(ctx context.Context, order []ir.Task, clock *Clock, report *Report) error {
	chains := map[string]*chain{}
	for _, task := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch, ok := chains[task.Entity()]
		if !ok {
			ch = newChain(task.Entity())
			chains[task.Entity()] = ch
		}
		report.Outcomes = append(report.Outcomes, e.visit(ctx, clock.Next(), task, ch))
		if ch.result != nil {
			report.Results[ch.entity] = *ch.result
		}
	}
	return ctx.Err()
}

// runParallel splits the order into per-entity slices and runs each slice
// in its own goroutine.
func (e *Engine) runParallel(ctx context.Context, order []ir.Task, clock *Clock, report *Report) error {
	var entities []string
	slices := map[string][]ir.Task{}
	for _, task := range order {
		ent := task.Entity()
		if _, ok := slices[ent]; !ok {
			entities = append(entities, ent)
		}
		slices[ent] = append(slices[ent], task)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, ent := range entities {
		tasks := slices[ent]
		ch := newChain(ent)
		g.Go(func() error {
			for _, task := range tasks {
				if err := gctx.Err(); err != nil {
					return err
				}
				out := e.visit(gctx, clock.Next(), task, ch)

				mu.Lock()
				report.Outcomes = append(report.Outcomes, out)
				if ch.result != nil {
					report.Results[ch.entity] = *ch.result
				}
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	report.sortOutcomes()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// visit routes and dispatches one task.
func (e *Engine) visit(ctx context.Context, seq int64, task ir.Task, ch *chain) TaskOutcome {
	route := e.router.Resolve(task.Kind)
	out := TaskOutcome{
		Seq:    seq,
		TaskID: task.ID,
		Kind:   task.Kind,
		Entity: task.Entity(),
		Route:  route,
	}

	if route == router.RouteSkip {
		out.Status = StatusSkipped
		e.logger.Debug("task skipped", "seq", seq, "task", task.ID)
		return out
	}

	var (
		status Status
		detail string
		err    error
	)
	switch task.Kind {
	case ir.KindIngestPrimary:
		status, detail = e.ingestPrimary(ctx, task, ch)
	case ir.KindIngestSecondary:
		status, detail = e.ingestSecondary(ctx, task, ch)
	case ir.KindSummarize:
		status, detail = e.summarize(ctx, task, ch)
	case ir.KindEvaluate:
		status, detail, err = e.evaluate(ctx, task, ch)
	default:
		status = StatusFailed
		err = &TaskError{
			Code:    ErrCodeUnhandledKind,
			Message: "no handler for kind " + task.Kind.String(),
			TaskID:  task.ID,
		}
	}

	out.Status, out.Detail, out.Err = status, detail, err
	if err != nil {
		e.logger.Warn("task failed",
			"seq", seq,
			"task", task.ID,
			"route", route,
			"status", status,
			"error", err)
	} else {
		e.logger.Debug("task visited",
			"seq", seq,
			"task", task.ID,
			"route", route,
			"status", status)
	}
	return out
}
