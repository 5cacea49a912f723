package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickerflow/internal/evalopt"
	"github.com/roach88/tickerflow/internal/graph"
	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
	"github.com/roach88/tickerflow/internal/planner"
	"github.com/roach88/tickerflow/internal/router"
	"github.com/roach88/tickerflow/internal/store"
	"github.com/roach88/tickerflow/internal/testutil"
)

type fixture struct {
	source *testutil.StaticSource
	ledger store.Ledger
	logs   *bytes.Buffer
	logger *slog.Logger
	clock  *testutil.DeterministicClock
}

func newFixture(t *testing.T, symbols ...string) *fixture {
	t.Helper()
	src := testutil.NewStaticSource()
	for _, sym := range symbols {
		src.Prices[sym] = testutil.BuildSeries(time.Time{}, testutil.Ramp(30, 100, 1)...)
		src.News[sym] = []market.NewsItem{
			{Title: sym + " rallies", Source: "Wire", Link: "https://x.test/" + sym},
			{Title: sym + " guidance raised", Source: "Desk"},
		}
	}

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ledger, err := store.OpenFile(filepath.Join(t.TempDir(), "memory.json"), logger)
	require.NoError(t, err)

	return &fixture{
		source: src,
		ledger: ledger,
		logs:   logs,
		logger: logger,
		clock:  testutil.NewDeterministicClock(time.Time{}, time.Second),
	}
}

func (f *fixture) engine(t *testing.T, g *graph.Graph, r *router.Router, opts ...Option) *Engine {
	t.Helper()
	if r == nil {
		r = router.New(router.DefaultRoutes(), router.RouteSkip, f.logger)
	}
	ev := evalopt.New(nil, f.ledger, evalopt.WithClock(f.clock.Now), evalopt.WithLogger(f.logger))
	opts = append([]Option{WithRunIDGenerator(testutil.FixedRunID("run-1"))}, opts...)
	return New(g, r, Deps{
		Prices:    f.source,
		News:      f.source,
		Evaluator: ev,
		Logger:    f.logger,
	}, opts...)
}

func buildGraph(t *testing.T, symbols []string, steps ...ir.Kind) *graph.Graph {
	t.Helper()
	g, err := planner.Build(symbols, planner.TemplateFor(steps))
	require.NoError(t, err)
	return g
}

func taskIDs(r *Report) []string {
	ids := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		ids[i] = o.TaskID
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestRun_FullPipeline(t *testing.T) {
	f := newFixture(t, "AAA")
	report, err := f.engine(t, buildGraph(t, []string{"AAA"}), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []string{
		"ingest-primary:AAA",
		"ingest-secondary:AAA",
		"summarize:AAA",
		"evaluate:AAA",
	}, taskIDs(report))
	for i, o := range report.Outcomes {
		assert.Equal(t, int64(i+1), o.Seq)
		assert.Equal(t, StatusCompleted, o.Status, o.TaskID)
		assert.NoError(t, o.Err)
	}

	res, ok := report.Result("AAA")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(res.Body, "### AAA\n\n"))
	assert.Contains(t, res.Body, "closed at **129.00**")
	assert.Contains(t, res.Body, "Recent headlines:")
	assert.NotContains(t, res.Body, "Improvements for next run")

	sentiment, ok := res.Section(ir.SectionSentiment)
	require.True(t, ok)
	assert.Equal(t, market.VeryBullish, sentiment)

	raw, ok, err := f.ledger.Get(context.Background(), "score:AAA")
	require.NoError(t, err)
	require.True(t, ok)
	var rec ir.LedgerRecord
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, testutil.DefaultEpoch.Unix(), rec.Timestamp)
	assert.InDelta(t, 0.85, rec.Score, 1e-9)

	assert.Equal(t, []string{"AAA"}, report.Entities())
	assert.False(t, report.Empty())
}

func TestRun_SummarizeReusesIngestArtifacts(t *testing.T) {
	f := newFixture(t, "AAA")
	_, err := f.engine(t, buildGraph(t, []string{"AAA"}), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.source.PriceCalls("AAA"))
	assert.Equal(t, 1, f.source.NewsCalls("AAA"))
}

func TestRun_SummarizeFetchesWithoutIngests(t *testing.T) {
	f := newFixture(t, "AAA")
	g := buildGraph(t, []string{"AAA"}, ir.KindSummarize, ir.KindEvaluate)

	report, err := f.engine(t, g, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.source.PriceCalls("AAA"))
	assert.Equal(t, 1, f.source.NewsCalls("AAA"))
	_, ok := report.Result("AAA")
	assert.True(t, ok)
}

func TestRun_EvaluateWithoutSummarize(t *testing.T) {
	f := newFixture(t, "AAA")
	g := buildGraph(t, []string{"AAA"}, ir.KindEvaluate)

	report, err := f.engine(t, g, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusFailedPrecondition, out.Status)
	assert.True(t, IsMissingPreconditionError(out.Err))

	assert.True(t, report.Empty())
	all, err := f.ledger.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRun_DegradedDataYieldsPlaceholderBody(t *testing.T) {
	f := newFixture(t)
	f.source.Fail["AAA"] = true

	report, err := f.engine(t, buildGraph(t, []string{"AAA"}), nil).Run(context.Background())
	require.NoError(t, err)

	for _, id := range []string{"ingest-primary:AAA", "ingest-secondary:AAA", "summarize:AAA"} {
		out, ok := report.Outcome(id)
		require.True(t, ok)
		assert.Equal(t, StatusDegraded, out.Status, id)
	}
	out, _ := report.Outcome("evaluate:AAA")
	assert.Equal(t, StatusCompleted, out.Status)

	res, ok := report.Result("AAA")
	require.True(t, ok)
	assert.Equal(t, "### AAA\n\n- No recent price data available.\n"+
		"\n\n> Improvements for next run: Add clearer takeaways or benchmark comparisons.", res.Body)
	assert.Contains(t, f.logs.String(), "price fetch failed")
}

func TestRun_OptimizeAppendsAtMostOnce(t *testing.T) {
	f := newFixture(t, "AAA")
	f.source.Prices["AAA"] = nil

	report, err := f.engine(t, buildGraph(t, []string{"AAA"}), nil).Run(context.Background())
	require.NoError(t, err)

	res, _ := report.Result("AAA")
	assert.Equal(t, 1, strings.Count(res.Body, "> Improvements for next run:"))
}

func TestRun_UnmappedKindsFallBackToSkip(t *testing.T) {
	f := newFixture(t, "AAA")
	r := router.New(map[ir.Kind]router.Route{
		ir.KindIngestPrimary:   "market",
		ir.KindIngestSecondary: "market",
	}, "", f.logger)

	report, err := f.engine(t, buildGraph(t, []string{"AAA"}), r).Run(context.Background())
	require.NoError(t, err)

	summarize, _ := report.Outcome("summarize:AAA")
	evaluate, _ := report.Outcome("evaluate:AAA")
	assert.Equal(t, StatusSkipped, summarize.Status)
	assert.Equal(t, router.RouteSkip, summarize.Route)
	assert.Equal(t, StatusSkipped, evaluate.Status)
	assert.True(t, report.Empty())
	assert.Contains(t, f.logs.String(), "unmapped task kind")
}

func TestRun_NonSkipFallbackRuns(t *testing.T) {
	f := newFixture(t, "AAA")
	r := router.New(nil, "market", f.logger)

	report, err := f.engine(t, buildGraph(t, []string{"AAA"}), r).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Count(StatusCompleted))
	for _, o := range report.Outcomes {
		assert.Equal(t, router.Route("market"), o.Route)
	}
}

func TestRun_UnhandledKindFails(t *testing.T) {
	f := newFixture(t, "AAA")
	g, err := graph.New([]ir.Task{{
		ID:     "mystery:AAA",
		Kind:   ir.Kind(99),
		Params: map[string]any{ir.ParamEntity: "AAA"},
	}})
	require.NoError(t, err)

	report, err := f.engine(t, g, router.New(nil, "market", f.logger)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.True(t, IsUnhandledKindError(report.Outcomes[0].Err))
}

type failingWriter struct{}

func (failingWriter) Put(context.Context, string, any) error { return errors.New("disk full") }

func TestRun_LedgerWriteFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t, "AAA", "BBB")
	ev := evalopt.New(nil, failingWriter{}, evalopt.WithLogger(f.logger))
	e := New(buildGraph(t, []string{"AAA", "BBB"}), nil, Deps{
		Prices:    f.source,
		News:      f.source,
		Evaluator: ev,
		Logger:    f.logger,
	}, WithRunIDGenerator(testutil.FixedRunID("")))

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 8)
	for _, id := range []string{"evaluate:AAA", "evaluate:BBB"} {
		out, _ := report.Outcome(id)
		assert.Equal(t, StatusFailed, out.Status)
		assert.True(t, IsLedgerWriteError(out.Err))
		assert.Contains(t, out.Err.Error(), "disk full")
	}
	assert.Equal(t, []string{"AAA", "BBB"}, report.Entities())
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t, "AAA")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.engine(t, buildGraph(t, []string{"AAA"}), nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Outcomes)
}

func TestRun_ConcurrentChainsKeepEntityOrder(t *testing.T) {
	symbols := []string{"AAA", "BBB", "CCC"}

	seqFixture := newFixture(t, symbols...)
	sequential, err := seqFixture.engine(t, buildGraph(t, symbols), nil).Run(context.Background())
	require.NoError(t, err)

	f := newFixture(t, symbols...)
	report, err := f.engine(t, buildGraph(t, symbols), nil, WithConcurrency(3)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 12)
	for i := 1; i < len(report.Outcomes); i++ {
		assert.Less(t, report.Outcomes[i-1].Seq, report.Outcomes[i].Seq)
	}

	ids := taskIDs(report)
	for _, sym := range symbols {
		p := indexOf(ids, "ingest-primary:"+sym)
		s := indexOf(ids, "ingest-secondary:"+sym)
		m := indexOf(ids, "summarize:"+sym)
		e := indexOf(ids, "evaluate:"+sym)
		assert.True(t, p < s && s < m && m < e, "chain order for %s: %v", sym, ids)
	}

	assert.Equal(t, symbols, report.Entities())
	for _, sym := range symbols {
		want, _ := sequential.Result(sym)
		got, _ := report.Result(sym)
		assert.Equal(t, want.Body, got.Body, sym)
	}

	all, err := f.ledger.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRun_CrossEntityEdgesForceSequential(t *testing.T) {
	f := newFixture(t, "AAA", "BBB")
	g, err := graph.New([]ir.Task{
		ir.NewTask(ir.KindIngestPrimary, "AAA"),
		ir.NewTask(ir.KindSummarize, "BBB", ir.TaskID(ir.KindIngestPrimary, "AAA")),
	})
	require.NoError(t, err)

	report, err := f.engine(t, g, nil, WithConcurrency(4)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ingest-primary:AAA", "summarize:BBB"}, taskIDs(report))
	assert.Contains(t, f.logs.String(), "dependencies cross entities")
}

func TestRun_EmptyGraph(t *testing.T) {
	f := newFixture(t)
	report, err := f.engine(t, buildGraph(t, nil), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.True(t, report.Empty())
}

func TestNew_Defaults(t *testing.T) {
	g := buildGraph(t, nil)
	e := New(g, nil, Deps{})

	assert.Equal(t, DefaultPeriod, e.deps.Period)
	assert.Equal(t, DefaultInterval, e.deps.Interval)
	assert.Equal(t, DefaultMaxNews, e.deps.MaxNews)
	assert.Equal(t, market.DefaultMaxBullets, e.deps.MaxBullets)
	assert.NotNil(t, e.deps.Evaluator)
	assert.NotNil(t, e.router)
	assert.Equal(t, 1, e.concurrency)
}
