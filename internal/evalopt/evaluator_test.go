package evalopt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
)

type memWriter struct {
	values map[string]any
	err    error
}

func (m *memWriter) Put(_ context.Context, key string, value any) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = map[string]any{}
	}
	m.values[key] = value
	return nil
}

const fullBody = "### AAA\n\n" +
	"- As of **2024-03-01**, AAA closed at **123.46**.\n" +
	"- 20-day return: **3.12%** | 5-day: **1.00%**.\n" +
	"- Volatility (20d, annualized): **0.25**.\n" +
	"- Trend: **up** | Sentiment: **bullish**.\n" +
	"- Recent headlines:\n" +
	"  - Chipmaker rallies — *Wire*\n"

func TestScore_FullReportPasses(t *testing.T) {
	e := New(nil, nil)
	score, sugg := e.Score(fullBody, "AAA", market.Stats{AsOf: "2024-03-01"})

	assert.InDelta(t, 0.85, score, 1e-12)
	assert.Empty(t, sugg)
}

func TestScore_DegradedReportGetsOneSuggestion(t *testing.T) {
	e := New(nil, nil)
	body := "### AAA\n\n- No recent price data available.\n- Recent headlines:\n  - One — *A*\n"
	score, sugg := e.Score(body, "AAA", market.Stats{Empty: true})

	assert.InDelta(t, (0.5+0.6+0.6+0.75)/4, score, 1e-12)
	require.Len(t, sugg, 1)
	assert.Equal(t, Suggestion{Entity: "AAA", Text: SuggestionText}, sugg[0])
}

func TestScore_ActionabilityIsCaseInsensitive(t *testing.T) {
	e := New(Rubric{{ID: CriterionActionability, Weight: 1}}, nil)

	score, _ := e.Score("- Recent headlines:", "AAA", market.Stats{})
	assert.InDelta(t, 0.75, score, 1e-12)

	score, _ = e.Score("- nothing here", "AAA", market.Stats{})
	assert.InDelta(t, 0.6, score, 1e-12)
}

func TestScore_UnknownCriterion(t *testing.T) {
	e := New(Rubric{{ID: "style", Weight: 2}}, nil)
	score, sugg := e.Score("", "AAA", market.Stats{})
	assert.InDelta(t, 0.7, score, 1e-12)
	assert.Len(t, sugg, 1)
}

func TestScore_ZeroWeightsDivideByOne(t *testing.T) {
	e := New(Rubric{{ID: CriterionCoverage, Weight: 0}, {ID: CriterionRecency, Weight: 0}}, nil)
	score, sugg := e.Score(fullBody, "AAA", market.Stats{AsOf: "2024-03-01"})
	assert.Equal(t, 0.0, score)
	assert.Len(t, sugg, 1)
}

func TestScore_AlwaysInUnitInterval(t *testing.T) {
	rubrics := []Rubric{
		DefaultRubric(),
		{{ID: CriterionCoverage, Weight: 10}},
		{{ID: "x", Weight: 0.001}, {ID: CriterionCorrectness, Weight: 3}},
		{},
	}
	bodies := []string{"", fullBody, "closed at"}
	for _, r := range rubrics {
		for _, b := range bodies {
			score, _ := New(r, nil).Score(b, "AAA", market.Stats{})
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestOptimize(t *testing.T) {
	e := New(nil, nil)

	assert.Equal(t, "body", e.Optimize("body", nil))

	out := e.Optimize("body", []Suggestion{{Entity: "AAA", Text: "one"}, {Entity: "AAA", Text: "two"}})
	assert.Equal(t, "body\n\n> Improvements for next run: one; two", out)
}

func TestRemember_LastWriteWins(t *testing.T) {
	w := &memWriter{}
	now := time.Unix(1700000000, 0)
	e := New(nil, w, WithClock(func() time.Time { return now }))

	require.NoError(t, e.Remember(context.Background(), "AAA", 0.73))
	now = now.Add(time.Minute)
	require.NoError(t, e.Remember(context.Background(), "AAA", 0.91))

	assert.Equal(t, ir.LedgerRecord{Timestamp: 1700000060, Score: 0.91}, w.values["score:AAA"])
	assert.Len(t, w.values, 1)
}

func TestRemember_Errors(t *testing.T) {
	err := New(nil, nil).Remember(context.Background(), "AAA", 0.5)
	require.Error(t, err)

	boom := errors.New("disk full")
	err = New(nil, &memWriter{err: boom}).Remember(context.Background(), "AAA", 0.5)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "remember AAA")
}

func TestRubricValidate(t *testing.T) {
	require.NoError(t, DefaultRubric().Validate())
	assert.Error(t, Rubric{{ID: "coverage", Weight: -0.1}}.Validate())
	assert.Error(t, Rubric{{ID: "", Weight: 0.1}}.Validate())
}
