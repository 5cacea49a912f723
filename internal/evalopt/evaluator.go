package evalopt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
)

// Threshold is the score below which Score emits a suggestion.
const Threshold = 0.8

// SuggestionText is the single improvement hint Score can emit.
const SuggestionText = "Add clearer takeaways or benchmark comparisons."

const addendumPrefix = "\n\n> Improvements for next run: "

const (
	unknownScore = 0.7

	coverageHit, coverageMiss           = 0.9, 0.5
	recencyHit, recencyMiss             = 0.9, 0.6
	correctnessHit, correctnessMiss     = 0.85, 0.6
	actionabilityHit, actionabilityMiss = 0.75, 0.6
)

var coverageTerms = []string{"return", "volatility", "trend", "sentiment"}

// Suggestion is an improvement hint for one entity.
type Suggestion struct {
	Entity string `json:"symbol"`
	Text   string `json:"suggestion"`
}

// RecordWriter persists ledger values. store.Ledger satisfies it.
type RecordWriter interface {
	Put(ctx context.Context, key string, value any) error
}

// Evaluator scores, optimizes and remembers reports.
type Evaluator struct {
	rubric Rubric
	ledger RecordWriter
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock overrides the timestamp source used by Remember.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithLogger sets the evaluator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New returns an Evaluator. A nil rubric selects DefaultRubric. ledger may
// be nil, in which case Remember fails.
func New(rubric Rubric, ledger RecordWriter, opts ...Option) *Evaluator {
	if rubric == nil {
		rubric = DefaultRubric()
	}
	e := &Evaluator{
		rubric: append(Rubric(nil), rubric...),
		ledger: ledger,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Rubric returns a copy of the evaluator's rubric.
func (e *Evaluator) Rubric() Rubric {
	return append(Rubric(nil), e.rubric...)
}

// Score returns the weighted rubric score of body in [0, 1], and exactly
// one suggestion when the score is below Threshold.
func (e *Evaluator) Score(body, key string, st market.Stats) (float64, []Suggestion) {
	lower := strings.ToLower(body)

	var total, weights float64
	for _, c := range e.rubric {
		total += criterionScore(c.ID, body, lower, st) * c.Weight
		weights += c.Weight
	}
	if weights == 0 {
		weights = 1
	}
	score := clamp(total / weights)

	e.logger.Debug("report scored", "entity", key, "score", score)

	if score < Threshold {
		return score, []Suggestion{{Entity: key, Text: SuggestionText}}
	}
	return score, nil
}

func criterionScore(id, body, lower string, st market.Stats) float64 {
	switch id {
	case CriterionCoverage:
		for _, term := range coverageTerms {
			if !strings.Contains(lower, term) {
				return coverageMiss
			}
		}
		return coverageHit
	case CriterionRecency:
		if st.AsOf != "" {
			return recencyHit
		}
		return recencyMiss
	case CriterionCorrectness:
		if strings.Contains(body, "closed at") {
			return correctnessHit
		}
		return correctnessMiss
	case CriterionActionability:
		if strings.Contains(lower, "recent headlines") {
			return actionabilityHit
		}
		return actionabilityMiss
	default:
		return unknownScore
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Optimize appends one addendum listing the suggestions. It is the identity
// when there are none and never re-scores.
func (e *Evaluator) Optimize(body string, suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return body
	}
	texts := make([]string, len(suggestions))
	for i, s := range suggestions {
		texts[i] = s.Text
	}
	return body + addendumPrefix + strings.Join(texts, "; ")
}

// Remember writes the score under "score:<key>", replacing any earlier
// record.
func (e *Evaluator) Remember(ctx context.Context, key string, score float64) error {
	if e.ledger == nil {
		return fmt.Errorf("remember %s: no ledger configured", key)
	}
	rec := ir.LedgerRecord{Timestamp: e.now().Unix(), Score: score}
	if err := e.ledger.Put(ctx, ir.LedgerKey(ir.RecordScore, key), rec); err != nil {
		return fmt.Errorf("remember %s: %w", key, err)
	}
	return nil
}
