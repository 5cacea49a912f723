package engine

import (
	"context"
	"fmt"

	"github.com/roach88/tickerflow/internal/ir"
	"github.com/roach88/tickerflow/internal/market"
)

// Artifact meta keys.
const (
	metaCount    = "count"
	metaDegraded = "degraded"
)

func (e *Engine) fetchSeries(ctx context.Context, entity string) (market.Series, error) {
	if e.deps.Prices == nil {
		return market.Series{}, fmt.Errorf("no price source configured")
	}
	s, err := e.deps.Prices.FetchPrimarySeries(ctx, entity, e.deps.Period, e.deps.Interval)
	if err != nil {
		return market.Series{}, err
	}
	return s, nil
}

func (e *Engine) fetchItems(ctx context.Context, entity string) ([]market.NewsItem, error) {
	if e.deps.News == nil {
		return []market.NewsItem{}, fmt.Errorf("no news source configured")
	}
	items, err := e.deps.News.FetchSecondaryItems(ctx, entity, e.deps.MaxNews)
	if err != nil {
		return []market.NewsItem{}, err
	}
	return items, nil
}

// ingestPrimary fetches the price series into the chain's artifact set.
func (e *Engine) ingestPrimary(ctx context.Context, task ir.Task, ch *chain) (Status, string) {
	entity := task.Entity()
	series, err := e.fetchSeries(ctx, entity)
	if err != nil {
		e.logger.Warn("price fetch failed, continuing with empty series", "entity", entity, "error", err)
	}
	degraded := err != nil || series.Empty()

	ch.put(ir.NewArtifact(task.Kind, entity, series, map[string]any{
		metaCount:    len(series),
		metaDegraded: degraded,
	}))
	e.logger.Info("primary series ingested", "entity", entity, "rows", len(series))

	if degraded {
		return StatusDegraded, fmt.Sprintf("%d rows", len(series))
	}
	return StatusCompleted, fmt.Sprintf("%d rows", len(series))
}

// ingestSecondary fetches news items into the chain's artifact set.
func (e *Engine) ingestSecondary(ctx context.Context, task ir.Task, ch *chain) (Status, string) {
	entity := task.Entity()
	items, err := e.fetchItems(ctx, entity)
	if err != nil {
		e.logger.Warn("news fetch failed, continuing without items", "entity", entity, "error", err)
	}
	degraded := err != nil || len(items) == 0

	ch.put(ir.NewArtifact(task.Kind, entity, items, map[string]any{
		metaCount:    len(items),
		metaDegraded: degraded,
	}))
	e.logger.Info("secondary items ingested", "entity", entity, "items", len(items))

	if degraded {
		return StatusDegraded, fmt.Sprintf("%d items", len(items))
	}
	return StatusCompleted, fmt.Sprintf("%d items", len(items))
}

// summarize builds the entity's Result from the ingest artifacts, fetching
// whatever is missing.
func (e *Engine) summarize(ctx context.Context, task ir.Task, ch *chain) (Status, string) {
	entity := task.Entity()
	fetched := 0

	var series market.Series
	if a, ok := ch.artifact(ir.KindIngestPrimary); ok {
		series, _ = a.Content.(market.Series)
	} else {
		fetched++
		var err error
		if series, err = e.fetchSeries(ctx, entity); err != nil {
			e.logger.Warn("price fetch failed, summarizing without prices", "entity", entity, "error", err)
		}
	}

	var items []market.NewsItem
	if a, ok := ch.artifact(ir.KindIngestSecondary); ok {
		items, _ = a.Content.([]market.NewsItem)
	} else {
		fetched++
		var err error
		if items, err = e.fetchItems(ctx, entity); err != nil {
			e.logger.Warn("news fetch failed, summarizing without news", "entity", entity, "error", err)
		}
	}

	stats := market.DeriveStatistics(series)
	processed := market.PreprocessItems(items)
	sentiment := market.Classify(stats)
	body := market.Summarize(entity, stats, processed, sentiment, e.deps.MaxBullets)

	result := ir.NewResult(entity)
	if ch.result != nil {
		result = *ch.result
	}
	result = result.
		WithSection(ir.SectionStats, stats).
		WithSection(ir.SectionNews, processed).
		WithSection(ir.SectionSentiment, sentiment).
		WithBody(body)
	ch.result = &result

	e.logger.Info("summary built",
		"entity", entity,
		"sentiment", sentiment,
		"headlines", len(processed),
		"fetched", fetched)

	detail := fmt.Sprintf("sentiment %s", sentiment)
	if stats.Empty {
		return StatusDegraded, detail
	}
	return StatusCompleted, detail
}

// evaluate scores the Result, appends at most one revision and remembers
// the score.
func (e *Engine) evaluate(ctx context.Context, task ir.Task, ch *chain) (Status, string, error) {
	entity := task.Entity()
	if ch.result == nil {
		return StatusFailedPrecondition, "", &TaskError{
			Code:    ErrCodeMissingPrecondition,
			Message: "no result to evaluate",
			TaskID:  task.ID,
		}
	}

	result := *ch.result
	var stats market.Stats
	if v, ok := result.Section(ir.SectionStats); ok {
		stats, _ = v.(market.Stats)
	}

	ev := e.deps.Evaluator
	score, suggestions := ev.Score(result.Body, entity, stats)
	result = result.WithBody(ev.Optimize(result.Body, suggestions))
	ch.result = &result

	detail := fmt.Sprintf("score %.3f", score)
	e.logger.Info("result evaluated", "entity", entity, "score", score, "suggestions", len(suggestions))

	if err := ev.Remember(ctx, entity, score); err != nil {
		return StatusFailed, detail, &TaskError{
			Code:    ErrCodeLedgerWrite,
			Message: "score not remembered",
			TaskID:  task.ID,
			Err:     err,
		}
	}
	return StatusCompleted, detail, nil
}
