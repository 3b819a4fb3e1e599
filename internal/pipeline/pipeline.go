package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/dedup"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/ranking"
	"github.com/maltedev/whey-ranker/internal/report"
)

// ErrUnknownCategory is returned for category keys outside the fixed set.
var ErrUnknownCategory = errors.New("unknown category")

// Scraper collects raw products from every source into the store.
type Scraper interface {
	Run(ctx context.Context) (models.ScrapeSummary, error)
}

// Pipeline exposes the entry points the CLI and the HTTP API dispatch.
type Pipeline struct {
	store   database.Store
	scraper Scraper
	dedup   *dedup.Engine
	ranking *ranking.Engine
	topN    int
	logger  *slog.Logger
}

func New(store database.Store, scraper Scraper, topN int, logger *slog.Logger) *Pipeline {
	if topN <= 0 {
		topN = ranking.DefaultTopN
	}
	return &Pipeline{
		store:   store,
		scraper: scraper,
		dedup:   dedup.NewEngine(store, logger),
		ranking: ranking.NewEngine(store, logger),
		topN:    topN,
		logger:  logger.With("component", "pipeline"),
	}
}

// RunFullScrape resets the store and scrapes every source into it.
func (p *Pipeline) RunFullScrape(ctx context.Context) (models.ScrapeSummary, error) {
	if err := p.store.Reset(ctx); err != nil {
		return models.ScrapeSummary{}, fmt.Errorf("failed to reset store: %w", err)
	}

	start := time.Now()
	summary, err := p.scraper.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("scrape failed: %w", err)
	}

	p.logger.Info("scrape completed", "stored", summary.TotalStored(), "duration", time.Since(start))
	return summary, nil
}

func (p *Pipeline) Deduplicate(ctx context.Context) (dedup.Result, error) {
	return p.dedup.Run(ctx)
}

// AnalyzeOverall applies the price correction pass and renders the cheapest
// products per gram across all records.
func (p *Pipeline) AnalyzeOverall(ctx context.Context) []string {
	if _, err := p.ranking.CorrectPrices(ctx); err != nil {
		return report.StoreFailure(err)
	}

	entries, err := p.ranking.Overall(ctx, p.topN)
	if err != nil {
		return report.StoreFailure(err)
	}
	return report.OverallBlocks(entries)
}

// TopByCategory renders the ranking of one fixed category. Store failures are
// reported as the only line; only an unknown key is returned as an error.
func (p *Pipeline) TopByCategory(ctx context.Context, key string) ([]string, error) {
	q, ok := ranking.Category(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, key)
	}

	entries, err := p.ranking.TopByCategory(ctx, q, p.topN)
	if err != nil {
		return report.StoreFailure(err), nil
	}
	return report.CategoryLines(q.DisplayName, p.topN, entries), nil
}

// RunResult is the outcome of RunAll.
type RunResult struct {
	Summary models.ScrapeSummary `json:"summary"`
	Dedup   dedup.Result         `json:"dedup"`
	Lines   []string             `json:"lines"`
}

// RunAll scrapes, deduplicates and analyzes in sequence. On failure Lines
// holds the single failure message and the error is returned as well.
func (p *Pipeline) RunAll(ctx context.Context) (RunResult, error) {
	var result RunResult

	summary, err := p.RunFullScrape(ctx)
	result.Summary = summary
	if err != nil {
		result.Lines = []string{report.Failure(err)}
		return result, err
	}

	result.Dedup, err = p.Deduplicate(ctx)
	if err != nil {
		result.Lines = []string{report.Failure(err)}
		return result, err
	}

	result.Lines = p.AnalyzeOverall(ctx)
	if len(result.Lines) == 0 {
		result.Lines = []string{report.NoResults}
	}
	return result, nil
}
