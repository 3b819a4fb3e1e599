package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/fetcher"
	"github.com/maltedev/whey-ranker/internal/models"
)

// Runner walks every adapter in order and appends what it finds to the store.
type Runner struct {
	fetcher  fetcher.Fetcher
	store    database.Store
	adapters []Adapter
	logger   *slog.Logger
}

func NewRunner(f fetcher.Fetcher, store database.Store, adapters []Adapter, logger *slog.Logger) *Runner {
	return &Runner{
		fetcher:  f,
		store:    store,
		adapters: adapters,
		logger:   logger.With("component", "scrape_runner"),
	}
}

// Run scrapes all sources. A failed page is logged and skipped; only store
// failures and cancellation stop the run. Rows stored before a stop remain.
func (r *Runner) Run(ctx context.Context) (models.ScrapeSummary, error) {
	var summary models.ScrapeSummary

	for _, a := range r.adapters {
		start := time.Now()
		r.logger.Info("scraping source", "source", a.Name(), "pages", len(a.URLs()))

		result, err := r.runAdapter(ctx, a)
		summary.Sources = append(summary.Sources, result)
		if err != nil {
			return summary, err
		}

		r.logger.Info("source finished",
			"source", a.Name(),
			"pages", result.Pages,
			"failed", result.Failed,
			"extracted", result.Extracted,
			"stored", result.Stored,
			"duration", time.Since(start))
	}

	return summary, nil
}

func (r *Runner) runAdapter(ctx context.Context, a Adapter) (models.SourceResult, error) {
	result := models.SourceResult{Source: a.Name()}
	plan := a.Plan()
	expander, expands := a.(VariantExpander)

	for _, url := range a.URLs() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		html, err := r.fetch(ctx, url, plan)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			r.logger.Warn("fetch failed", "source", a.Name(), "url", url, "error", err)
			result.Failed++
			continue
		}
		result.Pages++

		products := a.Extract(html, url)
		if !expands {
			result.Extracted += len(products)
			if err := r.persist(ctx, &result, products); err != nil {
				return result, err
			}
			continue
		}

		for _, p := range products {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			variants, err := expander.Expand(ctx, r.fetcher, p)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return result, ctxErr
				}
				r.logger.Warn("variant fetch failed", "source", a.Name(), "url", p.SourceURL, "error", err)
			}
			result.Extracted += len(variants)
			if err := r.persist(ctx, &result, variants); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

func (r *Runner) fetch(ctx context.Context, url string, plan Plan) (string, error) {
	if plan.Rendered {
		return r.fetcher.FetchRendered(ctx, url, plan.Interactions...)
	}
	return r.fetcher.FetchStatic(ctx, url)
}

func (r *Runner) persist(ctx context.Context, result *models.SourceResult, products []models.RawProduct) error {
	for _, p := range products {
		ok, err := r.store.Insert(ctx, p)
		if err != nil {
			var se *database.StoreError
			if errors.As(err, &se) {
				return err
			}
			return fmt.Errorf("failed to store product from %s: %w", result.Source, err)
		}
		if ok {
			result.Stored++
		}
	}
	return nil
}
