package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maltedev/whey-ranker/internal/config"
	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/fetcher"
	"github.com/maltedev/whey-ranker/internal/pipeline"
	"github.com/maltedev/whey-ranker/internal/ranking"
	"github.com/maltedev/whey-ranker/internal/report"
	"github.com/maltedev/whey-ranker/internal/scraper"
	"github.com/maltedev/whey-ranker/pkg/logger"
)

func main() {
	var (
		mode     = flag.String("mode", "full", "Mode: full, scrape, dedup, analyze, category")
		category = flag.String("category", "", "Category key for -mode category")
		headless = flag.Bool("headless", true, "Run browser in headless mode")
		topN     = flag.Int("top", 0, "Number of ranked products to show (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Browser.Headless = *headless && cfg.Browser.Headless
	if *topN > 0 {
		cfg.Scraper.TopN = *topN
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting whey ranker", "mode", *mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	store, err := database.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	f := fetcher.New(cfg.FetcherConfig(), logger)
	defer f.Close()

	runner := scraper.NewRunner(f, store, scraper.Adapters(cfg.Scraper.Sources, logger), logger)
	p := pipeline.New(store, runner, cfg.Scraper.TopN, logger)

	lines, err := run(ctx, p, *mode, *category)
	fmt.Println(strings.Join(lines, "\n"))
	if err != nil {
		logger.Error("Run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, p *pipeline.Pipeline, mode, category string) ([]string, error) {
	switch mode {
	case "full":
		result, err := p.RunAll(ctx)
		return result.Lines, err

	case "scrape":
		summary, err := p.RunFullScrape(ctx)
		if err != nil {
			return []string{report.Failure(err)}, err
		}
		lines := make([]string, 0, len(summary.Sources)+1)
		for _, s := range summary.Sources {
			lines = append(lines, fmt.Sprintf("%s: %d σελίδες (%d απέτυχαν), %d προϊόντα, %d αποθηκεύτηκαν",
				s.Source, s.Pages, s.Failed, s.Extracted, s.Stored))
		}
		return append(lines, fmt.Sprintf("Σύνολο: %d", summary.TotalStored())), nil

	case "dedup":
		result, err := p.Deduplicate(ctx)
		if err != nil {
			return []string{report.Failure(err)}, err
		}
		return []string{fmt.Sprintf("Εγγραφές: %d -> %d", result.Before, result.After)}, nil

	case "analyze":
		return p.AnalyzeOverall(ctx), nil

	case "category":
		lines, err := p.TopByCategory(ctx, category)
		if errors.Is(err, pipeline.ErrUnknownCategory) {
			keys := make([]string, 0, 4)
			for _, q := range ranking.Categories() {
				keys = append(keys, q.Key)
			}
			return []string{fmt.Sprintf("Άγνωστη κατηγορία %q, διαθέσιμες: %s", category, strings.Join(keys, ", "))}, err
		}
		return lines, err

	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}
