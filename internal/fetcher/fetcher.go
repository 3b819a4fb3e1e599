package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/ratelimit"
)

// Fetcher retrieves listing pages, either as served or after rendering.
type Fetcher interface {
	FetchStatic(ctx context.Context, url string) (string, error)
	FetchRendered(ctx context.Context, url string, interactions ...browser.Interaction) (string, error)
	FetchVariants(ctx context.Context, url string, query browser.VariantQuery) ([]browser.Variant, error)
	Close() error
}

// FetchError reports a network, timeout or navigation failure for one URL.
type FetchError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Config struct {
	UserAgent       string
	Timeout         time.Duration
	RequestInterval time.Duration
	Jitter          time.Duration
	Browser         *browser.Options
}

// PageFetcher combines the static and rendered fetchers behind one
// per-host rate limiter.
type PageFetcher struct {
	static   *StaticFetcher
	rendered *RenderedFetcher
	limiter  ratelimit.RateLimiter
	logger   *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *PageFetcher {
	logger = logger.With("component", "fetcher")
	return &PageFetcher{
		static:   NewStaticFetcher(cfg.UserAgent, cfg.Timeout),
		rendered: NewRenderedFetcher(cfg.Browser, logger),
		limiter:  ratelimit.NewHostLimiter(cfg.RequestInterval, cfg.Jitter),
		logger:   logger,
	}
}

func (f *PageFetcher) FetchStatic(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", &FetchError{URL: url, Op: "static", Err: err}
	}
	start := time.Now()
	html, err := f.static.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	f.logger.Debug("static page fetched", "url", url, "bytes", len(html), "duration", time.Since(start))
	return html, nil
}

func (f *PageFetcher) FetchRendered(ctx context.Context, url string, interactions ...browser.Interaction) (string, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", &FetchError{URL: url, Op: "rendered", Err: err}
	}
	start := time.Now()
	html, err := f.rendered.Fetch(ctx, url, interactions...)
	if err != nil {
		return "", err
	}
	f.logger.Debug("rendered page fetched", "url", url, "bytes", len(html), "duration", time.Since(start))
	return html, nil
}

func (f *PageFetcher) FetchVariants(ctx context.Context, url string, query browser.VariantQuery) ([]browser.Variant, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, &FetchError{URL: url, Op: "variants", Err: err}
	}
	return f.rendered.Variants(ctx, url, query)
}

func (f *PageFetcher) Close() error {
	return f.rendered.Close()
}
