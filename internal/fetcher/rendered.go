package fetcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/maltedev/whey-ranker/internal/browser"
)

// RenderedFetcher drives a headless browser. The browser is launched on
// first use and shared by later fetches.
type RenderedFetcher struct {
	opts   *browser.Options
	logger *slog.Logger

	mu      sync.Mutex
	browser *browser.Browser
}

func NewRenderedFetcher(opts *browser.Options, logger *slog.Logger) *RenderedFetcher {
	return &RenderedFetcher{opts: opts, logger: logger}
}

func (r *RenderedFetcher) open(ctx context.Context, op, url string) (*browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Op: op, Err: err}
	}

	r.mu.Lock()
	if r.browser == nil {
		b, err := browser.New(r.opts, r.logger)
		if err != nil {
			r.mu.Unlock()
			return nil, &FetchError{URL: url, Op: op, Err: err}
		}
		r.browser = b
	}
	b := r.browser
	r.mu.Unlock()

	page, err := b.Open(url)
	if err != nil {
		return nil, &FetchError{URL: url, Op: op, Err: err}
	}
	return page, nil
}

func (r *RenderedFetcher) Fetch(ctx context.Context, url string, interactions ...browser.Interaction) (string, error) {
	page, err := r.open(ctx, "rendered", url)
	if err != nil {
		return "", err
	}
	defer page.Close()

	for _, interaction := range interactions {
		if err := interaction.Apply(ctx, page, r.logger); err != nil {
			return "", &FetchError{URL: url, Op: "rendered", Err: err}
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", &FetchError{URL: url, Op: "rendered", Err: err}
	}
	return html, nil
}

func (r *RenderedFetcher) Variants(ctx context.Context, url string, query browser.VariantQuery) ([]browser.Variant, error) {
	page, err := r.open(ctx, "variants", url)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	variants, err := browser.EnumerateVariants(ctx, page, query, r.logger)
	if err != nil {
		return variants, &FetchError{URL: url, Op: "variants", Err: err}
	}
	return variants, nil
}

func (r *RenderedFetcher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
