package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	logger  *slog.Logger
}

// Options configures the Chromium instance and the single context every
// page is opened in. Shops are browsed with a Greek locale so prices and
// labels render as the storefront shows them.
type Options struct {
	Headless          bool
	Timeout           time.Duration
	NavigationTimeout time.Duration
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	AcceptLanguage    string
	TimezoneID        string
	Locale            string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:          true,
		Timeout:           5 * time.Second,
		NavigationTimeout: 40 * time.Second,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		AcceptLanguage:    "el-GR,el;q=0.9,en;q=0.8",
		TimezoneID:        "Europe/Athens",
		Locale:            "el-GR",
	}
}

func launchOptions(opts *Options) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-dev-shm-usage", "--no-sandbox"},
	}
}

func contextOptions(opts *Options) playwright.BrowserNewContextOptions {
	return playwright.BrowserNewContextOptions{
		UserAgent:       playwright.String(opts.UserAgent),
		AcceptDownloads: playwright.Bool(false),
		Locale:          playwright.String(opts.Locale),
		TimezoneId:      playwright.String(opts.TimezoneID),
		Viewport:        &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": opts.AcceptLanguage,
		},
	}
}

func New(opts *Options, logger *slog.Logger) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	chromium, err := pw.Chromium.Launch(launchOptions(opts))
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := chromium.NewContext(contextOptions(opts))
	if err != nil {
		chromium.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: chromium,
		context: bctx,
		opts:    opts,
		logger:  logger.With("component", "browser"),
	}, nil
}

// Open creates a new page and navigates it to url. The caller closes the page.
func (b *Browser) Open(url string) (*Page, error) {
	pg, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	pg.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	page := &Page{page: pg, navTimeout: b.opts.NavigationTimeout}
	if err := page.Navigate(url); err != nil {
		page.Close()
		return nil, err
	}

	b.logger.Debug("page opened", "url", url)
	return page, nil
}

// Close tears down the context, the browser and the playwright driver,
// joining whatever errors they report.
func (b *Browser) Close() error {
	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
