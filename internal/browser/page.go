package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Driver is the subset of page automation the interactions need.
// Page implements it on top of playwright; tests use a scripted fake.
type Driver interface {
	ScrollHeight() (int, error)
	// ScrollToBottom scrolls to the document height minus offset pixels.
	ScrollToBottom(offset int) error
	WaitVisible(selector string, timeout time.Duration) bool
	WaitAttached(selector string, timeout time.Duration) bool
	IsVisible(selector string) bool
	ScrollIntoView(selector string) error
	Click(selector string) error
	Count(selector string) (int, error)
	Options(selectSelector string) ([]string, error)
	Select(selectSelector, label string) error
	Text(selector string) (string, error)
	Sleep(ctx context.Context, d time.Duration) error
}

// Page is an open playwright page.
type Page struct {
	page       playwright.Page
	navTimeout time.Duration
}

func (p *Page) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(p.navTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *Page) HTML() (string, error) {
	content, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

func (p *Page) Close() error {
	return p.page.Close()
}

func (p *Page) ScrollHeight() (int, error) {
	v, err := p.page.Evaluate(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	switch h := v.(type) {
	case int:
		return h, nil
	case int64:
		return int(h), nil
	case float64:
		return int(h), nil
	default:
		return 0, fmt.Errorf("unexpected scroll height %T", v)
	}
}

func (p *Page) ScrollToBottom(offset int) error {
	_, err := p.page.Evaluate(`off => window.scrollTo(0, document.body.scrollHeight - off)`, offset)
	return err
}

func (p *Page) WaitVisible(selector string, timeout time.Duration) bool {
	return p.waitFor(selector, playwright.WaitForSelectorStateVisible, timeout)
}

func (p *Page) WaitAttached(selector string, timeout time.Duration) bool {
	return p.waitFor(selector, playwright.WaitForSelectorStateAttached, timeout)
}

func (p *Page) waitFor(selector string, state *playwright.WaitForSelectorState, timeout time.Duration) bool {
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

func (p *Page) IsVisible(selector string) bool {
	visible, err := p.page.Locator(selector).First().IsVisible()
	return err == nil && visible
}

func (p *Page) ScrollIntoView(selector string) error {
	return p.page.Locator(selector).First().ScrollIntoViewIfNeeded()
}

func (p *Page) Click(selector string) error {
	return p.page.Locator(selector).First().Click()
}

func (p *Page) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *Page) Options(selectSelector string) ([]string, error) {
	return p.page.Locator(selectSelector + " option").AllInnerTexts()
}

func (p *Page) Select(selectSelector, label string) error {
	_, err := p.page.Locator(selectSelector).First().SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{label},
	})
	return err
}

func (p *Page) Text(selector string) (string, error) {
	return p.page.Locator(selector).First().InnerText()
}

func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
