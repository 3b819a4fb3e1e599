package browser

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultWait     = 5 * time.Second
	preClickSettle  = time.Second
	variantPollStep = 250 * time.Millisecond
)

// Interaction drives a rendered page before its HTML is captured.
// A condition that never becomes true ends the interaction quietly; only
// context cancellation is returned as an error.
type Interaction interface {
	Apply(ctx context.Context, d Driver, logger *slog.Logger) error
}

// ClickUntilGone clicks a "load more" control while it is visible.
// With CountSelector set it also stops once the number of matching
// elements stops growing.
type ClickUntilGone struct {
	Selector      string
	CountSelector string
	Wait          time.Duration
	Settle        time.Duration
	MaxClicks     int
}

func (c ClickUntilGone) withDefaults() ClickUntilGone {
	if c.Wait <= 0 {
		c.Wait = DefaultWait
	}
	if c.Settle <= 0 {
		c.Settle = 3 * time.Second
	}
	if c.MaxClicks <= 0 {
		c.MaxClicks = 200
	}
	return c
}

func (c ClickUntilGone) Apply(ctx context.Context, d Driver, logger *slog.Logger) error {
	c = c.withDefaults()
	tracker := NewTracker(1, c.MaxClicks)
	seen := 0

	for !tracker.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.CountSelector != "" {
			n, err := d.Count(c.CountSelector)
			if err != nil {
				n = 0
			}
			if tracker.Observe(n > seen) == Exhausted {
				break
			}
			seen = n
		}

		if !d.WaitVisible(c.Selector, c.Wait) {
			tracker.Exhaust()
			break
		}
		if err := d.ScrollIntoView(c.Selector); err != nil {
			logger.Debug("load more control not scrollable", "selector", c.Selector, "error", err)
			tracker.Exhaust()
			break
		}
		if err := d.Sleep(ctx, preClickSettle); err != nil {
			return err
		}
		if err := d.Click(c.Selector); err != nil {
			logger.Debug("load more click failed", "selector", c.Selector, "error", err)
			tracker.Exhaust()
			break
		}
		if err := d.Sleep(ctx, c.Settle); err != nil {
			return err
		}

		if c.CountSelector == "" {
			tracker.Observe(true)
		}
	}

	logger.Debug("load more finished", "selector", c.Selector, "attempts", tracker.Attempts(), "items", seen)
	return nil
}

// ScrollUntilStable scrolls an infinite-scroll listing until the document
// height stops changing.
type ScrollUntilStable struct {
	DoneSelector string
	Pause        time.Duration
	StableRounds int
	MaxAttempts  int
}

func (s ScrollUntilStable) withDefaults() ScrollUntilStable {
	if s.Pause <= 0 {
		s.Pause = 2 * time.Second
	}
	if s.StableRounds <= 0 {
		s.StableRounds = 2
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 15
	}
	return s
}

func (s ScrollUntilStable) Apply(ctx context.Context, d Driver, logger *slog.Logger) error {
	s = s.withDefaults()
	tracker := NewTracker(s.StableRounds, s.MaxAttempts)

	last, err := d.ScrollHeight()
	if err != nil {
		logger.Debug("scroll height unavailable", "error", err)
		return nil
	}

	for !tracker.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Bottom, nudge up 100px, bottom again.
		steps := []struct {
			offset int
			pause  time.Duration
		}{
			{0, s.Pause},
			{100, s.Pause / 2},
			{0, s.Pause},
		}
		for _, step := range steps {
			if err := d.ScrollToBottom(step.offset); err != nil {
				logger.Debug("scroll failed", "error", err)
				tracker.Exhaust()
				break
			}
			if err := d.Sleep(ctx, step.pause); err != nil {
				return err
			}
		}
		if tracker.Done() {
			break
		}

		height, err := d.ScrollHeight()
		if err != nil {
			logger.Debug("scroll height unavailable", "error", err)
			break
		}
		tracker.Observe(height != last)
		last = height

		if s.DoneSelector != "" && d.IsVisible(s.DoneSelector) {
			tracker.Exhaust()
		}
	}

	logger.Debug("scrolling finished", "attempts", tracker.Attempts(), "height", last)
	return nil
}

// VariantQuery locates a size dropdown and the price it drives.
type VariantQuery struct {
	SelectSelector string
	PriceSelector  string
	Wait           time.Duration
	Settle         time.Duration
}

// Variant is one dropdown option with the price shown after selecting it.
type Variant struct {
	Option string `json:"option"`
	Price  string `json:"price"`
}

func (q VariantQuery) withDefaults() VariantQuery {
	if q.Wait <= 0 {
		q.Wait = DefaultWait
	}
	if q.Settle <= 0 {
		q.Settle = time.Second
	}
	return q
}

// EnumerateVariants selects every option of the dropdown in turn and reads
// back the displayed price. Variants read before a failure are returned.
func EnumerateVariants(ctx context.Context, d Driver, q VariantQuery, logger *slog.Logger) ([]Variant, error) {
	q = q.withDefaults()

	if !d.WaitAttached(q.SelectSelector, q.Wait) {
		logger.Debug("variant dropdown not found", "selector", q.SelectSelector)
		return nil, nil
	}

	options, err := d.Options(q.SelectSelector)
	if err != nil {
		logger.Debug("variant options unreadable", "error", err)
		return nil, nil
	}

	var variants []Variant
	for _, option := range options {
		if err := ctx.Err(); err != nil {
			return variants, err
		}

		before, _ := d.Text(q.PriceSelector)
		if err := d.Select(q.SelectSelector, option); err != nil {
			logger.Debug("variant select failed", "option", option, "error", err)
			break
		}
		if err := d.Sleep(ctx, q.Settle); err != nil {
			return variants, err
		}
		if !d.WaitAttached(q.PriceSelector, q.Wait) {
			logger.Debug("variant price not found", "option", option)
			break
		}

		price, err := waitForChange(ctx, d, q.PriceSelector, before, q.Wait)
		if err != nil {
			return variants, err
		}
		variants = append(variants, Variant{Option: option, Price: price})
	}

	return variants, nil
}

// waitForChange polls selector's text until it differs from before or the
// timeout elapses, and returns the last text read. The first option often
// shows the price that was already displayed, so no change is not an error.
func waitForChange(ctx context.Context, d Driver, selector, before string, timeout time.Duration) (string, error) {
	text, _ := d.Text(selector)
	for polls := int(timeout / variantPollStep); polls > 0 && text == before; polls-- {
		if err := d.Sleep(ctx, variantPollStep); err != nil {
			return text, err
		}
		text, _ = d.Text(selector)
	}
	return text, nil
}
