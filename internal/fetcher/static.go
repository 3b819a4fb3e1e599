package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/gocolly/colly/v2"
)

// StaticFetcher returns server-rendered HTML using colly.
type StaticFetcher struct {
	collector *colly.Collector
}

func NewStaticFetcher(userAgent string, timeout time.Duration) *StaticFetcher {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
	)
	c.IgnoreRobotsTxt = true

	if userAgent != "" {
		c.UserAgent = userAgent
	}
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &StaticFetcher{collector: c}
}

func (s *StaticFetcher) Fetch(ctx context.Context, url string) (string, error) {
	// Clone per fetch so callbacks do not accumulate.
	c := s.collector.Clone()
	c.Context = ctx

	var (
		body     string
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", &FetchError{URL: url, Op: "static", Err: err}
	}
	c.Wait()

	if fetchErr != nil {
		return "", &FetchError{URL: url, Op: "static", Err: fetchErr}
	}
	if body == "" {
		return "", &FetchError{URL: url, Op: "static", Err: errors.New("empty response body")}
	}
	return body, nil
}
