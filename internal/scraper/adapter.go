package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/fetcher"
	"github.com/maltedev/whey-ranker/internal/models"
)

// ErrExtract marks an item whose expected name or price element is missing.
var ErrExtract = errors.New("expected element missing")

// Source names, in scrape order.
const (
	SourceKaterelos = "katerelos"
	SourceFitrace   = "fitrace"
	SourceGrowling  = "growling"
	SourceFit1      = "fit1"
	SourceGymBeam   = "gymbeam"
)

// Plan says how an adapter's listing pages must be fetched.
type Plan struct {
	Rendered     bool
	Interactions []browser.Interaction
}

// Adapter maps one source's listing markup to raw products.
type Adapter interface {
	Name() string
	URLs() []string
	Plan() Plan
	Extract(html, pageURL string) []models.RawProduct
}

// VariantExpander is implemented by sources that price each package size on
// the product detail page.
type VariantExpander interface {
	Expand(ctx context.Context, f fetcher.Fetcher, p models.RawProduct) ([]models.RawProduct, error)
}

// Adapters returns every source adapter in scrape order. urls overrides the
// listing URLs per source name.
func Adapters(urls map[string][]string, logger *slog.Logger) []Adapter {
	return []Adapter{
		NewKaterelos(urls[SourceKaterelos], logger),
		NewFitrace(urls[SourceFitrace], logger),
		NewGrowling(urls[SourceGrowling], logger),
		NewFit1(urls[SourceFit1], logger),
		NewGymBeam(urls[SourceGymBeam], logger),
	}
}

func extractErr(field string) error {
	return fmt.Errorf("%w: %s", ErrExtract, field)
}

func parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// following pairs every container with the first target element that comes
// after the container's start tag in document order, descendants included.
// Entry i belongs to the i-th container; it is nil when no target follows.
func following(doc *goquery.Document, containerSel, targetSel string) []*goquery.Selection {
	var (
		result  []*goquery.Selection
		pending []int
	)
	doc.Find(containerSel + ", " + targetSel).Each(func(_ int, s *goquery.Selection) {
		if s.Is(targetSel) {
			for _, i := range pending {
				result[i] = s
			}
			pending = pending[:0]
		}
		if s.Is(containerSel) {
			result = append(result, nil)
			pending = append(pending, len(result)-1)
		}
	})
	return result
}

// firstText returns the trimmed text of the first candidate selector that
// matches inside s.
func firstText(s *goquery.Selection, candidates ...string) (string, bool) {
	for _, sel := range candidates {
		if found := s.Find(sel).First(); found.Length() > 0 {
			return strings.TrimSpace(found.Text()), true
		}
	}
	return "", false
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func urlsOrDefault(urls, defaults []string) []string {
	if len(urls) > 0 {
		return urls
	}
	return defaults
}
