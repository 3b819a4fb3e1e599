package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/fetcher"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
)

var gymBeamURLs = []string{
	"https://gymbeam.gr/proteini-orou-galaktos",
}

var gymBeamVariants = browser.VariantQuery{
	SelectSelector: `select[aria-label="Γραμμάρια (γρ)"]`,
	PriceSelector:  `span[data-test="hp-bestsellers-price"]`,
}

// GymBeam lists products behind a "load more" button and prices every
// package size separately on the product page.
type GymBeam struct {
	urls   []string
	logger *slog.Logger
}

func NewGymBeam(urls []string, logger *slog.Logger) *GymBeam {
	return &GymBeam{
		urls:   urlsOrDefault(urls, gymBeamURLs),
		logger: logger.With("component", "adapter", "source", SourceGymBeam),
	}
}

func (g *GymBeam) Name() string   { return SourceGymBeam }
func (g *GymBeam) URLs() []string { return g.urls }

func (g *GymBeam) Plan() Plan {
	return Plan{
		Rendered: true,
		Interactions: []browser.Interaction{
			browser.ClickUntilGone{
				Selector:      ".amscroll-load-button",
				CountSelector: ".product-item",
				Settle:        2 * time.Second,
			},
		},
	}
}

// Extract returns one unpriced product per listing entry, pointing at its
// detail page. Expand turns it into priced variants.
func (g *GymBeam) Extract(html, pageURL string) []models.RawProduct {
	doc, err := parse(html)
	if err != nil {
		g.logger.Warn("failed to parse listing", "url", pageURL, "error", err)
		return nil
	}

	containers := doc.Find("div.product.details.product-item-details")
	g.logger.Info("found products", "url", pageURL, "count", containers.Length())

	var products []models.RawProduct
	containers.Each(func(i int, s *goquery.Selection) {
		link := s.Find("a.product-item-link").First()
		href, ok := link.Attr("href")
		if link.Length() == 0 || !ok || strings.TrimSpace(href) == "" {
			g.logger.Debug("skipping item", "index", i, "error", extractErr("link"))
			return
		}
		products = append(products, models.RawProduct{
			Name:      parser.CleanText(strings.TrimSpace(link.Text())),
			SourceURL: resolve(pageURL, strings.TrimSpace(href)),
		})
	})
	return products
}

func (g *GymBeam) Expand(ctx context.Context, f fetcher.Fetcher, p models.RawProduct) ([]models.RawProduct, error) {
	variants, err := f.FetchVariants(ctx, p.SourceURL, gymBeamVariants)
	if err != nil && len(variants) == 0 {
		return nil, err
	}

	products := make([]models.RawProduct, 0, len(variants))
	for _, v := range variants {
		products = append(products, models.RawProduct{
			Name:      fmt.Sprintf("%s - %s", p.Name, strings.TrimSpace(v.Option)),
			Price:     strings.TrimSpace(v.Price),
			SourceURL: p.SourceURL,
		})
	}
	return products, err
}
