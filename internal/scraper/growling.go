package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
)

var growlingURLs = []string{
	"https://growlingstore.gr/product-category/proteines/",
}

// Growling renders its listing client side behind a "load more" button.
type Growling struct {
	urls   []string
	logger *slog.Logger
}

func NewGrowling(urls []string, logger *slog.Logger) *Growling {
	return &Growling{
		urls:   urlsOrDefault(urls, growlingURLs),
		logger: logger.With("component", "adapter", "source", SourceGrowling),
	}
}

func (g *Growling) Name() string   { return SourceGrowling }
func (g *Growling) URLs() []string { return g.urls }

func (g *Growling) Plan() Plan {
	return Plan{
		Rendered: true,
		Interactions: []browser.Interaction{
			browser.ClickUntilGone{Selector: ".load-more"},
		},
	}
}

func (g *Growling) Extract(html, pageURL string) []models.RawProduct {
	doc, err := parse(html)
	if err != nil {
		g.logger.Warn("failed to parse listing", "url", pageURL, "error", err)
		return nil
	}

	const container = "h3.heading-title.product-name"
	headings := doc.Find(container)
	prices := following(doc, container, "span.price")
	g.logger.Info("found products", "url", pageURL, "count", headings.Length())

	var products []models.RawProduct
	headings.Each(func(i int, s *goquery.Selection) {
		link := s.Find("a").First()
		if link.Length() == 0 {
			g.logger.Debug("skipping item", "index", i, "error", extractErr("name"))
			return
		}
		if prices[i] == nil {
			g.logger.Debug("skipping item", "index", i, "error", extractErr("price"))
			return
		}
		products = append(products, models.RawProduct{
			Name:      parser.CleanText(strings.TrimSpace(link.Text())),
			Price:     strings.TrimSpace(prices[i].Text()),
			SourceURL: pageURL,
		})
	})
	return products
}
