package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
)

var fitraceURLs = []string{
	"https://www.fitrace.gr/category/161/prwteines.html?page=1&sort=5a",
	"https://www.fitrace.gr/category/161/prwteines.html?page=2&sort=5a",
	"https://www.fitrace.gr/category/161/prwteines.html?page=3&sort=5a",
}

// Fitrace lists products in div.description blocks; the price box is the
// next div.price in the document, which may sit outside the block.
type Fitrace struct {
	urls   []string
	logger *slog.Logger
}

func NewFitrace(urls []string, logger *slog.Logger) *Fitrace {
	return &Fitrace{
		urls:   urlsOrDefault(urls, fitraceURLs),
		logger: logger.With("component", "adapter", "source", SourceFitrace),
	}
}

func (f *Fitrace) Name() string   { return SourceFitrace }
func (f *Fitrace) URLs() []string { return f.urls }
func (f *Fitrace) Plan() Plan     { return Plan{} }

func (f *Fitrace) Extract(html, pageURL string) []models.RawProduct {
	doc, err := parse(html)
	if err != nil {
		f.logger.Warn("failed to parse listing", "url", pageURL, "error", err)
		return nil
	}

	containers := doc.Find("div.description")
	prices := following(doc, "div.description", "div.price")
	f.logger.Info("found products", "url", pageURL, "count", containers.Length())

	var products []models.RawProduct
	containers.Each(func(i int, s *goquery.Selection) {
		h4 := s.Find("h4").First()
		if h4.Length() == 0 {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("name"))
			return
		}
		if prices[i] == nil {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("price"))
			return
		}
		price, ok := firstText(prices[i], "strong", "span")
		if !ok {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("price"))
			return
		}
		products = append(products, models.RawProduct{
			Name:      parser.CleanText(strings.TrimSpace(h4.Text())),
			Price:     price,
			SourceURL: pageURL,
		})
	})
	return products
}
