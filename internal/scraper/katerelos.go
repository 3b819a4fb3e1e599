package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
)

var katerelosURLs = []string{
	"https://www.katerelosfitness.gr/category/794_800_797/prwteines_oros_galaktos.html",
	"https://www.katerelosfitness.gr/category/794_800_797/prwteines_oros_galaktos.html?page=2",
	"https://www.katerelosfitness.gr/category/794_800_778/prwteines_apomonwmenos_oros_galaktos.html",
	"https://www.katerelosfitness.gr/category/794_800_778/prwteines_apomonwmenos_oros_galaktos.html?page=2",
	"https://www.katerelosfitness.gr/category/794_800_798/prwteines_ydrolymenos_oros_galaktos.html",
}

// Katerelos serves complete listings; each product sits in a div.block_btm
// with the name in h4 and the price inside h6.
type Katerelos struct {
	urls   []string
	logger *slog.Logger
}

func NewKaterelos(urls []string, logger *slog.Logger) *Katerelos {
	return &Katerelos{
		urls:   urlsOrDefault(urls, katerelosURLs),
		logger: logger.With("component", "adapter", "source", SourceKaterelos),
	}
}

func (k *Katerelos) Name() string   { return SourceKaterelos }
func (k *Katerelos) URLs() []string { return k.urls }
func (k *Katerelos) Plan() Plan     { return Plan{} }

func (k *Katerelos) Extract(html, pageURL string) []models.RawProduct {
	doc, err := parse(html)
	if err != nil {
		k.logger.Warn("failed to parse listing", "url", pageURL, "error", err)
		return nil
	}

	containers := doc.Find("div.block_btm")
	k.logger.Info("found products", "url", pageURL, "count", containers.Length())

	var products []models.RawProduct
	containers.Each(func(i int, s *goquery.Selection) {
		p, err := k.item(s, pageURL)
		if err != nil {
			k.logger.Debug("skipping item", "index", i, "error", err)
			return
		}
		products = append(products, p)
	})
	return products
}

func (k *Katerelos) item(s *goquery.Selection, pageURL string) (models.RawProduct, error) {
	h4 := s.Find("h4").First()
	if h4.Length() == 0 {
		return models.RawProduct{}, extractErr("name")
	}
	price, ok := firstText(s.Find("h6").First(), "strong", "span")
	if !ok {
		return models.RawProduct{}, extractErr("price")
	}
	return models.RawProduct{
		Name:      parser.CleanText(strings.TrimSpace(h4.Text())),
		Price:     price,
		SourceURL: pageURL,
	}, nil
}
