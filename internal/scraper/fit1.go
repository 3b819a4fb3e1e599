package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
)

var fit1URLs = []string{
	"https://fit1.gr/category/whey-protein",
	"https://fit1.gr/category/whey-protein-isolate",
	"https://fit1.gr/category/hydrolyzed-whey-protein",
}

// Fit1 loads its listing by infinite scroll. A product is split across
// sibling elements: brand line, an h3 carrying the title attribute, and a
// pack line. Prices are a parallel list of div.price-line elements.
type Fit1 struct {
	urls   []string
	logger *slog.Logger
}

func NewFit1(urls []string, logger *slog.Logger) *Fit1 {
	return &Fit1{
		urls:   urlsOrDefault(urls, fit1URLs),
		logger: logger.With("component", "adapter", "source", SourceFit1),
	}
}

func (f *Fit1) Name() string   { return SourceFit1 }
func (f *Fit1) URLs() []string { return f.urls }

func (f *Fit1) Plan() Plan {
	return Plan{
		Rendered: true,
		Interactions: []browser.Interaction{
			browser.ScrollUntilStable{DoneSelector: ".no-more-products"},
		},
	}
}

func (f *Fit1) Extract(html, pageURL string) []models.RawProduct {
	doc, err := parse(html)
	if err != nil {
		f.logger.Warn("failed to parse listing", "url", pageURL, "error", err)
		return nil
	}

	const container = "div.brand-line"
	brands := doc.Find(container)
	titles := following(doc, container, "h3")
	packs := following(doc, container, "div.pack-line")
	prices := doc.Find("div.price-line")
	f.logger.Info("found products", "url", pageURL, "count", brands.Length())

	var products []models.RawProduct
	brands.Each(func(i int, s *goquery.Selection) {
		if titles[i] == nil {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("title"))
			return
		}
		if packs[i] == nil {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("pack"))
			return
		}
		if i >= prices.Length() {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("price"))
			return
		}

		price, ok := fit1Price(prices.Eq(i))
		if !ok {
			f.logger.Debug("skipping item", "index", i, "error", extractErr("price"))
			return
		}

		brand := strings.TrimSpace(s.Text())
		title := strings.TrimSpace(titles[i].AttrOr("title", ""))
		// The pack line carries the unit and is kept verbatim.
		pack := strings.TrimSpace(packs[i].Text())

		products = append(products, models.RawProduct{
			Name:      strings.TrimSpace(parser.CleanText(brand+" "+title) + " " + pack),
			Price:     price,
			SourceURL: pageURL,
		})
	})
	return products
}

// fit1Price reads the sale (b.green) or regular (b.normalp) price. Cents are
// rendered in a sup element and joined back with a decimal comma.
func fit1Price(line *goquery.Selection) (string, bool) {
	b := line.Find("b.green").First()
	if b.Length() == 0 {
		b = line.Find("b.normalp").First()
	}
	if b.Length() == 0 {
		return "", false
	}

	main := strings.TrimSpace(strings.ReplaceAll(b.Text(), "€", ""))
	sup := b.Find("sup").First()
	if sup.Length() == 0 {
		return main, true
	}

	cents := strings.TrimSpace(sup.Text())
	if strings.HasSuffix(main, cents) {
		main = strings.TrimSuffix(main, cents)
	} else {
		main = strings.Replace(main, cents, "", 1)
	}
	main = strings.TrimRight(strings.TrimSpace(main), ",.")
	return main + "," + cents, true
}
