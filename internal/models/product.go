package models

import (
	"github.com/shopspring/decimal"
)

// RawProduct is an unvalidated listing as scraped from a source page.
type RawProduct struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	SourceURL string `json:"source_url"`
}

// ProductRecord is a row of the products table. Price stays text so that rows
// written by older runs or by hand can still be read back and reported.
type ProductRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	SourceURL string `json:"source_url"`
}

// RankedEntry is one line of a ranking report.
type RankedEntry struct {
	Rank         int             `json:"rank"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	WeightGrams  int             `json:"weight_grams"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	SourceURL    string          `json:"source_url"`
}

// CategoryQuery selects records whose name contains any of the keywords.
type CategoryQuery struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Keywords    []string `json:"keywords"`
}

// SourceResult counts what one adapter produced during a scrape run.
type SourceResult struct {
	Source    string `json:"source"`
	Pages     int    `json:"pages"`
	Failed    int    `json:"failed_pages"`
	Extracted int    `json:"extracted"`
	Stored    int    `json:"stored"`
}

// ScrapeSummary is the outcome of a full scrape run.
type ScrapeSummary struct {
	Sources []SourceResult `json:"sources"`
}

func (s *ScrapeSummary) TotalStored() int {
	total := 0
	for _, r := range s.Sources {
		total += r.Stored
	}
	return total
}
