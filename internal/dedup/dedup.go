package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
	"github.com/shopspring/decimal"
)

const urlSeparator = ", "

type group struct {
	first models.ProductRecord
	price decimal.Decimal
	urls  []string
}

func (g *group) addURLs(joined string) {
	for _, u := range strings.Split(joined, urlSeparator) {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		seen := false
		for _, existing := range g.urls {
			if existing == u {
				seen = true
				break
			}
		}
		if !seen {
			g.urls = append(g.urls, u)
		}
	}
}

// Merge collapses records that share a DedupKey into one row carrying the
// lowest price and every URL seen at that price. The first-seen name wins.
// Records whose price does not parse are returned separately, untouched.
func Merge(records []models.ProductRecord) (merged, unparseable []models.ProductRecord) {
	var order []string
	groups := make(map[string]*group)

	for _, r := range records {
		price, err := parser.NormalizePrice(r.Price)
		if err != nil {
			unparseable = append(unparseable, r)
			continue
		}

		key := parser.DedupKey(r.Name)
		g, ok := groups[key]
		if !ok {
			g = &group{first: r, price: price}
			g.addURLs(r.SourceURL)
			groups[key] = g
			order = append(order, key)
			continue
		}

		switch price.Cmp(g.price) {
		case -1:
			g.price = price
			g.urls = nil
			g.addURLs(r.SourceURL)
		case 0:
			g.addURLs(r.SourceURL)
		}
	}

	merged = make([]models.ProductRecord, 0, len(order))
	for _, key := range order {
		g := groups[key]
		merged = append(merged, models.ProductRecord{
			ID:        g.first.ID,
			Name:      g.first.Name,
			Price:     parser.FormatPrice(g.price),
			SourceURL: strings.Join(g.urls, urlSeparator),
		})
	}
	return merged, unparseable
}

// Result reports the effect of one deduplication pass.
type Result struct {
	Before      int `json:"before"`
	After       int `json:"after"`
	Unparseable int `json:"unparseable"`
}

type Engine struct {
	store  database.Store
	logger *slog.Logger
}

func NewEngine(store database.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.With("component", "dedup"),
	}
}

// Run replaces the store contents with the merged rows in one transaction.
// Rows with unparseable prices are kept after the merged rows.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	records, err := e.store.All(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load products: %w", err)
	}

	merged, unparseable := Merge(records)
	rows := append(merged, unparseable...)

	if err := e.store.ReplaceAll(ctx, rows); err != nil {
		return Result{}, fmt.Errorf("failed to replace products: %w", err)
	}

	result := Result{Before: len(records), After: len(rows), Unparseable: len(unparseable)}
	e.logger.Info("duplicates merged",
		"before", result.Before,
		"after", result.After,
		"unparseable", result.Unparseable)
	return result, nil
}
