package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/parser"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// DefaultTopN is the number of entries a ranking returns unless told otherwise.
const DefaultTopN = 5

// Rank orders records by price per gram, cheapest first. With keywords set,
// only names containing one of them (case-insensitively, anywhere in the
// name) take part. Records without a parseable price or a weight are skipped.
// Equal price-per-gram values keep their input order.
func Rank(records []models.ProductRecord, keywords []string, topN int) []models.RankedEntry {
	if topN <= 0 {
		topN = DefaultTopN
	}

	fold := cases.Fold()
	folded := make([]string, len(keywords))
	for i, k := range keywords {
		folded[i] = fold.String(k)
	}

	var entries []models.RankedEntry
	for _, r := range records {
		if len(folded) > 0 && !containsAny(fold.String(r.Name), folded) {
			continue
		}

		price, err := parser.NormalizePrice(r.Price)
		if err != nil {
			continue
		}
		grams, ok := parser.ExtractWeightGrams(r.Name)
		if !ok {
			continue
		}

		entries = append(entries, models.RankedEntry{
			Name:         r.Name,
			Price:        price,
			WeightGrams:  grams,
			PricePerGram: price.Div(decimal.NewFromInt(int64(grams))),
			SourceURL:    r.SourceURL,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PricePerGram.LessThan(entries[j].PricePerGram)
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func containsAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// Engine runs rankings and the price correction pass against a store.
type Engine struct {
	store  database.Store
	logger *slog.Logger
}

func NewEngine(store database.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.With("component", "ranking"),
	}
}

func (e *Engine) TopByCategory(ctx context.Context, q models.CategoryQuery, topN int) ([]models.RankedEntry, error) {
	records, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}
	entries := Rank(records, q.Keywords, topN)
	e.logger.Debug("category ranked", "category", q.Key, "scanned", len(records), "ranked", len(entries))
	return entries, nil
}

func (e *Engine) Overall(ctx context.Context, topN int) ([]models.RankedEntry, error) {
	records, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}
	entries := Rank(records, nil, topN)
	e.logger.Debug("overall ranked", "scanned", len(records), "ranked", len(entries))
	return entries, nil
}

// CorrectPrices rewrites every stored price below 1 as that price times 100.
// Running it again corrects already corrected values that are still below 1.
func (e *Engine) CorrectPrices(ctx context.Context) (int, error) {
	records, err := e.store.All(ctx)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}

		price, err := parser.NormalizePrice(r.Price)
		if err != nil {
			continue
		}
		fixed, changed := parser.CorrectPrice(price)
		if !changed {
			continue
		}

		if err := e.store.UpdatePrice(ctx, r.ID, parser.FormatPrice(fixed)); err != nil {
			return corrected, fmt.Errorf("failed to correct price of product %d: %w", r.ID, err)
		}
		e.logger.Info("price corrected", "id", r.ID, "from", r.Price, "to", parser.FormatPrice(fixed))
		corrected++
	}
	return corrected, nil
}
