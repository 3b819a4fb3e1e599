package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedScraper inserts a fixed product list the way the runner would.
type seedScraper struct {
	store    database.Store
	products []models.RawProduct
	err      error
}

func (s *seedScraper) Run(ctx context.Context) (models.ScrapeSummary, error) {
	if s.err != nil {
		return models.ScrapeSummary{}, s.err
	}
	result := models.SourceResult{Source: "seed", Pages: 1}
	for _, p := range s.products {
		result.Extracted++
		ok, err := s.store.Insert(ctx, p)
		if err != nil {
			return models.ScrapeSummary{}, err
		}
		if ok {
			result.Stored++
		}
	}
	return models.ScrapeSummary{Sources: []models.SourceResult{result}}, nil
}

func newStore(t *testing.T) *database.SQLite {
	t.Helper()
	s, err := database.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "products.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var sevenProducts = []models.RawProduct{
	{Name: "Gold Whey 1kg", Price: "24,90 €", SourceURL: "https://a/1"},
	{Name: "gold  whey 1kg", Price: "22,90 €", SourceURL: "https://b/1"},
	{Name: "GOLD WHEY 1KG", Price: "22,90", SourceURL: "https://c/1"},
	{Name: "Iso Zero 2kg", Price: "69,90", SourceURL: "https://a/2"},
	{Name: "iso zero 2kg", Price: "71,00", SourceURL: "https://b/2"},
	{Name: "Hydro Pro 908g", Price: "0,45", SourceURL: "https://a/3"},
	{Name: "Hydro Pro 908g", Price: "49,90", SourceURL: "https://c/3"},
}

func TestRunAllEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := New(store, &seedScraper{store: store, products: sevenProducts}, 5, slog.Default())

	result, err := p.RunAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, result.Summary.TotalStored())
	assert.Equal(t, 7, result.Dedup.Before)
	assert.Equal(t, 3, result.Dedup.After)

	require.Len(t, result.Lines, 3)
	for _, block := range result.Lines {
		for _, field := range []string{"Θέση #", "Τιμή:", "Βάρος:", "Τιμή ανά γραμμάριο:", "URL:"} {
			assert.Contains(t, block, field)
		}
	}

	// 0,45 merged as the Hydro Pro minimum, then corrected to 45.00.
	records, err := store.All(ctx)
	require.NoError(t, err)
	var hydro models.ProductRecord
	for _, r := range records {
		if r.Name == "Hydro Pro 908g" {
			hydro = r
		}
	}
	assert.Equal(t, "45.00", hydro.Price)
	assert.Equal(t, "https://a/3", hydro.SourceURL)

	assert.True(t, strings.HasPrefix(result.Lines[0], "Θέση #1\nΠροϊόν: Gold Whey 1kg\nΤιμή: 22.90€"))
	assert.Contains(t, result.Lines[0], "URL: https://b/1, https://c/1")
}

func TestRunAllNoResults(t *testing.T) {
	store := newStore(t)
	p := New(store, &seedScraper{store: store, products: []models.RawProduct{
		{Name: "Shaker", Price: "5,00", SourceURL: "https://a/9"},
	}}, 5, slog.Default())

	result, err := p.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{report.NoResults}, result.Lines)
}

func TestRunAllFailure(t *testing.T) {
	store := newStore(t)
	p := New(store, &seedScraper{err: errors.New("browser crashed")}, 5, slog.Default())

	result, err := p.RunAll(context.Background())
	require.Error(t, err)
	require.Len(t, result.Lines, 1)
	assert.True(t, strings.HasPrefix(result.Lines[0], "Σφάλμα: "))
	assert.Contains(t, result.Lines[0], "browser crashed")
}

func TestRunFullScrapeResets(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Insert(ctx, models.RawProduct{Name: "Old 1kg", Price: "1", SourceURL: "old"})
	require.NoError(t, err)

	p := New(store, &seedScraper{store: store, products: sevenProducts[:1]}, 5, slog.Default())
	_, err = p.RunFullScrape(ctx)
	require.NoError(t, err)

	records, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Gold Whey 1kg", records[0].Name)
}

func TestTopByCategory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := New(store, &seedScraper{store: store, products: sevenProducts}, 5, slog.Default())
	_, err := p.RunFullScrape(ctx)
	require.NoError(t, err)

	lines, err := p.TopByCategory(ctx, "isolate")
	require.NoError(t, err)
	assert.Equal(t, "\nΤα Top 5 προϊόντα για την κατηγορία 'Isolate':", lines[0])
	assert.Contains(t, lines, "Προϊόν: Iso Zero 2kg")
	assert.Contains(t, lines, "Προϊόν: iso zero 2kg")

	_, err = p.TopByCategory(ctx, "casein")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

type brokenStore struct {
	database.Store
}

func (brokenStore) All(ctx context.Context) ([]models.ProductRecord, error) {
	return nil, &database.StoreError{Op: "scan", Err: errors.New("no such table: products")}
}

func TestStoreFailureLines(t *testing.T) {
	p := New(brokenStore{}, &seedScraper{}, 5, slog.Default())

	lines, err := p.TopByCategory(context.Background(), "whey")
	require.NoError(t, err)
	assert.Equal(t, []string{"Σφάλμα βάσης δεδομένων: store scan: no such table: products"}, lines)

	assert.Equal(t, []string{"Σφάλμα βάσης δεδομένων: store scan: no such table: products"}, p.AnalyzeOverall(context.Background()))
}
