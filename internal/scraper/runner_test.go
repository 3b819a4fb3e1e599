package scraper

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *database.SQLite {
	t.Helper()
	s, err := database.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "products.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// failingStore rejects every insert with a store error.
type failingStore struct {
	database.Store
}

func (failingStore) Insert(ctx context.Context, p models.RawProduct) (bool, error) {
	return false, &database.StoreError{Op: "insert", Err: errors.New("disk I/O error")}
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	store := newStore(t)
	f := new(mockFetcher)

	adapters := []Adapter{
		NewKaterelos([]string{"https://k.test/1", "https://k.test/2"}, logger),
		NewGymBeam([]string{"https://gymbeam.gr/list"}, logger),
	}

	f.On("FetchStatic", mock.Anything, "https://k.test/1").Return("", errors.New("connection refused"))
	f.On("FetchStatic", mock.Anything, "https://k.test/2").Return(katerelosHTML, nil)
	f.On("FetchRendered", mock.Anything, "https://gymbeam.gr/list").Return(gymBeamHTML, nil)
	f.On("FetchVariants", mock.Anything, "https://gymbeam.gr/true-whey").Return([]browser.Variant{
		{Option: "1000 g", Price: "24,90 €"},
		{Option: "2500 g", Price: "Εξαντλήθηκε"},
	}, nil)
	f.On("FetchVariants", mock.Anything, "https://gymbeam.gr/just-whey").Return(nil, errors.New("timeout"))

	summary, err := NewRunner(f, store, adapters, logger).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []models.SourceResult{
		{Source: SourceKaterelos, Pages: 1, Failed: 1, Extracted: 2, Stored: 2},
		{Source: SourceGymBeam, Pages: 1, Failed: 0, Extracted: 2, Stored: 1},
	}, summary.Sources)
	assert.Equal(t, 3, summary.TotalStored())

	records, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Nutrabolics Whey 2,27 kg", records[0].Name)
	assert.Equal(t, "54.90", records[0].Price)
	assert.Equal(t, "https://k.test/2", records[0].SourceURL)
	assert.Equal(t, "True Whey - 1000 g", records[2].Name)
	assert.Equal(t, "https://gymbeam.gr/true-whey", records[2].SourceURL)

	f.AssertExpectations(t)
}

func TestRunnerStoreErrorAborts(t *testing.T) {
	logger := slog.Default()
	f := new(mockFetcher)
	f.On("FetchStatic", mock.Anything, "https://k.test/1").Return(katerelosHTML, nil)

	adapters := []Adapter{
		NewKaterelos([]string{"https://k.test/1", "https://k.test/2"}, logger),
		NewFitrace([]string{"https://f.test/1"}, logger),
	}

	summary, err := NewRunner(f, failingStore{}, adapters, logger).Run(context.Background())
	var se *database.StoreError
	require.ErrorAs(t, err, &se)
	assert.Len(t, summary.Sources, 1)
	f.AssertNotCalled(t, "FetchStatic", mock.Anything, "https://k.test/2")
	f.AssertNotCalled(t, "FetchStatic", mock.Anything, "https://f.test/1")
}

func TestRunnerCancelled(t *testing.T) {
	logger := slog.Default()
	f := new(mockFetcher)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(f, newStore(t), []Adapter{NewKaterelos(nil, logger)}, logger).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	f.AssertNotCalled(t, "FetchStatic", mock.Anything, mock.Anything)
}
