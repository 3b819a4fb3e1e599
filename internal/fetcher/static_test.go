package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body><div class="block_btm"><h4>Whey 1kg</h4><h6><strong>24,90 €</strong></h6></div></body></html>`

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/listing":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(listingHTML))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(listingHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticFetcher(t *testing.T) {
	srv := newListingServer(t)
	f := NewStaticFetcher("whey-ranker-test", 2*time.Second)

	t.Run("returns body", func(t *testing.T) {
		html, err := f.Fetch(context.Background(), srv.URL+"/listing")
		require.NoError(t, err)
		assert.Contains(t, html, "block_btm")
	})

	t.Run("revisits are allowed", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/listing")
		require.NoError(t, err)
		_, err = f.Fetch(context.Background(), srv.URL+"/listing")
		require.NoError(t, err)
	})

	t.Run("not found is a fetch error", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		require.Error(t, err)

		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "static", fe.Op)
		assert.Equal(t, srv.URL+"/missing", fe.URL)
	})

	t.Run("timeout is a fetch error", func(t *testing.T) {
		short := NewStaticFetcher("", 50*time.Millisecond)
		_, err := short.Fetch(context.Background(), srv.URL+"/slow")
		var fe *FetchError
		assert.ErrorAs(t, err, &fe)
	})
}

func TestPageFetcherStatic(t *testing.T) {
	srv := newListingServer(t)
	f := New(Config{Timeout: 2 * time.Second}, slog.Default())
	defer f.Close()

	html, err := f.FetchStatic(context.Background(), srv.URL+"/listing")
	require.NoError(t, err)
	assert.Contains(t, html, "24,90")
}

func TestPageFetcherHonorsCancellation(t *testing.T) {
	f := New(Config{RequestInterval: time.Hour}, slog.Default())
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchRendered(ctx, "https://example.invalid/")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rendered", fe.Op)
}
