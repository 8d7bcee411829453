package trustlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("@alice\nbob\n"))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(srv.URL)
	body, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "@alice\nbob\n", body)
}

func TestHTTPFetcher_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(srv.URL)
	_, err := fetcher.Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPFetcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(srv.URL)
	for i := 0; i < 5; i++ {
		_, err := fetcher.Fetch(context.Background())
		require.Error(t, err)
	}

	// After three consecutive failures the breaker short-circuits.
	assert.Equal(t, 3, hits)
}
