package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newFetcher(t *testing.T, retries int) *HTTPFetcher {
	cfg := &models.MConfig{Data: models.MDataConfig{RequestTimeout: 2, MaxRetries: retries}}
	return NewHTTPFetcher(cfg, logger.NewFromZap(zaptest.NewLogger(t), "network"))
}

func TestGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[{"timestamp":1,"value":2}]`))
	}))
	defer srv.Close()

	body, err := newFetcher(t, 0).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"timestamp":1,"value":2}]`, string(body))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := newFetcher(t, 1).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newFetcher(t, 3).Get(context.Background(), srv.URL)
	require.Error(t, err)
	var dataErr *helpers.DataError
	assert.ErrorAs(t, err, &dataErr)
	assert.Equal(t, int32(1), calls.Load())
}
