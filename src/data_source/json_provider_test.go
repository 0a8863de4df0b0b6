package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/models"
	"chart-stream/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newJSONProvider(t *testing.T) *JSONProvider {
	log := logger.NewFromZap(zaptest.NewLogger(t), "json")
	return NewJSONProvider(network.NewHTTPFetcher(&models.MConfig{}, log), log)
}

// -----------------------------------------------------------------------------

func TestLoadTimeValuesSkipsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tv.json", `[
		{"timestamp": 1000, "value": 1.5},
		{"timestamp": 2000},
		{"timestamp": "3000", "value": 2},
		42,
		{"timestamp": 4000, "value": 7, "extra": true}
	]`)

	records, err := newJSONProvider(t).LoadTimeValueRecords(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []models.MTimeValueRecord{
		{Timestamp: 1000, Value: 1.5},
		{Timestamp: 4000, Value: 7},
	}, records)
}

func TestLoadOhlcSkipsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ohlc.json", `[
		{"timestamp": 1, "open": 10, "high": 20, "low": 5, "close": 15},
		{"timestamp": 2, "open": 10, "high": 20, "low": 5},
		{"timestamp": 3, "open": 10, "high": "x", "low": 5, "close": 6}
	]`)

	records, err := newJSONProvider(t).LoadOhlcRecords(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []models.MOhlcRecord{{Timestamp: 1, Open: 10, High: 20, Low: 5, Close: 15}}, records)
}

func TestLoadFailuresYieldEmptyRecords(t *testing.T) {
	p := newJSONProvider(t)
	dir := t.TempDir()

	records, err := p.LoadTimeValueRecords(context.Background(), filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	notArray := writeFile(t, dir, "obj.json", `{"timestamp": 1, "value": 2}`)
	bars, err := p.LoadOhlcRecords(context.Background(), notArray)
	require.Error(t, err)
	var dataErr *helpers.DataError
	assert.ErrorAs(t, err, &dataErr)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"timestamp": 5, "value": 9}]`))
	}))
	defer srv.Close()

	records, err := newJSONProvider(t).LoadTimeValueRecords(context.Background(), srv.URL+"/tv.json")
	require.NoError(t, err)
	assert.Equal(t, []models.MTimeValueRecord{{Timestamp: 5, Value: 9}}, records)
}
