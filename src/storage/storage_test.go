package storage

import (
	"context"
	"path/filepath"
	"testing"

	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBPath: filepath.Join(t.TempDir(), "chart.db")}}
	d := NewSQLiteDB(cfg, logger.NewFromZap(zaptest.NewLogger(t), "sqlite"))
	require.NoError(t, d.Initialize(context.Background()))
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// -----------------------------------------------------------------------------

func TestSQLiteImportAndLoadPreservesOrder(t *testing.T) {
	d := openSQLite(t)
	ctx := context.Background()

	tv := []models.MTimeValueRecord{{Timestamp: 3000, Value: 3}, {Timestamp: 1000, Value: 1.25}, {Timestamp: 2000, Value: -2}}
	ohlc := []models.MOhlcRecord{{Timestamp: 1, Open: 10, High: 20, Low: 5, Close: 15}}

	require.NoError(t, d.Import(ctx, ImportRequest{TimeValues: tv, Ohlc: ohlc}))

	gotTV, err := d.LoadTimeValueRecords(ctx, DefaultTimeValuesTable)
	require.NoError(t, err)
	assert.Equal(t, tv, gotTV)

	gotOhlc, err := d.LoadOhlcRecords(ctx, DefaultOhlcTable)
	require.NoError(t, err)
	assert.Equal(t, ohlc, gotOhlc)
}

func TestSQLiteImportReplacesRows(t *testing.T) {
	d := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Import(ctx, ImportRequest{TimeValues: []models.MTimeValueRecord{{Timestamp: 1, Value: 1}, {Timestamp: 2, Value: 2}}}))
	require.NoError(t, d.Import(ctx, ImportRequest{TimeValues: []models.MTimeValueRecord{{Timestamp: 9, Value: 9}}}))

	got, err := d.LoadTimeValueRecords(ctx, DefaultTimeValuesTable)
	require.NoError(t, err)
	assert.Equal(t, []models.MTimeValueRecord{{Timestamp: 9, Value: 9}}, got)
}

func TestSQLiteLoadErrorsYieldEmpty(t *testing.T) {
	d := openSQLite(t)
	ctx := context.Background()

	got, err := d.LoadOhlcRecords(ctx, "missing_table")
	require.Error(t, err)
	var dbErr *helpers.DatabaseError
	assert.ErrorAs(t, err, &dbErr)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = d.LoadTimeValueRecords(ctx, "x; DROP TABLE y")
	var dataErr *helpers.DataError
	assert.ErrorAs(t, err, &dataErr)

	_, err = d.LoadTimeValueRecords(ctx, "main.time_values")
	assert.ErrorAs(t, err, &dataErr)
}

func TestParseTableRef(t *testing.T) {
	ref, err := parseTableRef("public.ohlc_bars")
	require.NoError(t, err)
	assert.Equal(t, tableRef{Schema: "public", Table: "ohlc_bars"}, ref)
	assert.Equal(t, `"public"."ohlc_bars"`, ref.String())

	ref, err = parseTableRef("time_values")
	require.NoError(t, err)
	assert.Equal(t, `"time_values"`, ref.String())

	for _, bad := range []string{"", "1abc", "a.b.c", `t"x`, "a-b"} {
		_, err := parseTableRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestPostgresPlaceholders(t *testing.T) {
	d := NewPostgresDB(&models.MConfig{}, logger.NewFromZap(zaptest.NewLogger(t), "pg"))
	assert.Equal(t, "$1, $2, $3", d.placeholders(3))
	assert.Equal(t, PostgresProviderName, d.Name())

	err := d.Initialize(context.Background())
	var cfgErr *helpers.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
