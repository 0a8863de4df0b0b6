package generators

import (
	"testing"

	"chart-stream/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()

	line, ok := reg.Resolve("line")
	require.True(t, ok)
	assert.Equal(t, models.KindTimeValue, line.RecordKind())

	candle, ok := reg.Resolve("candlestick")
	require.True(t, ok)
	assert.Equal(t, models.KindOhlc, candle.RecordKind())

	for _, name := range []string{"Line", "CANDLESTICK", "bogus", "", " line"} {
		_, ok := reg.Resolve(name)
		assert.False(t, ok, "%q should not resolve", name)
	}

	assert.Equal(t, []string{"candlestick", "line"}, reg.Names())
}

func TestGenerate_PicksRecordsByKind(t *testing.T) {
	ds := &models.MDataset{
		TimeValues: []models.MTimeValueRecord{{Timestamp: 0, Value: 0}, {Timestamp: 10, Value: 10}},
		Ohlc:       []models.MOhlcRecord{{Timestamp: 0, Open: 1, High: 2, Low: 0, Close: 1}},
	}
	reg := NewRegistry()

	line, _ := reg.Resolve("line")
	cmd := Generate(line, "price", ds, 0)
	assert.Equal(t, []float32{-1, -1, 1, 1}, cmd.Vertices)

	candle, _ := reg.Resolve("candlestick")
	cmd = Generate(candle, "ohlc", ds, 0)
	assert.Len(t, cmd.Vertices, models.CandleStride)

	cmd = Generate(line, "price", ds, 5)
	assert.Empty(t, cmd.Vertices)

	cmd = Generate(line, "price", nil, 0)
	assert.Empty(t, cmd.Vertices)
	assert.Equal(t, "price", cmd.SeriesID)
}
