package utils

import (
	"testing"
	"time"

	"chart-stream/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCalendarClosedOnWeekend(t *testing.T) {
	cal := GetCalendar("XNYS")
	require.NotNil(t, cal)

	// Saturday 2024-06-15, midday in New York
	saturday := time.Date(2024, 6, 15, 16, 0, 0, 0, time.UTC)
	assert.False(t, cal.IsTradingDay(saturday))
	assert.False(t, cal.IsOpenOnMinute(saturday))
}

func TestCalendarOpenDuringSession(t *testing.T) {
	cal := GetCalendar("")

	// Wednesday 2024-06-12 11:00 New York (15:00 UTC, EDT)
	assert.True(t, cal.IsOpenOnMinute(time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)))
	// same day 20:00 New York
	assert.False(t, cal.IsOpenOnMinute(time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)))
}

func TestUnknownMICFallsBackToNYSE(t *testing.T) {
	cal := GetCalendar("nope")
	assert.Equal(t, DefaultMIC, cal.MIC)
}

func TestMarketGate(t *testing.T) {
	log := logger.NewFromZap(zaptest.NewLogger(t), "gate")

	assert.True(t, NewMarketGate(false, "xnys", log).Allow())

	var nilGate *MarketGate
	assert.True(t, nilGate.Allow())

	g := NewMarketGate(true, "xnys", log)
	g.now = func() time.Time { return time.Date(2024, 6, 15, 16, 0, 0, 0, time.UTC) }
	assert.False(t, g.Allow())

	g.now = func() time.Time { return time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC) }
	assert.True(t, g.Allow())
}
