package utils

import (
	"time"

	"chart-stream/src/logger"
)

// MarketGate decides whether a scheduled reload should run. A disabled gate
// always lets reloads through.
type MarketGate struct {
	Enabled  bool
	Calendar *TradingCalendar
	Logger   *logger.Logger
	now      func() time.Time
}

// -----------------------------------------------------------------------------

func NewMarketGate(enabled bool, mic string, l *logger.Logger) *MarketGate {
	g := &MarketGate{Enabled: enabled, Logger: l, now: time.Now}
	if enabled {
		g.Calendar = GetCalendar(mic)
		if g.Calendar.Fallback {
			l.Warning("No calendar for MIC '%s'. Using Mon-Fri 09:30-16:00 New York hours.", mic)
		} else {
			l.Info("Scheduled reloads gated on %s market hours", g.Calendar.MIC)
		}
	}
	return g
}

// -----------------------------------------------------------------------------

// Allow reports whether the market is open now.
func (g *MarketGate) Allow() bool {
	if g == nil || !g.Enabled || g.Calendar == nil {
		return true
	}
	return g.Calendar.IsOpenOnMinute(g.now().UTC())
}
