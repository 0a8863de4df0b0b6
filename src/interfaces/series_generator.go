package interfaces

import "chart-stream/src/models"

// -----------------------------------------------------------------------------
// ISeriesGenerator turns an ordered record sequence into one draw command.
// -----------------------------------------------------------------------------

type ISeriesGenerator interface {

	// Name is the registry key ("line", "candlestick")
	Name() string

	// RecordKind tells which dataset collection feeds this generator
	RecordKind() models.RecordKind

	// DefaultSeriesID is the series id used when a session does not name one
	DefaultSeriesID() string

	// -----------------------------------------------------------------------------

	// GenerateTimeValues builds a command from time/value samples.
	// Generators that do not draw time/value series return the zero command.
	GenerateTimeValues(seriesID string, records []models.MTimeValueRecord) models.MDrawCommand

	// GenerateOhlc builds a command from OHLC bars.
	// Generators that do not draw OHLC series return the zero command.
	GenerateOhlc(seriesID string, records []models.MOhlcRecord) models.MDrawCommand
}
