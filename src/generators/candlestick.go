package generators

import "chart-stream/src/models"

const (
	CandlestickName     = "candlestick"
	candleSeriesID      = "ohlc"
	candlePane          = "main"
	candleUpColor       = "#00ff00"
	candleDownColor     = "#ff0000"
	candleBodyHalfWidth = 0.01 // normalized x units
)

// CandlestickGenerator draws OHLC bars as line segments: a wick from low to
// high followed by the two horizontal edges of the body.
type CandlestickGenerator struct{}

func NewCandlestickGenerator() *CandlestickGenerator { return &CandlestickGenerator{} }

func (g *CandlestickGenerator) Name() string                  { return CandlestickName }
func (g *CandlestickGenerator) RecordKind() models.RecordKind { return models.KindOhlc }
func (g *CandlestickGenerator) DefaultSeriesID() string       { return candleSeriesID }

// -----------------------------------------------------------------------------

// GenerateTimeValues is not supported by the candlestick kind.
func (g *CandlestickGenerator) GenerateTimeValues(string, []models.MTimeValueRecord) models.MDrawCommand {
	return models.MDrawCommand{}
}

// -----------------------------------------------------------------------------

// GenerateOhlc emits 12 floats (six vertices, three segments) per bar:
//
//	x,low  x,high                 wick
//	x-w,e1 x+w,e1                 first body edge
//	x-w,e2 x+w,e2                 second body edge
//
// where e1 is the close for up bars (close >= open) and the open otherwise.
func (g *CandlestickGenerator) GenerateOhlc(seriesID string, records []models.MOhlcRecord) models.MDrawCommand {
	cmd := models.MDrawCommand{
		Type:     models.CommandDrawSeries,
		Pane:     candlePane,
		SeriesID: seriesID,
		Style: models.MStyleSpec{
			Kind:      CandlestickName,
			Color:     candleUpColor,
			AltColor:  candleDownColor,
			Thickness: 1,
		},
		Vertices: make([]float32, 0, len(records)*models.CandleStride),
	}
	if len(records) == 0 {
		return cmd
	}

	var tr, pr axisRange
	for _, b := range records {
		tr.observe(float64(b.Timestamp))
		pr.observe(b.Low)
		pr.observe(b.High)
	}

	for _, b := range records {
		x := tr.scale(float64(b.Timestamp))
		yLow := pr.scale(b.Low)
		yHigh := pr.scale(b.High)
		yOpen := pr.scale(b.Open)
		yClose := pr.scale(b.Close)

		first, second := yOpen, yClose
		if b.Close >= b.Open {
			first, second = yClose, yOpen
		}

		left := clampUnit(float64(x) - candleBodyHalfWidth)
		right := clampUnit(float64(x) + candleBodyHalfWidth)

		cmd.Vertices = append(cmd.Vertices,
			x, yLow, x, yHigh,
			left, first, right, first,
			left, second, right, second,
		)
	}
	return cmd
}
