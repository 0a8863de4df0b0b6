package generators

import "chart-stream/src/models"

const (
	LineName     = "line"
	lineSeriesID = "price"
	linePane     = "main"
	lineColor    = "#00ff00"
)

// LineGenerator draws a time/value series as a polyline, one vertex per sample.
type LineGenerator struct{}

func NewLineGenerator() *LineGenerator { return &LineGenerator{} }

func (g *LineGenerator) Name() string                  { return LineName }
func (g *LineGenerator) RecordKind() models.RecordKind { return models.KindTimeValue }
func (g *LineGenerator) DefaultSeriesID() string       { return lineSeriesID }

// -----------------------------------------------------------------------------

func (g *LineGenerator) GenerateTimeValues(seriesID string, records []models.MTimeValueRecord) models.MDrawCommand {
	cmd := models.MDrawCommand{
		Type:     models.CommandDrawSeries,
		Pane:     linePane,
		SeriesID: seriesID,
		Style: models.MStyleSpec{
			Kind:      LineName,
			Color:     lineColor,
			Thickness: 1,
		},
		Vertices: make([]float32, 0, len(records)*models.LineStride),
	}
	if len(records) == 0 {
		return cmd
	}

	var tr, vr axisRange
	for _, r := range records {
		tr.observe(float64(r.Timestamp))
		vr.observe(r.Value)
	}

	for _, r := range records {
		cmd.Vertices = append(cmd.Vertices,
			tr.scale(float64(r.Timestamp)),
			vr.scale(r.Value),
		)
	}
	return cmd
}

// -----------------------------------------------------------------------------

// GenerateOhlc is not supported by the line kind.
func (g *LineGenerator) GenerateOhlc(string, []models.MOhlcRecord) models.MDrawCommand {
	return models.MDrawCommand{}
}
