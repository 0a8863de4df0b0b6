package session

import (
	"chart-stream/src/generators"
	"chart-stream/src/interfaces"
	"chart-stream/src/models"
)

// -----------------------------------------------------------------------------
// Incremental Update Engine
// -----------------------------------------------------------------------------

// Delta regenerates only the records at or after fromIndex. It returns false
// when there is nothing new (fromIndex at or past the end).
//
// The suffix is normalized against its own min/max, not the full series, so a
// delta and a full render of the same records are not guaranteed to line up.
// The engine keeps no state; callers pass the same dataset every time.
func Delta(gen interfaces.ISeriesGenerator, seriesID string, ds *models.MDataset, fromIndex int) (models.MDrawCommand, bool) {
	if fromIndex < 0 {
		fromIndex = 0
	}
	if fromIndex >= ds.Len(gen.RecordKind()) {
		return models.MDrawCommand{}, false
	}
	return generators.Generate(gen, seriesID, ds, fromIndex), true
}
