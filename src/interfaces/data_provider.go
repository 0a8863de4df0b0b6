package interfaces

import (
	"context"

	"chart-stream/src/models"
)

// -----------------------------------------------------------------------------
// IDataProvider loads raw series records from a backing source.
// -----------------------------------------------------------------------------

type IDataProvider interface {

	// Name returns the unique identifier of the provider ("json", "sqlite", ...)
	Name() string

	// -----------------------------------------------------------------------------

	// LoadTimeValueRecords reads the time/value series named by source.
	// On failure the returned slice is empty (never nil) and err explains why;
	// callers log and continue with the empty set.
	LoadTimeValueRecords(ctx context.Context, source string) ([]models.MTimeValueRecord, error)

	// -----------------------------------------------------------------------------

	// LoadOhlcRecords reads the OHLC series named by source, same contract as above.
	LoadOhlcRecords(ctx context.Context, source string) ([]models.MOhlcRecord, error)
}

// -----------------------------------------------------------------------------
// IDatasetSource hands out consistent dataset snapshots.
// -----------------------------------------------------------------------------

type IDatasetSource interface {

	// Snapshot returns the current dataset. The result must not be modified.
	Snapshot() *models.MDataset
}
