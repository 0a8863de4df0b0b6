package datasource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/metrics"
	"chart-stream/src/models"

	"golang.org/x/sync/errgroup"
)

// Reload triggers, used as metric labels.
const (
	TriggerStartup = "startup"
	TriggerCron    = "cron"
	TriggerWatch   = "watch"
	TriggerManual  = "manual"
)

// DatasetStore owns the published dataset. Readers take a snapshot with a
// single atomic load; reloads build a new dataset and swap the pointer.
type DatasetStore struct {
	Provider         interfaces.IDataProvider
	TimeValuesSource string
	OhlcSource       string
	Logger           *logger.Logger

	current    atomic.Pointer[models.MDataset]
	generation atomic.Uint64
	reloadMu   sync.Mutex

	listenersMu sync.RWMutex
	listeners   []func(*models.MDataset)
}

// -----------------------------------------------------------------------------

func NewDatasetStore(provider interfaces.IDataProvider, cfg *models.MConfig, log *logger.Logger) *DatasetStore {
	s := &DatasetStore{
		Provider:         provider,
		TimeValuesSource: cfg.Data.TimeValuesSource,
		OhlcSource:       cfg.Data.OhlcSource,
		Logger:           log,
	}
	s.current.Store(&models.MDataset{
		TimeValues: []models.MTimeValueRecord{},
		Ohlc:       []models.MOhlcRecord{},
	})
	return s
}

// -----------------------------------------------------------------------------

// Snapshot returns the dataset currently published. Never nil.
func (s *DatasetStore) Snapshot() *models.MDataset {
	return s.current.Load()
}

// OnPublish registers fn to be called after every successful publish.
func (s *DatasetStore) OnPublish(fn func(*models.MDataset)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// -----------------------------------------------------------------------------

// Reload loads both collections and publishes them as one new dataset.
//
// A provider failure is logged and returned, but never aborts the publish: on
// the startup load the failed kind is empty, on later reloads the previously
// published records of that kind are kept.
func (s *DatasetStore) Reload(ctx context.Context, trigger string) (*models.MDataset, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	metrics.DatasetReloadsTotal.WithLabelValues(trigger).Inc()
	prev := s.current.Load()
	keepPrevious := prev.Generation > 0

	var (
		timeValues []models.MTimeValueRecord
		ohlc       []models.MOhlcRecord
		tvErr      error
		ohlcErr    error
	)

	var g errgroup.Group
	g.Go(func() error {
		timeValues, tvErr = s.loadTimeValues(ctx)
		return nil
	})
	g.Go(func() error {
		ohlc, ohlcErr = s.loadOhlc(ctx)
		return nil
	})
	_ = g.Wait()

	if tvErr != nil {
		s.Logger.Error("Failed to load time/value records from %s: %v", s.TimeValuesSource, tvErr)
		metrics.DatasetLoadErrorsTotal.Inc()
		if keepPrevious {
			timeValues = prev.TimeValues
		}
	}
	if ohlcErr != nil {
		s.Logger.Error("Failed to load OHLC records from %s: %v", s.OhlcSource, ohlcErr)
		metrics.DatasetLoadErrorsTotal.Inc()
		if keepPrevious {
			ohlc = prev.Ohlc
		}
	}

	next := &models.MDataset{
		TimeValues: timeValues,
		Ohlc:       ohlc,
		LoadedAt:   time.Now().UTC(),
		Generation: s.generation.Add(1),
	}
	s.current.Store(next)

	metrics.DatasetRecords.WithLabelValues(models.KindTimeValue.String()).Set(float64(len(next.TimeValues)))
	metrics.DatasetRecords.WithLabelValues(models.KindOhlc.String()).Set(float64(len(next.Ohlc)))
	s.Logger.Info("Published dataset #%d (%s): %d time/value records, %d OHLC bars",
		next.Generation, trigger, len(next.TimeValues), len(next.Ohlc))

	s.listenersMu.RLock()
	for _, fn := range s.listeners {
		fn(next)
	}
	s.listenersMu.RUnlock()

	return next, errors.Join(tvErr, ohlcErr)
}

// -----------------------------------------------------------------------------

func (s *DatasetStore) loadTimeValues(ctx context.Context) ([]models.MTimeValueRecord, error) {
	if s.TimeValuesSource == "" {
		return []models.MTimeValueRecord{}, nil
	}
	records, err := s.Provider.LoadTimeValueRecords(ctx, s.TimeValuesSource)
	if records == nil {
		records = []models.MTimeValueRecord{}
	}
	return records, err
}

func (s *DatasetStore) loadOhlc(ctx context.Context) ([]models.MOhlcRecord, error) {
	if s.OhlcSource == "" {
		return []models.MOhlcRecord{}, nil
	}
	records, err := s.Provider.LoadOhlcRecords(ctx, s.OhlcSource)
	if records == nil {
		records = []models.MOhlcRecord{}
	}
	return records, err
}

// -----------------------------------------------------------------------------

// LocalFiles returns the configured sources that are files on disk.
func (s *DatasetStore) LocalFiles() []string {
	var files []string
	for _, src := range []string{s.TimeValuesSource, s.OhlcSource} {
		if src != "" && !isRemote(src) {
			files = append(files, src)
		}
	}
	return files
}
