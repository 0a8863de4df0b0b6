package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"chart-stream/src/logger"
	"chart-stream/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	tv      []models.MTimeValueRecord
	ohlc    []models.MOhlcRecord
	tvErr   error
	ohlcErr error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) LoadTimeValueRecords(context.Context, string) ([]models.MTimeValueRecord, error) {
	if p.tvErr != nil {
		return []models.MTimeValueRecord{}, p.tvErr
	}
	return p.tv, nil
}

func (p *stubProvider) LoadOhlcRecords(context.Context, string) ([]models.MOhlcRecord, error) {
	if p.ohlcErr != nil {
		return []models.MOhlcRecord{}, p.ohlcErr
	}
	return p.ohlc, nil
}

func newStore(t *testing.T, p *stubProvider) *DatasetStore {
	cfg := &models.MConfig{Data: models.MDataConfig{TimeValuesSource: "tv", OhlcSource: "ohlc"}}
	return NewDatasetStore(p, cfg, logger.NewFromZap(zaptest.NewLogger(t), "dataset"))
}

// -----------------------------------------------------------------------------

func TestSnapshotBeforeLoadIsEmpty(t *testing.T) {
	s := newStore(t, &stubProvider{})
	ds := s.Snapshot()
	require.NotNil(t, ds)
	assert.True(t, ds.IsEmpty())
	assert.Zero(t, ds.Generation)
}

func TestReloadPublishesNewGeneration(t *testing.T) {
	p := &stubProvider{
		tv:   []models.MTimeValueRecord{{Timestamp: 1, Value: 1}},
		ohlc: []models.MOhlcRecord{{Timestamp: 1, Open: 1, High: 2, Low: 0, Close: 1}},
	}
	s := newStore(t, p)

	var published atomic.Uint64
	s.OnPublish(func(ds *models.MDataset) { published.Store(ds.Generation) })

	before := s.Snapshot()
	ds, err := s.Reload(context.Background(), TriggerStartup)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), ds.Generation)
	assert.Same(t, ds, s.Snapshot())
	assert.Equal(t, uint64(1), published.Load())
	assert.True(t, before.IsEmpty(), "old snapshot is never mutated")
}

func TestStartupFailureLeavesKindEmpty(t *testing.T) {
	p := &stubProvider{
		tv:      []models.MTimeValueRecord{{Timestamp: 1, Value: 1}},
		ohlcErr: errors.New("boom"),
	}
	ds, err := newStore(t, p).Reload(context.Background(), TriggerStartup)
	require.Error(t, err)
	assert.Len(t, ds.TimeValues, 1)
	assert.NotNil(t, ds.Ohlc)
	assert.Empty(t, ds.Ohlc)
}

func TestReloadFailureKeepsPreviousRecords(t *testing.T) {
	p := &stubProvider{
		tv:   []models.MTimeValueRecord{{Timestamp: 1, Value: 1}},
		ohlc: []models.MOhlcRecord{{Timestamp: 1, Open: 1, High: 2, Low: 0, Close: 1}},
	}
	s := newStore(t, p)
	_, err := s.Reload(context.Background(), TriggerStartup)
	require.NoError(t, err)

	p.tvErr = errors.New("gone")
	p.ohlc = append(p.ohlc, models.MOhlcRecord{Timestamp: 2, Open: 1, High: 3, Low: 1, Close: 2})

	ds, err := s.Reload(context.Background(), TriggerCron)
	require.Error(t, err)
	assert.Equal(t, uint64(2), ds.Generation)
	assert.Len(t, ds.TimeValues, 1)
	assert.Len(t, ds.Ohlc, 2)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tv.json", `[{"timestamp": 1, "value": 1}]`)

	cfg := &models.MConfig{Data: models.MDataConfig{TimeValuesSource: path}}
	log := logger.NewFromZap(zaptest.NewLogger(t), "watch")
	store := NewDatasetStore(newJSONProvider(t), cfg, log)
	_, err := store.Reload(context.Background(), TriggerStartup)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, store.LocalFiles())

	w, err := NewWatcher(store, store.LocalFiles(), log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.WriteFile(filepath.Clean(path), []byte(`[{"timestamp": 1, "value": 1}, {"timestamp": 2, "value": 3}]`), 0o644))

	require.Eventually(t, func() bool {
		return len(store.Snapshot().TimeValues) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(context.Background(), newStore(t, &stubProvider{}), nil, logger.NewFromZap(zaptest.NewLogger(t), "cron"))
	assert.Error(t, s.Register("not a cron"))
	assert.NoError(t, s.Register("*/5 * * * * *"))
}
