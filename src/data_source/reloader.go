package datasource

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"chart-stream/src/logger"
	"chart-stream/src/utils"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

const watchDebounce = 250 * time.Millisecond

// -----------------------------------------------------------------------------
// Scheduled reloads
// -----------------------------------------------------------------------------

// Scheduler reloads the dataset on a cron schedule (seconds field enabled),
// skipping runs while the configured market is closed.
type Scheduler struct {
	Cron   *cron.Cron
	Store  *DatasetStore
	Gate   *utils.MarketGate
	Logger *logger.Logger
	Ctx    context.Context
}

// -----------------------------------------------------------------------------

func NewScheduler(ctx context.Context, store *DatasetStore, gate *utils.MarketGate, log *logger.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Store:  store,
		Gate:   gate,
		Logger: log,
		Ctx:    ctx,
	}
}

// Register adds the reload job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.reloadTask); err != nil {
		return fmt.Errorf("register reload task %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("Reload scheduler started")
}

// Stop waits for a running reload to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("Reload scheduler stopped")
}

func (s *Scheduler) reloadTask() {
	if !s.Gate.Allow() {
		s.Logger.Debug("Market closed, skipping scheduled reload")
		return
	}
	_, _ = s.Store.Reload(s.Ctx, TriggerCron)
}

// -----------------------------------------------------------------------------
// File watching
// -----------------------------------------------------------------------------

// Watcher reloads the dataset when one of the local source files changes.
// Bursts of events are collapsed into one reload.
type Watcher struct {
	Store  *DatasetStore
	Logger *logger.Logger
	files  map[string]struct{}
	fsw    *fsnotify.Watcher
}

// -----------------------------------------------------------------------------

// NewWatcher watches the directories holding files, since editors commonly
// replace a file rather than write it in place.
func NewWatcher(store *DatasetStore, files []string, log *logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{Store: store, Logger: log, files: make(map[string]struct{}), fsw: fsw}
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		w.files[filepath.Clean(abs)] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// -----------------------------------------------------------------------------

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if _, tracked := w.files[filepath.Clean(ev.Name)]; !tracked {
				continue
			}
			w.Logger.Debug("Source file changed: %s", ev.Name)
			debounce = time.After(watchDebounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warning("File watcher error: %v", err)

		case <-debounce:
			debounce = nil
			_, _ = w.Store.Reload(ctx, TriggerWatch)
		}
	}
}
