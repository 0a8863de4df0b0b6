package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"chart-stream/src/generators"
	"chart-stream/src/helpers"
	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/metrics"
	"chart-stream/src/models"
	"chart-stream/src/protocol"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultSendTimeout     = 5 * time.Second
)

// ErrSessionClosed is returned for any request after teardown.
var ErrSessionClosed = helpers.NewTransportError("session closed", nil)

// errEncodeFailed marks a batch that could not be encoded. The client has
// already been told; state and cursors must not move.
var errEncodeFailed = helpers.NewDataError("failed to encode draw commands", nil)

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

type State int

const (
	StateIdle State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// -----------------------------------------------------------------------------

type Config struct {
	RefreshInterval time.Duration
	SendTimeout     time.Duration
}

// subscription is the state of one active subscribe. Only the owning session
// touches it, always under the session lock.
type subscription struct {
	seriesTypes []string
	gens        []interfaces.ISeriesGenerator
	cursors     map[string]int
	cancel      context.CancelFunc
	done        chan struct{}
}

// wait blocks until the refresh task of a retired subscription has exited.
func (sub *subscription) wait() {
	if sub != nil {
		<-sub.done
	}
}

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// Session is the per-connection subscription state machine:
//
//	Idle --subscribe--> Active --unsubscribe/error--> Idle
//	any  --Close/transport failure--> Closed
//
// The session lock serializes inbound requests and periodic refresh ticks, so
// envelopes reach the transport in the order they were generated.
type Session struct {
	ID string

	transport interfaces.ITransport
	registry  *generators.Registry
	data      interfaces.IDatasetSource
	cfg       Config
	logger    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	sub   *subscription

	runningTasks atomic.Int32
}

// -----------------------------------------------------------------------------

func New(parent context.Context, id string, transport interfaces.ITransport, registry *generators.Registry, data interfaces.IDatasetSource, cfg Config, log *logger.Logger) *Session {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	ctx, cancel := context.WithCancel(parent)
	metrics.OnSessionOpen()

	return &Session{
		ID:        id,
		transport: transport,
		registry:  registry,
		data:      data,
		cfg:       cfg,
		logger:    log.With("session", id),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateIdle,
	}
}

// -----------------------------------------------------------------------------

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscription returns the subscribed kinds with their cursors, or false when idle.
func (s *Session) Subscription() (map[string]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil, false
	}
	out := make(map[string]int, len(s.sub.cursors))
	for k, v := range s.sub.cursors {
		out[k] = v
	}
	return out, true
}

// -----------------------------------------------------------------------------
// Inbound messages
// -----------------------------------------------------------------------------

// Handle decodes one inbound message and applies it. Input errors are answered
// with an error envelope and return nil; a non-nil error means the session is
// closed and the connection should be torn down.
func (s *Session) Handle(ctx context.Context, raw []byte) error {
	msg, err := protocol.Decode(raw)
	if err != nil {
		metrics.ControlMessagesTotal.WithLabelValues("invalid").Inc()
		return s.Reject(ctx, err)
	}
	metrics.ControlMessagesTotal.WithLabelValues(msg.Kind.String()).Inc()

	switch msg.Kind {
	case protocol.ControlSubscribe:
		return s.Subscribe(ctx, msg.SeriesTypes)
	case protocol.ControlUnsubscribe:
		return s.Unsubscribe()
	case protocol.ControlAppendData:
		return s.AppendData(ctx, msg.SeriesType, msg.FromIndex)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Reject answers the client with an error envelope without changing state.
func (s *Session) Reject(ctx context.Context, err error) error {
	text, ok := helpers.IsInputError(err)
	if !ok {
		text = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	return s.sendErrorLocked(ctx, text)
}

// -----------------------------------------------------------------------------

// Subscribe retires any running subscription, pushes one full batch for every
// requested kind and starts the periodic refresh task.
func (s *Session) Subscribe(ctx context.Context, seriesTypes []string) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	retired := s.retireLocked()
	err := s.subscribeLocked(ctx, dedupe(seriesTypes))
	s.mu.Unlock()

	retired.wait()
	return err
}

func (s *Session) subscribeLocked(ctx context.Context, seriesTypes []string) error {
	gens := make([]interfaces.ISeriesGenerator, 0, len(seriesTypes))
	for _, name := range seriesTypes {
		gen, ok := s.registry.Resolve(name)
		if !ok {
			s.logger.Info("Rejected subscribe to unknown series type %q", name)
			return s.sendErrorLocked(ctx, helpers.UnknownSeriesType(name).Message)
		}
		gens = append(gens, gen)
	}

	sub := &subscription{
		seriesTypes: seriesTypes,
		gens:        gens,
		cursors:     make(map[string]int, len(gens)),
		done:        make(chan struct{}),
	}

	counts, err := s.pushFullLocked(ctx, sub, "subscribe")
	if errors.Is(err, errEncodeFailed) {
		return nil
	}
	if err != nil {
		return err
	}
	for name, n := range counts {
		sub.cursors[name] = n
	}

	taskCtx, cancel := context.WithCancel(s.ctx)
	sub.cancel = cancel
	s.sub = sub
	s.state = StateActive
	metrics.ActiveSubscriptions.Inc()

	s.runningTasks.Add(1)
	go s.refreshLoop(taskCtx, sub)

	s.logger.Info("Subscribed to %v (refresh every %v)", seriesTypes, s.cfg.RefreshInterval)
	return nil
}

// -----------------------------------------------------------------------------

// Unsubscribe cancels the refresh task and returns to Idle. It is a silent
// no-op when nothing is subscribed.
func (s *Session) Unsubscribe() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	retired := s.retireLocked()
	s.mu.Unlock()

	retired.wait()
	if retired != nil {
		s.logger.Info("Unsubscribed from %v", retired.seriesTypes)
	}
	return nil
}

// -----------------------------------------------------------------------------

// AppendData answers a one-shot incremental request. It does not read or move
// the subscription cursor.
func (s *Session) AppendData(ctx context.Context, seriesType string, fromIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}

	gen, ok := s.registry.Resolve(seriesType)
	if !ok {
		return s.sendErrorLocked(ctx, helpers.UnknownSeriesType(seriesType).Message)
	}

	var commands []models.MDrawCommand
	if cmd, ok := Delta(gen, gen.DefaultSeriesID(), s.data.Snapshot(), fromIndex); ok {
		commands = append(commands, cmd)
	}
	if err := s.pushLocked(ctx, "append", commands); err != nil && !errors.Is(err, errEncodeFailed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close moves the session to Closed from any state and stops the refresh task.
// No output is produced afterwards. The transport is left to its owner.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	retired := s.retireLocked()
	s.state = StateClosed
	s.cancel()
	s.mu.Unlock()

	retired.wait()
	metrics.OnSessionClose()
	s.logger.Debug("Session closed")
}

// -----------------------------------------------------------------------------
// Periodic refresh
// -----------------------------------------------------------------------------

func (s *Session) refreshLoop(ctx context.Context, sub *subscription) {
	defer func() {
		s.runningTasks.Add(-1)
		close(sub.done)
	}()

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.refresh(ctx, sub) {
				return
			}
		}
	}
}

// refresh recomputes every subscribed series from the full current dataset.
// It reports false once the subscription is gone.
func (s *Session) refresh(ctx context.Context, sub *subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// cancelled while waiting for the lock: the subscription was retired
	if ctx.Err() != nil || s.sub != sub {
		return false
	}

	counts, err := s.pushFullLocked(ctx, sub, "refresh")
	if errors.Is(err, errEncodeFailed) {
		return true
	}
	if err != nil {
		return false
	}
	for name, n := range counts {
		sub.cursors[name] = n
	}
	metrics.RefreshTicksTotal.Inc()
	return true
}

// -----------------------------------------------------------------------------
// Locked helpers
// -----------------------------------------------------------------------------

// pushFullLocked renders every series of sub from one snapshot and sends them
// as a single batch, returning the record count sent per kind.
func (s *Session) pushFullLocked(ctx context.Context, sub *subscription, origin string) (map[string]int, error) {
	ds := s.data.Snapshot()

	commands := make([]models.MDrawCommand, 0, len(sub.gens))
	counts := make(map[string]int, len(sub.gens))
	for i, gen := range sub.gens {
		commands = append(commands, generators.Generate(gen, gen.DefaultSeriesID(), ds, 0))
		counts[sub.seriesTypes[i]] = ds.Len(gen.RecordKind())
	}

	if err := s.pushLocked(ctx, origin, commands); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Session) pushLocked(ctx context.Context, origin string, commands []models.MDrawCommand) error {
	payload, err := protocol.EncodeBatch(commands)
	if err != nil {
		s.logger.Error("Failed to encode %s batch: %v", origin, err)
		if err := s.sendErrorLocked(ctx, "Failed to encode draw commands"); err != nil {
			return err
		}
		return errEncodeFailed
	}
	if err := s.sendLocked(ctx, payload); err != nil {
		return err
	}
	metrics.ObserveBatch(origin, len(payload))
	return nil
}

func (s *Session) sendErrorLocked(ctx context.Context, message string) error {
	if err := s.sendLocked(ctx, protocol.EncodeError(message)); err != nil {
		return err
	}
	metrics.ErrorEnvelopesTotal.Inc()
	return nil
}

// sendLocked writes one envelope. A failed write closes the session.
func (s *Session) sendLocked(ctx context.Context, payload []byte) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	if err := s.transport.Send(sendCtx, payload); err != nil {
		metrics.WriteErrorsTotal.Inc()
		s.logger.Warning("Write failed, closing session: %v", err)
		s.failLocked()
		return helpers.NewTransportError("send failed", err)
	}
	return nil
}

// failLocked tears the session down after a transport error. It must not wait
// for the refresh task, which may be the caller.
func (s *Session) failLocked() {
	s.retireLocked()
	if s.state != StateClosed {
		s.state = StateClosed
		s.cancel()
		metrics.OnSessionClose()
	}
	_ = s.transport.Close()
}

// retireLocked cancels the active subscription and returns it so the caller can
// wait for its task after releasing the lock.
func (s *Session) retireLocked() *subscription {
	sub := s.sub
	if sub == nil {
		return nil
	}
	sub.cancel()
	s.sub = nil
	if s.state == StateActive {
		s.state = StateIdle
	}
	metrics.ActiveSubscriptions.Dec()
	return sub
}

// -----------------------------------------------------------------------------

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
