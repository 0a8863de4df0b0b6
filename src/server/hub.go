package server

import (
	"sync"

	"chart-stream/src/logger"
	"chart-stream/src/session"
)

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

// Hub tracks live sessions. Sessions never share state; the hub only exists
// so shutdown can reach every one of them.
type Hub struct {
	Logger   *logger.Logger
	mu       sync.Mutex
	sessions map[*session.Session]*wsTransport
	closed   bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Logger:   log,
		sessions: make(map[*session.Session]*wsTransport),
	}
}

// -----------------------------------------------------------------------------

// Register adds a session. It reports false once the hub is shutting down.
func (h *Hub) Register(s *session.Session, t *wsTransport) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = t
	return true
}

func (h *Hub) Unregister(s *session.Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// -----------------------------------------------------------------------------

// CloseAll closes every session and its connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	live := h.sessions
	h.sessions = make(map[*session.Session]*wsTransport)
	h.mu.Unlock()

	for s, t := range live {
		s.Close()
		t.CloseWithReason("server shutting down")
	}
	if len(live) > 0 {
		h.Logger.Info("Closed %d session(s)", len(live))
	}
}
