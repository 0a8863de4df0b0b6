package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"chart-stream/src/helpers"
	"chart-stream/src/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     allowOrigin(origins),
	}
}

// -----------------------------------------------------------------------------
// WebSocket transport
// -----------------------------------------------------------------------------

// wsTransport adapts a gorilla connection to interfaces.ITransport. gorilla
// allows one concurrent writer, so every write goes through writeMu.
type wsTransport struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn, done: make(chan struct{})}
}

// -----------------------------------------------------------------------------

func (t *wsTransport) Send(ctx context.Context, payload []byte) error {
	return t.write(ctx, websocket.TextMessage, payload)
}

func (t *wsTransport) write(ctx context.Context, messageType int, payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteMessage(messageType, payload)
}

// -----------------------------------------------------------------------------

// Receive returns the next text or binary frame. Deadlines come from the pong
// handler, not from ctx.
func (t *wsTransport) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, message, err := t.conn.ReadMessage()
	return message, err
}

// -----------------------------------------------------------------------------

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

// CloseWithReason sends a close frame before closing.
func (t *wsTransport) CloseWithReason(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	_ = t.write(context.Background(), websocket.CloseMessage, msg)
	_ = t.Close()
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

func (s *ChartServer) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	transport := newWSTransport(conn)
	sess := session.New(s.ctx, uuid.NewString(), transport, s.Registry, s.Data, session.Config{
		RefreshInterval: time.Duration(s.Config.Session.RefreshIntervalSeconds) * time.Second,
		SendTimeout:     time.Duration(s.Config.Session.SendTimeoutSeconds) * time.Second,
	}, s.Logger.Named("session"))

	if !s.hub.Register(sess, transport) {
		sess.Close()
		transport.CloseWithReason("server shutting down")
		return
	}
	s.Logger.Info("Client connected from %s (session %s)", c.ClientIP(), sess.ID)

	go s.pingPump(sess, transport)
	s.readPump(sess, transport)
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (s *ChartServer) readPump(sess *session.Session, t *wsTransport) {
	defer func() {
		s.hub.Unregister(sess)
		sess.Close()
		_ = t.Close()
		s.Logger.Info("Client disconnected (session %s)", sess.ID)
	}()

	t.conn.SetReadLimit(maxMessageSize)
	_ = t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := s.newLimiter()

	for {
		message, err := t.Receive(s.ctx)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Info("WebSocket error: %v", err)
			}
			return
		}

		if limiter != nil && !limiter.Allow() {
			err = sess.Reject(s.ctx, helpers.NewInputError("Rate limit exceeded"))
		} else {
			err = sess.Handle(s.ctx, message)
		}
		if err != nil {
			return
		}
	}
}

func (s *ChartServer) newLimiter() *rate.Limiter {
	perSecond := s.Config.Session.MaxMessagesPerSecond
	if perSecond <= 0 {
		return nil
	}
	burst := s.Config.Session.MessageBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// -----------------------------------------------------------------------------
// pingPump - keeps idle connections alive
// -----------------------------------------------------------------------------

func (s *ChartServer) pingPump(sess *session.Session, t *wsTransport) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if sess.State() == session.StateClosed {
				return
			}
			if err := t.write(context.Background(), websocket.PingMessage, nil); err != nil {
				_ = t.Close()
				return
			}
		}
	}
}

// allowOrigin is the upgrader origin check: any origin when none are
// configured, otherwise an exact match.
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(origins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == origin {
				return true
			}
		}
		return false
	}
}
