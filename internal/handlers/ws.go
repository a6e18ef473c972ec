package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/milestone-tracker/internal/metrics"
	"github.com/chepyr/milestone-tracker/internal/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many events may queue for one subscriber before it
	// is dropped.
	sendBuffer = 32
)

// subscriber is one feed connection. Its writer goroutine owns all writes to
// conn; the hub only queues messages on send.
type subscriber struct {
	key  string
	conn *websocket.Conn
	send chan []byte
}

func (s *subscriber) writeLoop(logger *zap.Logger) {
	defer s.conn.Close()
	for message := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("failed to send change event", zap.String("task_id", s.key), zap.Error(err))
			return
		}
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// WSHub fans change events out to WebSocket subscribers. Subscribers are
// keyed by task id; the empty key receives every event.
type WSHub struct {
	connections map[string]map[*subscriber]bool
	mutex       sync.Mutex
	logger      *zap.Logger
}

func NewWSHub(logger *zap.Logger) *WSHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHub{
		connections: make(map[string]map[*subscriber]bool),
		logger:      logger,
	}
}

// Notify implements service.Notifier. It never waits on a connection: a
// subscriber whose queue is full is dropped.
func (h *WSHub) Notify(event service.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal change event", zap.Error(err))
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.broadcast("", message)
	if event.TaskID != "" {
		h.broadcast(event.TaskID, message)
	}
}

// broadcast must be called with the mutex held.
func (h *WSHub) broadcast(key string, message []byte) {
	for s := range h.connections[key] {
		select {
		case s.send <- message:
		default:
			h.logger.Warn("dropping slow change-feed subscriber", zap.String("task_id", key))
			h.removeLocked(s)
		}
	}
}

// add registers conn under key and starts its writer.
func (h *WSHub) add(key string, conn *websocket.Conn) *subscriber {
	s := &subscriber{key: key, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(s)
	go s.writeLoop(h.logger)
	return s
}

func (h *WSHub) register(s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[s.key] == nil {
		h.connections[s.key] = make(map[*subscriber]bool)
	}
	h.connections[s.key][s] = true
	metrics.FeedConnections.Inc()
}

func (h *WSHub) remove(s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(s)
}

// removeLocked unregisters s and closes its queue, which ends the writer.
func (h *WSHub) removeLocked(s *subscriber) {
	subs, ok := h.connections[s.key]
	if !ok || !subs[s] {
		return
	}
	delete(subs, s)
	if len(subs) == 0 {
		delete(h.connections, s.key)
	}
	close(s.send)
	metrics.FeedConnections.Dec()
}

// Subscribers reports how many connections listen on key.
func (h *WSHub) Subscribers(key string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[key])
}

// HandleWebSocket serves GET /ws[?task_id=ID].
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP(r)) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	taskID := r.URL.Query().Get("task_id")
	if taskID != "" {
		ctx, cancel := h.requestContext(r)
		_, err := h.Service.GetTask(ctx, taskID)
		cancel()
		if err != nil {
			h.sendServiceError(w, err, http.StatusInternalServerError, "Failed to fetch task", "Task not found")
			return
		}
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.Logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.WSHub.add(taskID, conn)
	defer func() {
		h.WSHub.remove(sub)
		conn.Close()
	}()

	// incoming messages are ignored; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.Logger.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}
	}
}

// checkOrigin allows any origin when no list is configured.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// clientIP is the peer address of the connection. X-Forwarded-For is not
// consulted since any caller can set it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
