package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/verification"
)

// Hub manages WebSocket connections keyed by user and pushes messages to
// them. It implements verification.Notifier.
type Hub struct {
	connections map[uuid.UUID][]*connection
	mu          sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	closed      bool
}

type connection struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan Message
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*connection),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket connection for
// the given user and starts its pumps.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{
		userID: userID,
		conn:   ws,
		send:   make(chan Message, 64),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.Close()
		return nil
	}
	h.connections[userID] = append(h.connections[userID], c)
	h.mu.Unlock()

	h.logger.Debug("websocket connected", zap.String("user_id", userID.String()))

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump drains client frames so pong handlers run, and tears the
// connection down when the client goes away.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[c.userID]
	for i, existing := range conns {
		if existing == c {
			h.connections[c.userID] = append(conns[:i], conns[i+1:]...)
			close(c.send)
			break
		}
	}
	if len(h.connections[c.userID]) == 0 {
		delete(h.connections, c.userID)
	}
}

// SendToUser delivers a message to every live connection of a user.
// Messages to users without a connection are dropped.
func (h *Hub) SendToUser(userID uuid.UUID, message Message) {
	message.Timestamp = time.Now()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[userID] {
		select {
		case c.send <- message:
		default:
			// Slow consumer, drop rather than block the sender
		}
	}
}

// VerificationProgress implements verification.Notifier
func (h *Hub) VerificationProgress(userID uuid.UUID, percent int64) {
	h.SendToUser(userID, Message{
		Type: TypeVerificationProgress,
		Data: map[string]interface{}{"percent": percent},
	})
}

// VerificationCompleted implements verification.Notifier
func (h *Hub) VerificationCompleted(userID uuid.UUID, result *verification.Result) {
	h.SendToUser(userID, Message{
		Type: TypeVerificationCompleted,
		Data: map[string]interface{}{
			"verification_id": result.VerificationID,
			"status":          result.Status,
			"risk_level":      result.RiskAssessment.RiskLevel,
			"score":           result.RiskAssessment.TotalScore,
		},
	})
}

// ListingStatusChanged pushes a listing moderation update to its agent.
func (h *Hub) ListingStatusChanged(agentID uuid.UUID, listingID uuid.UUID, status, reason string) {
	data := map[string]interface{}{
		"listing_id": listingID.String(),
		"status":     status,
	}
	if reason != "" {
		data["reason"] = reason
	}
	h.SendToUser(agentID, Message{Type: TypeListingStatus, Data: data})
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.connections {
		count += len(conns)
	}
	return count
}

// Close tears down all connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
			close(c.send)
		}
		delete(h.connections, userID)
	}
}
