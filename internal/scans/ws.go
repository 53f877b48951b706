package scans

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vamp-agent/vamp/pkg/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement belongs to the CORS middleware ahead of the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSubscriber adapts a WebSocket connection to the broadcast Subscriber
// contract. Writes are serialized because progress events and pong replies
// arrive from different goroutines.
type wsSubscriber struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *slog.Logger
}

func newWSSubscriber(conn *websocket.Conn, logger *slog.Logger) *wsSubscriber {
	return &wsSubscriber{
		conn:   conn,
		logger: logger,
	}
}

// Send writes the message as one JSON frame. An error marks the connection
// dead; the broadcast channel drops the subscriber in response.
func (s *wsSubscriber) Send(msg broadcast.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// readLoop consumes client frames until the connection closes, answering
// "ping" text frames with "pong". Returning signals disconnect.
func (s *wsSubscriber) readLoop() {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		if kind == websocket.TextMessage && string(data) == "ping" {
			s.mu.Lock()
			err = s.conn.WriteMessage(websocket.TextMessage, []byte("pong"))
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
