// Package websocket wraps gorilla/websocket connections used for streaming
// comparison results.
package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

// Upgrader accepts connections from the allowed origins only. Requests
// without an Origin header (non-browser clients) are accepted.
type Upgrader struct {
	upgrader websocket.Upgrader
}

func NewUpgrader(allowedOrigins []string) *Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	return &Upgrader{upgrader: websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || wildcard || allowed[origin]
		},
	}}
}

// Upgrade switches the request to a WebSocket session. On failure the
// upgrader has already written an HTTP error.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Session, error) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)
	return &Session{conn: conn}, nil
}

// Session serializes writes so results produced by concurrent workers can be
// pushed on one connection.
type Session struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// ReadJSON reads one message, waiting at most timeout.
func (s *Session) ReadJSON(v interface{}, timeout time.Duration) error {
	s.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Session) Send(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// Close sends a normal close frame and releases the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
