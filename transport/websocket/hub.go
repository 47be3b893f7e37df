package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrConnectionNotFound = errors.New("connection not found")

// Hub tracks live connections by id and delivers outbound events to them.
// It implements the gateway's Sender.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

// connection serializes writes; gorilla allows only one concurrent writer.
type connection struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (that *connection) write(msg Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*connection),
	}
}

func (that *Hub) Add(connID string, ws *websocket.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.conns[connID] = &connection{ws: ws}
}

func (that *Hub) Remove(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.conns, connID)
}

// Send - delivers one event to one connection.
func (that *Hub) Send(connID, action string, payload any) error {
	that.mu.RLock()
	conn, ok := that.conns[connID]
	that.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, connID)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return conn.write(Message{
		Action:  action,
		Payload: payloadJSON,
	})
}

// Len - returns the number of live connections.
func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.conns)
}
