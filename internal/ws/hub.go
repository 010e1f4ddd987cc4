package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go-inventory-ledger/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Event is the JSON frame pushed to every connected client after a ledger commit
type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data"`
	User    interface{} `json:"user,omitempty"`
	Message string      `json:"message"`
}

// Publisher is what services need from the hub
type Publisher interface {
	Publish(event Event)
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Join registers a connection. It reports false once the hub has stopped.
func (h *Hub) Join(conn *websocket.Conn) bool {
	select {
	case h.Register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters a connection; after the hub has stopped it returns immediately
func (h *Hub) Leave(conn *websocket.Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// Done is closed when Run returns
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish encodes the event and queues it; it drops the event rather than block a request
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.Get().Error("encode ws event", zap.String("action", event.Action), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		logger.Get().Warn("ws broadcast queue full, dropping event", zap.String("action", event.Action))
	}
}

// ClientCount reports the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	log := logger.Get()
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Debug("ws client connected", zap.Int("clients", h.ClientCount()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
