package control

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client represents one WebSocket subscriber to the event stream.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains active WebSocket connections and fans engine/mapper events
// out to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("control client %s connected", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("control client %s disconnected", client.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop terminates the main loop and disconnects every subscriber. Safe to
// call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Broadcast marshals v and queues it to every subscriber. Slow subscribers
// are dropped rather than allowed to stall the sensor loop.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Queue full; drop event
	}
}

// HandleConnection services one WebSocket connection until it closes.
func (h *Hub) HandleConnection(c *websocket.Conn) {
	client := &Client{
		ID:   uuid.NewString(),
		Conn: c,
		Send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.quit:
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.quit:
		}
	}()

	// Writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: clients only send keep-alives.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}
	}
}
