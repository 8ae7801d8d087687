package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// Event is a message pushed to websocket clients when the engine does
// something worth watching.
type Event struct {
	Type           string    `json:"type"` // chat_turn, memory_created
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Content        string    `json:"content,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// wsClient allows both real connections and test doubles in the hub.
type wsClient interface {
	sendChannel() chan []byte
	close()
}

// WebSocketHub fans engine events out to connected clients. It satisfies
// engine.Notifier.
type WebSocketHub struct {
	clients    map[wsClient]bool
	broadcast  chan Event
	register   chan wsClient
	unregister chan wsClient
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWebSocketHub creates a hub. Call Run in a goroutine to start it.
func NewWebSocketHub() *WebSocketHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHub{
		clients:    make(map[wsClient]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan wsClient),
		unregister: make(chan wsClient),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.sendChannel())
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("websocket: failed to marshal event: %v", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.sendChannel() <- data:
				default:
					// Slow client, drop it.
					close(client.sendChannel())
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *WebSocketHub) Stop() {
	h.cancel()
	h.mu.Lock()
	for client := range h.clients {
		close(client.sendChannel())
		client.close()
	}
	h.clients = make(map[wsClient]bool)
	h.mu.Unlock()
}

// Broadcast queues an event for delivery; full queues drop the event.
func (h *WebSocketHub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		log.Println("websocket: broadcast channel full, dropping event")
	}
}

// NotifyChatTurn implements engine.Notifier.
func (h *WebSocketHub) NotifyChatTurn(userID, conversationID string) {
	h.Broadcast(Event{Type: "chat_turn", UserID: userID, ConversationID: conversationID})
}

// NotifyMemoryCreated implements engine.Notifier.
func (h *WebSocketHub) NotifyMemoryCreated(userID, content string) {
	h.Broadcast(Event{Type: "memory_created", UserID: userID, Content: content})
}

// hubConn is a live websocket connection.
type hubConn struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte
}

func (c *hubConn) sendChannel() chan []byte { return c.send }

func (c *hubConn) close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

// ServeHTTP upgrades the request and attaches the client to the hub.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	client := &hubConn{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *hubConn) writePump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			return
		}
	}
}

// readPump drains client messages to detect disconnects.
func (c *hubConn) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			return
		}
	}
}
