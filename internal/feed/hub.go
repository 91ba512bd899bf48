// Package feed streams registry events to websocket clients.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var ErrBroadcastFull = errors.New("feed: broadcast channel full, message dropped")

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EventData struct {
	Index      uint64            `json:"index"`
	Actor      string            `json:"actor"`
	Attributes map[string]string `json:"attributes"`
}

type client struct {
	conn        *websocket.Conn
	send        chan []byte
	clientID    string
	connectedAt time.Time
}

// Hub owns every websocket connection; Run must be running for clients to
// register and receive broadcasts.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}
	mu         sync.RWMutex

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()

			logger.Info("feed: client connected", zap.String("client id", c.clientID), zap.Int("total clients", total))

			if data, err := helloMessage(c.clientID); err == nil {
				select {
				case c.send <- data:
				default:
				}
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				logger.Info("feed: client disconnected", zap.String("client id", c.clientID), zap.Int("remaining clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				logger.Error("feed: failed to marshal message", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// slow consumer
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

func helloMessage(clientID string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"clientId": clientID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: "connected", Data: payload})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleEvent queues a registry event for broadcast without blocking.
func (h *Hub) HandleEvent(_ context.Context, event raffle.Event) error {
	header := event.EventHeader()
	data, err := json.Marshal(EventData{
		Index:      header.Index,
		Actor:      header.Actor.ToRaw(),
		Attributes: event.Attributes(),
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- Message{Type: event.EventName(), Data: data}:
		return nil
	default:
		return ErrBroadcastFull
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("feed: failed to upgrade connection", zap.Error(err))
		return
	}

	c := &client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		clientID:    clientID,
		connectedAt: time.Now(),
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("feed: read error", zap.String("client id", c.clientID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
