package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client merepresentasikan satu koneksi WebSocket dari halaman pairing.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Goroutine write membaca dari sini dan mengirim ke conn.
	send chan WsEvent
}

// Hub menyimpan semua client aktif dan menangani broadcast event.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan WsEvent
	dropAll    chan struct{}
	done       chan struct{}

	mu  sync.RWMutex
	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan WsEvent, 256),
		dropAll:    make(chan struct{}),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws").Logger(),
	}
}

// Run harus dijalankan di goroutine terpisah dan berhenti saat ctx selesai.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case <-h.dropAll:
			h.closeClients()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// buffer penuh, anggap client bermasalah dan putuskan
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register returns false when the hub is no longer running.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// DropAll disconnects every client. Used when the pairing server goes down
// with its session; hijacked websocket connections survive http.Server
// shutdown otherwise.
func (h *Hub) DropAll() {
	select {
	case h.dropAll <- struct{}{}:
	case <-h.done:
	}
}

// Publish mengimplementasikan RealtimePublisher. Never blocks: when the
// broadcast buffer is full the event is dropped.
func (h *Hub) Publish(event WsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case h.broadcast <- event:
	default:
		h.log.Warn().Str("event", event.Event).Msg("ws: broadcast buffer full, dropping event")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// RealtimePublisher dipegang oleh komponen lain agar tidak tergantung
// langsung ke Hub.
type RealtimePublisher interface {
	Publish(event WsEvent)
}

// NewClient membuat objek Client baru dari koneksi Gorilla WebSocket.
// Fungsi ini tidak menjalankan goroutine read/write; itu tugas handler WS.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan WsEvent, 16),
	}
}

// WritePump mengirim event dari channel send ke koneksi WS sampai channel
// ditutup oleh hub.
func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for event := range c.send {
		payload, err := json.Marshal(event)
		if err != nil {
			c.hub.log.Error().Err(err).Msg("ws: failed to marshal event")
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.hub.log.Debug().Err(err).Msg("ws: failed to write message")
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// ReadPump hanya consume dan buang pesan dari client, supaya close frame
// dan pong tetap diproses.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(15 * time.Minute))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(15 * time.Minute))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
