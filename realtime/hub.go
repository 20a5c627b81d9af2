package realtime

import (
	"context"
	"sync"
	"time"

	"agrirent-booking/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Client is one WebSocket connection joined to a single room.
type Client struct {
	room string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks WebSocket connections by room and fans Redis pub/sub messages
// out to them. A slow client is dropped rather than buffered indefinitely.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Join registers a client in a room.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

// Leave removes a client; the room is dropped when empty.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
}

// RoomSize returns the number of clients currently joined to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast delivers a raw message to every client in a room. At-most-once:
// a client with a full send buffer misses the message.
func (h *Hub) Broadcast(room string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- message:
		default:
			// Slow consumer; it will reconcile over REST
		}
	}
}

// SubscribeLoop bridges Redis pub/sub into hub rooms. Run as a goroutine;
// returns when ctx is cancelled.
func (h *Hub) SubscribeLoop(ctx context.Context, client *redis.Client) {
	pubsub := client.PSubscribe(ctx, "booking:*", "owner:*")
	defer pubsub.Close()

	logger.Info("Realtime hub subscribed to booking event channels")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				logger.Warning("Realtime pub/sub channel closed")
				return
			}
			h.Broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}

// ServeClient joins the connection to a room and pumps messages until the
// peer disconnects. Blocks; call from the websocket handler.
func (h *Hub) ServeClient(room string, conn *websocket.Conn) {
	client := &Client{
		room: room,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.Join(room, client)
	defer func() {
		h.Leave(client)
		conn.Close()
	}()

	done := make(chan struct{})
	go client.writePump(done)
	client.readPump()
	close(done)
}

// readPump discards inbound frames (the protocol is server-to-client only)
// and keeps the read deadline fresh via pong handling.
func (c *Client) readPump() {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
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
