package feed

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"recprefs/internal/settings"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 10 * time.Second
	sendBuffer = 64
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans store changes out to every connected websocket client.
// Clients that fall behind by more than sendBuffer messages are dropped.
type Hub struct {
	store    *settings.Store
	logger   *slog.Logger
	upgrader websocket.Upgrader
	origins  []string

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	sub     *settings.Subscription
}

// NewHub subscribes to the store. allowOrigins lists browser origins allowed to
// connect besides same-origin pages; "*" allows any.
func NewHub(store *settings.Store, logger *slog.Logger, allowOrigins []string) *Hub {
	h := &Hub{
		store:   store,
		logger:  logger,
		origins: allowOrigins,
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	h.sub = store.SubscribeAll(h.broadcast)
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// ServeHTTP upgrades the request and registers the client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if err := h.register(c); err != nil {
		h.logger.Warn("failed to register feed client", "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	h.logger.Debug("feed client connected", "client_id", c.id, "remote", r.RemoteAddr)
	go h.writePump(c)
	go h.readPump(c)
}

// register queues the snapshot and adds c in one step so no change falls between them
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return http.ErrServerClosed
	}
	hello, err := helloMessage(c.id, h.store.Snapshot())
	if err != nil {
		return err
	}
	c.send <- hello
	h.clients[c.id] = c
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
		h.logger.Debug("feed client disconnected", "client_id", c.id)
	}
}

func (h *Hub) broadcast(change settings.Change) {
	msg, err := changedMessage(change)
	if err != nil {
		h.logger.Error("failed to encode change", "name", change.Name, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping slow feed client", "client_id", id)
			delete(h.clients, id)
			close(c.send)
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops following the store and disconnects every client
func (h *Hub) Close() {
	h.sub.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and keeps the read deadline moving on pongs
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
