// Package ws pushes store change events to connected dashboard pages so
// open tabs stay in sync without polling.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/metrics"
	"github.com/powerflowhq/powerflow/internal/store"
)

const (
	writeWait      = 5 * time.Second
	defaultPingGap = 30 * time.Second
	sendBuffer     = 16
)

// client is one browser connection. All writes, pings included, go through
// the send channel and are performed by a single writePump goroutine;
// gorilla/websocket allows only one concurrent writer per connection.
type client struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

// Hub tracks browser connections and fans out store events to all of them.
type Hub struct {
	logger         *zap.Logger
	upgrader       websocket.Upgrader
	pingInterval   time.Duration
	allowedOrigins map[string]struct{}

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub builds a Hub. A non-positive pingInterval defaults to 30s. Only
// same-host pages and the given origins may open the event feed.
func NewHub(logger *zap.Logger, pingInterval time.Duration, allowedOrigins []string) *Hub {
	if pingInterval <= 0 {
		pingInterval = defaultPingGap
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	h := &Hub{
		logger:         logger,
		pingInterval:   pingInterval,
		allowedOrigins: origins,
		clients:        make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits non-browser clients (no Origin header), same-host
// pages, and the configured origins. Websocket handshakes bypass CORS, so
// the HTTP-layer policy does not cover this path.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.allowedOrigins[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Handler upgrades the request and keeps the connection registered until the
// peer goes away.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		c := &client{
			id:   uuid.NewString(),
			ws:   conn,
			send: make(chan []byte, sendBuffer),
		}
		h.add(c)
		h.logger.Debug("websocket client connected", zap.String("conn_id", c.id))

		go h.writePump(c)
		// Drain inbound frames; the dashboard only listens, but reading is
		// what surfaces close frames and errors.
		go func() {
			defer h.remove(c.id)
			for {
				if _, _, err := c.ws.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// writePump is the sole writer for one connection. It drains the send
// channel and emits pings, and tears the client down on any write failure.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.ws.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c.id)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c.id)
				return
			}
		}
	}
}

// Broadcast serializes the event and enqueues it for every connection.
// Clients whose buffers are full miss the event; the page re-pulls full
// state on the next one, so a dropped frame only delays the refresh.
func (h *Hub) Broadcast(ev store.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal store event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, data)
	}
}

// enqueue hands the frame to the client's writePump. Recover covers a send
// racing the channel close during teardown.
func (h *Hub) enqueue(c *client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Debug("dropped event for closing client", zap.String("conn_id", c.id))
		}
	}()
	select {
	case c.send <- data:
	default:
		h.logger.Debug("client send buffer full, dropping event", zap.String("conn_id", c.id))
	}
}

// Run blocks until ctx is canceled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	metrics.WebsocketClients.Inc()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if ok {
		close(c.send)
		c.ws.Close()
		metrics.WebsocketClients.Dec()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
	}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.send)
		c.ws.Close()
		metrics.WebsocketClients.Dec()
	}
}
