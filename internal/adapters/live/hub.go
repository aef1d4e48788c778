// Package live pushes leaderboard updates to websocket subscribers of a
// project.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/kickscore/pkg/logger"
	"github.com/okian/kickscore/pkg/metrics"
)

const broadcastBuffer = 256

// Hub tracks live clients per project and fans messages out to them.
type Hub struct {
	logger   logger.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}

	mu       sync.RWMutex
	projects map[string]map[*Client]struct{}
	ctx      context.Context
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithAllowedOrigins restricts which browser origins may connect. An empty
// list or "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			if o == "*" {
				return
			}
			allowed[o] = struct{}{}
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		logger: logger.Nop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now:        time.Now,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastBuffer),
		done:       make(chan struct{}),
		projects:   make(map[string]map[*Client]struct{}),
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Publish queues msg for every client of msg.ProjectID. It never blocks; a
// full buffer drops the message.
func (h *Hub) Publish(projectID, msgType string, payload any) {
	msg := Message{Type: msgType, ProjectID: projectID, Payload: payload, Timestamp: h.now().UTC()}
	select {
	case h.broadcast <- msg:
	default:
		metrics.RecordLiveMessage("dropped")
		h.logger.Warn(h.context(), "live broadcast buffer full, dropping update", logger.String("project_id", projectID))
	}
}

// Clients returns the number of connected clients of projectID.
func (h *Hub) Clients(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}

// Total returns the number of connected clients.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, cs := range h.projects {
		n += len(cs)
	}
	return n
}

// ServeWS upgrades the request and subscribes the connection to projectID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, projectID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := newClient(uuid.NewString(), projectID, conn, h)
	ctx := h.context()
	if !h.join(c) {
		_ = conn.Close()
		return
	}
	go c.writePump(ctx)
	go c.readPump(ctx)
}

// join queues the hello and hands c to the hub loop. It reports false when
// the hub has stopped. Once registered, c.send belongs to the hub loop, which
// may close it at any time.
func (h *Hub) join(c *Client) bool {
	c.trySend(Message{Type: TypeHello, ProjectID: c.ProjectID, Payload: map[string]string{"client_id": c.ID}, Timestamp: h.now().UTC()})
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) context() context.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	cs, ok := h.projects[c.ProjectID]
	if !ok {
		cs = make(map[*Client]struct{})
		h.projects[c.ProjectID] = cs
	}
	cs[c] = struct{}{}
	h.mu.Unlock()

	metrics.UpdateLiveClients(h.Total())
	h.logger.Debug(h.context(), "live client connected", logger.String("client_id", c.ID), logger.String("project_id", c.ProjectID))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	cs := h.projects[c.ProjectID]
	if _, ok := cs[c]; ok {
		delete(cs, c)
		close(c.send)
		if len(cs) == 0 {
			delete(h.projects, c.ProjectID)
		}
	}
	h.mu.Unlock()

	metrics.UpdateLiveClients(h.Total())
}

func (h *Hub) fanOut(msg Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.projects[msg.ProjectID]))
	for c := range h.projects[msg.ProjectID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.trySend(msg) {
			metrics.RecordLiveMessage("sent")
			continue
		}
		metrics.RecordLiveMessage("dropped")
		h.logger.Warn(h.context(), "live client too slow, disconnecting", logger.String("client_id", c.ID))
		h.remove(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for id, cs := range h.projects {
		for c := range cs {
			close(c.send)
		}
		delete(h.projects, id)
	}
	h.mu.Unlock()
	metrics.UpdateLiveClients(0)
}
