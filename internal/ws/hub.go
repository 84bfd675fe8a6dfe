package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

// Константы
const (
	writeWait             = 10 * time.Second
	pongWait              = 60 * time.Second
	pingPeriod            = (pongWait * 9) / 10
	maxMessageSize        = 64 * 1024 // 64KB
	maxSendChannelSize    = 256
	defaultInitTimeout    = 10 * time.Second
	defaultMaxConnections = 10
)

// HubOptions опции хаба
type HubOptions struct {
	MaxConnectionsPerUser int
	ConnectionInitTimeout time.Duration
	DisableMetrics        bool
}

// Hub отслеживает все открытые соединения и соединения каждого пользователя
type Hub struct {
	mu      sync.RWMutex
	conns   map[*Client]struct{}
	users   map[string]map[*Client]struct{} // userID -> set of clients
	options HubOptions
	metrics *Metrics
	closed  bool
}

// Metrics метрики
type Metrics struct {
	MessagesSent     atomic.Int64
	MessagesReceived atomic.Int64
	Connections      atomic.Int64
	Errors           atomic.Int64
}

// Stats снимок состояния хаба
type Stats struct {
	ActiveConnections int   `json:"activeConnections"`
	ActiveUsers       int   `json:"activeUsers"`
	TotalConnections  int64 `json:"totalConnections"`
	MessagesSent      int64 `json:"messagesSent"`
	MessagesReceived  int64 `json:"messagesReceived"`
	Errors            int64 `json:"errors"`
}

// NewHub создает новый хаб
func NewHub(options ...HubOptions) *Hub {
	opts := HubOptions{
		MaxConnectionsPerUser: defaultMaxConnections,
		ConnectionInitTimeout: defaultInitTimeout,
	}

	if len(options) > 0 {
		opts = options[0]
		if opts.MaxConnectionsPerUser <= 0 {
			opts.MaxConnectionsPerUser = defaultMaxConnections
		}
		if opts.ConnectionInitTimeout <= 0 {
			opts.ConnectionInitTimeout = defaultInitTimeout
		}
	}

	hub := &Hub{
		conns:   make(map[*Client]struct{}),
		users:   make(map[string]map[*Client]struct{}),
		options: opts,
	}

	if !opts.DisableMetrics {
		hub.metrics = &Metrics{}
	}

	return hub
}

// Track регистрирует новое соединение до аутентификации
func (h *Hub) Track(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}

	if h.metrics != nil {
		h.metrics.Connections.Inc()
	}
	return true
}

// Bind привязывает соединение к пользователю. Возвращает false, если
// превышен лимит соединений на пользователя.
func (h *Hub) Bind(c *Client, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, exists := h.users[userID]
	if !exists {
		set = make(map[*Client]struct{})
		h.users[userID] = set
	}

	if _, ok := set[c]; ok {
		return true
	}
	if len(set) >= h.options.MaxConnectionsPerUser {
		return false
	}

	set[c] = struct{}{}
	c.setUser(userID)
	return true
}

// Unregister удаляет соединение из хаба
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c)
	if userID := c.User(); userID != "" {
		if set, exists := h.users[userID]; exists {
			delete(set, c)
			if len(set) == 0 {
				delete(h.users, userID)
			}
		}
	}
}

// UserConnections количество соединений пользователя
func (h *Hub) UserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Stats возвращает статистику хаба
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{
		ActiveConnections: len(h.conns),
		ActiveUsers:       len(h.users),
	}
	if h.metrics != nil {
		stats.TotalConnections = h.metrics.Connections.Load()
		stats.MessagesSent = h.metrics.MessagesSent.Load()
		stats.MessagesReceived = h.metrics.MessagesReceived.Load()
		stats.Errors = h.metrics.Errors.Load()
	}
	return stats
}

func (h *Hub) countSent() {
	if h.metrics != nil {
		h.metrics.MessagesSent.Inc()
	}
}

func (h *Hub) countReceived() {
	if h.metrics != nil {
		h.metrics.MessagesReceived.Inc()
	}
}

func (h *Hub) countError() {
	if h.metrics != nil {
		h.metrics.Errors.Inc()
	}
}

// Shutdown закрывает все соединения
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.conns = make(map[*Client]struct{})
	h.users = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.CloseWithCode(websocket.CloseGoingAway, "server shutting down")
	}
}
