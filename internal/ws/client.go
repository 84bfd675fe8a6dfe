package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client представляет WebSocket соединение
type Client struct {
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	isClosed bool
	userID   string
	log      *slog.Logger
}

// NewClient создает нового клиента
func NewClient(ctx context.Context, conn *websocket.Conn, log *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		send:   make(chan []byte, maxSendChannelSize),
		log:    log,
	}
}

// Context отменяется при закрытии соединения
func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setUser(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// ReadPump читает сообщения от клиента, пока соединение открыто
func (c *Client) ReadPump(handleIncoming func(*Client, []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
					websocket.CloseAbnormalClosure) {
					c.log.Warn("client read error", "err", err)
				}
				return
			}

			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			handleIncoming(c, data)
		}
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Канал закрыт
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			// Каждое сообщение протокола уходит отдельным фреймом
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// SendJSON отправляет JSON сообщение
func (c *Client) SendJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("client marshal error", "err", err)
		return false
	}

	return c.SendRaw(data)
}

// SendRaw отправляет сырые данные
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		// Перегруз - пропускаем сообщение
		return false
	}
}

// CloseWithCode отправляет close-фрейм с кодом и закрывает соединение
func (c *Client) CloseWithCode(code int, reason string) {
	if c.IsClosed() {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.Close()
}

// Close закрывает соединение
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close()
}

// IsClosed проверяет, закрыто ли соединение
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
