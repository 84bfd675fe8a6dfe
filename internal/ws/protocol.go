package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"tush00nka/filehub/internal/graph"
	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pkg/auth"
)

const Subprotocol = "graphql-transport-ws"

// Типы сообщений graphql-transport-ws
const (
	MsgConnectionInit = "connection_init"
	MsgConnectionAck  = "connection_ack"
	MsgPing           = "ping"
	MsgPong           = "pong"
	MsgSubscribe      = "subscribe"
	MsgNext           = "next"
	MsgError          = "error"
	MsgComplete       = "complete"
)

// Коды закрытия
const (
	CloseBadRequest          = 4400
	CloseUnauthorized        = 4401
	CloseInitTimeout         = 4408
	CloseSubscriberExists    = 4409
	CloseTooManyInitRequests = 4429
)

type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type Executor interface {
	Subscribe(ctx context.Context, req graph.Request) (<-chan *graphql.Result, []gqlerrors.FormattedError)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Server обслуживает подписки GraphQL поверх WebSocket
type Server struct {
	hub      *Hub
	exec     Executor
	auth     Authenticator
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewServer(hub *Hub, exec Executor, authenticator Authenticator, upgrader websocket.Upgrader, log *slog.Logger) *Server {
	return &Server{hub: hub, exec: exec, auth: authenticator, upgrader: upgrader, log: log}
}

// session состояние одного соединения
type session struct {
	srv    *Server
	client *Client

	mu     sync.Mutex
	inited bool
	acked  bool
	token  string
	subs   map[string]context.CancelFunc
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(context.WithoutCancel(r.Context()), conn, s.log)
	if conn.Subprotocol() != Subprotocol {
		client.CloseWithCode(websocket.CloseProtocolError, "Subprotocol not acceptable")
		return
	}
	if !s.hub.Track(client) {
		client.CloseWithCode(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.hub.Unregister(client)

	sess := &session{srv: s, client: client, subs: make(map[string]context.CancelFunc)}

	go func() {
		if err := client.WritePump(); err != nil {
			s.log.Debug("write pump stopped", "err", err)
		}
	}()

	timer := time.AfterFunc(s.hub.options.ConnectionInitTimeout, func() {
		if !sess.isAcked() {
			client.CloseWithCode(CloseInitTimeout, "Connection initialisation timeout")
		}
	})
	defer timer.Stop()

	client.ReadPump(sess.handle)
	sess.cancelAll()
}

func (sess *session) isAcked() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.acked
}

func (sess *session) fail(code int, reason string) {
	sess.srv.hub.countError()
	sess.client.CloseWithCode(code, reason)
}

func (sess *session) send(msg outMessage) {
	if sess.client.SendJSON(msg) {
		sess.srv.hub.countSent()
	}
}

func (sess *session) handle(c *Client, data []byte) {
	sess.srv.hub.countReceived()

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		sess.fail(CloseBadRequest, "Invalid message received")
		return
	}

	switch msg.Type {
	case MsgConnectionInit:
		sess.onInit(msg)
	case MsgPing:
		sess.send(outMessage{Type: MsgPong, Payload: msg.Payload})
	case MsgPong:
	case MsgSubscribe:
		sess.onSubscribe(msg)
	case MsgComplete:
		sess.onComplete(msg)
	default:
		sess.fail(CloseBadRequest, fmt.Sprintf("Invalid message type %q", msg.Type))
	}
}

func (sess *session) onInit(msg Message) {
	sess.mu.Lock()
	if sess.inited {
		sess.mu.Unlock()
		sess.fail(CloseTooManyInitRequests, "Too many initialisation requests")
		return
	}
	sess.inited = true
	sess.mu.Unlock()

	var params map[string]any
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, &params); err != nil {
			sess.fail(CloseBadRequest, "Invalid connection_init payload")
			return
		}
	}
	token := auth.BearerToken(connectionToken(params))

	// Токен необязателен: без него доступны только публичные операции
	if token != "" {
		user, err := sess.srv.auth.Authenticate(sess.client.Context(), token)
		if err == nil && !sess.srv.hub.Bind(sess.client, user.ID) {
			sess.fail(CloseTooManyInitRequests, "Too many connections")
			return
		}
	}

	sess.mu.Lock()
	sess.token = token
	sess.acked = true
	sess.mu.Unlock()

	sess.send(outMessage{Type: MsgConnectionAck})
}

func connectionToken(params map[string]any) string {
	for _, key := range []string{"Authorization", "authorization"} {
		if v, ok := params[key].(string); ok && v != "" {
			return v
		}
	}
	// Apollo-клиенты иногда кладут заголовки в headers
	if headers, ok := params["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok && strings.EqualFold(k, "authorization") {
				return s
			}
		}
	}
	return ""
}

func (sess *session) onSubscribe(msg Message) {
	sess.mu.Lock()
	if !sess.acked {
		sess.mu.Unlock()
		sess.fail(CloseUnauthorized, "Unauthorized")
		return
	}
	if msg.ID == "" {
		sess.mu.Unlock()
		sess.fail(CloseBadRequest, "Subscribe message requires an id")
		return
	}
	if _, exists := sess.subs[msg.ID]; exists {
		sess.mu.Unlock()
		sess.fail(CloseSubscriberExists, fmt.Sprintf("Subscriber for %s already exists", msg.ID))
		return
	}

	var req graph.Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Query == "" {
		sess.mu.Unlock()
		sess.fail(CloseBadRequest, "Invalid subscribe payload")
		return
	}

	ctx, cancel := context.WithCancel(graph.WithToken(sess.client.Context(), sess.token))
	sess.subs[msg.ID] = cancel
	sess.mu.Unlock()

	results, errs := sess.srv.exec.Subscribe(ctx, req)
	if errs != nil {
		sess.release(msg.ID)
		sess.send(outMessage{ID: msg.ID, Type: MsgError, Payload: errs})
		return
	}

	go func() {
		for res := range results {
			sess.send(outMessage{ID: msg.ID, Type: MsgNext, Payload: res})
		}
		// Клиент сам прислал complete: повторно не отвечаем
		if sess.release(msg.ID) {
			sess.send(outMessage{ID: msg.ID, Type: MsgComplete})
		}
	}()
}

func (sess *session) onComplete(msg Message) {
	sess.release(msg.ID)
}

// release cancels a subscription and reports whether it was still active.
func (sess *session) release(id string) bool {
	sess.mu.Lock()
	cancel, ok := sess.subs[id]
	delete(sess.subs, id)
	sess.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

func (sess *session) cancelAll() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for id, cancel := range sess.subs {
		cancel()
		delete(sess.subs, id)
	}
}
