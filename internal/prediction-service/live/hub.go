package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub gerencia conexões WebSocket e assinaturas por confronto
// subs: mapeia fixture ("home:away" ou "*") para o conjunto de conexões inscritas
type Hub struct {
	upgrader     websocket.Upgrader
	log          *zap.Logger
	writeTimeout time.Duration

	mu   sync.RWMutex
	subs map[string]map[*conn]struct{}
}

// conn serializa as escritas: o websocket não aceita writers concorrentes
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// write com prazo: um cliente que não lê não segura o Broadcast dos outros
func (c *conn) write(b []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

const defaultWriteTimeout = 5 * time.Second

// NewHub cria um Hub com política de origem customizada (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader:     websocket.Upgrader{CheckOrigin: allowOrigin},
		log:          log,
		writeTimeout: defaultWriteTimeout,
		subs:         make(map[string]map[*conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Cada cliente pode assinar vários confrontos.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Fixture == "" {
				h.reply(c, map[string]string{"type": "error", "error": "fixture is required"})
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.Fixture]; !ok {
				h.subs[msg.Fixture] = make(map[*conn]struct{})
			}
			h.subs[msg.Fixture][c] = struct{}{}
			h.mu.Unlock()
			h.reply(c, map[string]string{"type": "subscribed", "fixture": msg.Fixture})
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.Fixture]; ok {
				delete(m, c)
				if len(m) == 0 {
					delete(h.subs, msg.Fixture)
				}
			}
			h.mu.Unlock()
		case "ping":
			h.reply(c, map[string]string{"type": "pong"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for fixture, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, fixture)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) reply(c *conn, v any) {
	b, _ := json.Marshal(v)
	_ = c.write(b, h.writeTimeout)
}

// Broadcast envia a atualização para quem assinou o confronto ou "*"
func (h *Hub) Broadcast(u Update) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.subs[u.Fixture])+len(h.subs[AllFixtures]))
	for c := range h.subs[u.Fixture] {
		targets = append(targets, c)
	}
	for c := range h.subs[AllFixtures] {
		if _, dup := h.subs[u.Fixture][c]; !dup {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(u)
	if err != nil {
		h.log.Warn("marshal live update", zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(b, h.writeTimeout); err != nil {
			// fechar derruba o loop de leitura do HandleWS, que remove as assinaturas
			h.log.Debug("dropping live client", zap.Error(err))
			_ = c.ws.Close()
		}
	}
}

// Subscribers conta as conexões inscritas em um confronto
func (h *Hub) Subscribers(fixture string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[fixture])
}
