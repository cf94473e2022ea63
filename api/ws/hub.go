// Package ws streams market data to websocket subscribers. The hub is
// a market-data sink: engine callbacks marshal once and enqueue; a
// single goroutine fans the frame out to every connection. Slow
// clients are disconnected rather than allowed to stall the feed.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clob/domain/orderbook"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type frame struct {
	Type string `json:"type"` // trade | quote | depth
	Data any    `json:"data"`
}

type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	broadcast chan []byte
}

func NewHub(log *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		log:       log,
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan []byte, buffer),
	}
}

// Run fans queued frames out until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeHTTP upgrades the connection and registers it for the feed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("ws client connected", zap.Int("clients", n))

	// Drain (and discard) client frames so pings and closes are
	// processed; the feed is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// ---------------- market-data sink ----------------

func (h *Hub) OnTrade(t orderbook.Trade) {
	h.enqueue(frame{Type: "trade", Data: t})
}

func (h *Hub) OnQuote(q orderbook.Quote) {
	data := map[string]*int64{}
	if q.HasBid {
		bid := q.Bid
		data["best_bid"] = &bid
	} else {
		data["best_bid"] = nil
	}
	if q.HasAsk {
		ask := q.Ask
		data["best_ask"] = &ask
	} else {
		data["best_ask"] = nil
	}
	h.enqueue(frame{Type: "quote", Data: data})
}

func (h *Hub) OnDepth(side orderbook.Side, levels []orderbook.DepthLevel) {
	h.enqueue(frame{Type: "depth", Data: map[string]any{
		"side":   side.String(),
		"levels": levels,
	}})
}

func (h *Hub) enqueue(f frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		// feed is lossy; durable history lives in the outbox
	}
}
