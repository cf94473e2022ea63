// Package rest is the HTTP/JSON boundary: a thin request translator
// over the order service. All validation of untrusted input happens
// here or in the service; nothing malformed reaches the engine.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clob/domain/orderbook"
	"clob/infra/memory"
	"clob/marketdata"
	"clob/service"
)

type Server struct {
	svc        *service.OrderService
	log        *zap.Logger
	depthLimit int
	router     *mux.Router
}

func NewServer(svc *service.OrderService, log *zap.Logger, depthLimit int) *Server {
	s := &Server{svc: svc, log: log, depthLimit: depthLimit}
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/quote", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/api/book", s.handleBook).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/{id}", s.handleModify).Methods(http.MethodPut)
	r.HandleFunc("/api/orders/{id}", s.handleCancel).Methods(http.MethodDelete)
	r.HandleFunc("/api/trades", s.handleTrades).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r
	return s
}

// Router exposes the handler tree so the caller can mount extras (the
// websocket feed) before serving.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// -------------------- DTOs --------------------

type quoteDTO struct {
	BestBid        *int64  `json:"best_bid"`
	BestAsk        *int64  `json:"best_ask"`
	Spread         *int64  `json:"spread"`
	BestBidDisplay *string `json:"best_bid_display,omitempty"`
	BestAskDisplay *string `json:"best_ask_display,omitempty"`
}

type levelDTO struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
	Orders   int    `json:"orders"`
	Display  string `json:"price_display"`
}

type bookDTO struct {
	Bids []levelDTO `json:"bids"`
	Asks []levelDTO `json:"asks"`
}

type orderRequest struct {
	OrderID  *uint64 `json:"order_id"`
	Side     string  `json:"side"` // BUY | SELL
	Price    int64   `json:"price"`
	Quantity uint64  `json:"quantity"`
}

type orderResponse struct {
	OrderID     uint64 `json:"order_id"`
	Status      string `json:"status"`
	TradesCount int    `json:"trades_count"`
	Remaining   uint64 `json:"remaining_quantity"`
}

type tradeDTO struct {
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	Price       int64  `json:"price"`
	Quantity    uint64 `json:"quantity"`
	Timestamp   int64  `json:"timestamp"`
	Display     string `json:"price_display"`
}

type errorDTO struct {
	Error string `json:"error"`
}

// -------------------- Handlers --------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleQuote(w http.ResponseWriter, _ *http.Request) {
	q := s.svc.Quote()
	dto := quoteDTO{}
	if q.HasBid {
		bid := q.Bid
		disp := marketdata.DisplayPrice(bid)
		dto.BestBid, dto.BestBidDisplay = &bid, &disp
	}
	if q.HasAsk {
		ask := q.Ask
		disp := marketdata.DisplayPrice(ask)
		dto.BestAsk, dto.BestAskDisplay = &ask, &disp
	}
	if q.HasBid && q.HasAsk {
		spread := q.Ask - q.Bid
		dto.Spread = &spread
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleBook(w http.ResponseWriter, _ *http.Request) {
	bids, asks := s.svc.BookSnapshot(s.depthLimit)
	writeJSON(w, http.StatusOK, bookDTO{
		Bids: toLevelDTOs(bids),
		Asks: toLevelDTOs(asks),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "malformed request body"})
		return
	}
	side, err := service.ParseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: err.Error()})
		return
	}

	var id uint64
	if req.OrderID != nil {
		id = *req.OrderID
	}
	res, err := s.svc.PlaceOrder(id, side, req.Price, req.Quantity)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:     res.OrderID,
		Status:      res.Status,
		TradesCount: res.TradesCount,
		Remaining:   res.Remaining,
	})
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "malformed request body"})
		return
	}
	side, err := service.ParseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: err.Error()})
		return
	}

	res, found, err := s.svc.Modify(id, side, req.Price, req.Quantity)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorDTO{Error: "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:     res.OrderID,
		Status:      res.Status,
		TradesCount: res.TradesCount,
		Remaining:   res.Remaining,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.svc.Cancel(id) {
		writeJSON(w, http.StatusNotFound, errorDTO{Error: "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   service.StatusCancelled,
		"order_id": id,
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	trades := s.svc.RecentTrades()
	out := make([]tradeDTO, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeDTO{
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Quantity:    t.Qty,
			Timestamp:   t.Timestamp,
			Display:     marketdata.DisplayPrice(t.Price),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

// -------------------- Helpers --------------------

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, memory.ErrPoolExhausted):
		writeJSON(w, http.StatusServiceUnavailable, errorDTO{Error: "order capacity exhausted"})
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrInvalidSide):
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: err.Error()})
	default:
		s.log.Error("order request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorDTO{Error: "internal error"})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid order id"})
		return 0, false
	}
	return id, true
}

func toLevelDTOs(levels []orderbook.DepthLevel) []levelDTO {
	out := make([]levelDTO, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelDTO{
			Price:    l.Price,
			Quantity: l.Qty,
			Orders:   l.Orders,
			Display:  marketdata.DisplayPrice(l.Price),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
