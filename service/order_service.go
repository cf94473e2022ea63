// Package service is the write entry point into the engine: it
// validates submissions at the boundary, assigns IDs when the client
// omits one, and fans executed trades out to the recent-trade ring and
// the durable outbox.
package service

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"clob/domain/orderbook"
	"clob/infra/memory"
	"clob/infra/sequence"
	"clob/outbox"
)

var (
	ErrInvalidSide     = errors.New("service: side must be BUY or SELL")
	ErrInvalidQuantity = errors.New("service: quantity must be positive")
)

// Order placement outcomes.
const (
	StatusAccepted  = "ACCEPTED"
	StatusMatched   = "MATCHED"
	StatusCancelled = "CANCELLED"
)

// ParseSide maps the external side tokens onto book sides.
func ParseSide(s string) (orderbook.Side, error) {
	switch strings.ToUpper(s) {
	case "BUY", "BID", "B":
		return orderbook.Bid, nil
	case "SELL", "ASK", "S":
		return orderbook.Ask, nil
	default:
		return 0, ErrInvalidSide
	}
}

// PlaceResult reports what happened to a submission.
type PlaceResult struct {
	OrderID     uint64
	Status      string
	TradesCount int
	Remaining   uint64
	Trades      []orderbook.Trade
}

// Stats is a point-in-time diagnostic snapshot.
type Stats struct {
	PoolCapacity  int `json:"pool_capacity"`
	PoolAvailable int `json:"pool_available"`
	PoolInUse     int `json:"pool_in_use"`
	ActiveOrders  int `json:"active_orders"`
	BidLevels     int `json:"bid_levels"`
	AskLevels     int `json:"ask_levels"`
	RecentTrades  int `json:"recent_trades"`
}

type OrderService struct {
	engine  *orderbook.Engine
	ids     *sequence.Sequencer
	outSeq  *sequence.Sequencer
	trades  *memory.Ring[orderbook.Trade]
	ledger  *outbox.Ledger // nil disables the outbox
	log     *zap.Logger
	metrics *Metrics
}

func NewOrderService(
	engine *orderbook.Engine,
	ids *sequence.Sequencer,
	recentTrades int,
	ledger *outbox.Ledger,
	log *zap.Logger,
	metrics *Metrics,
) *OrderService {
	if recentTrades <= 0 {
		recentTrades = 128
	}
	return &OrderService{
		engine:  engine,
		ids:     ids,
		outSeq:  sequence.New(0),
		trades:  memory.NewRing[orderbook.Trade](recentTrades),
		ledger:  ledger,
		log:     log,
		metrics: metrics,
	}
}

// PlaceOrder validates and submits one limit order. orderID 0 means
// "assign one". The returned trades are committed facts even when err
// is non-nil further up the stack.
func (s *OrderService) PlaceOrder(orderID uint64, side orderbook.Side, price int64, qty uint64) (PlaceResult, error) {
	if qty == 0 {
		return PlaceResult{}, ErrInvalidQuantity
	}
	if orderID == 0 {
		orderID = s.ids.Next()
	}

	trades, err := s.engine.ProcessOrder(orderID, side, price, qty)
	if err != nil {
		s.metrics.OrderRejected(side)
		return PlaceResult{}, err
	}

	s.recordTrades(trades)
	res := PlaceResult{
		OrderID:     orderID,
		Status:      StatusAccepted,
		TradesCount: len(trades),
		Remaining:   qty,
		Trades:      trades,
	}
	for _, t := range trades {
		res.Remaining -= t.Qty
	}
	if len(trades) > 0 {
		res.Status = StatusMatched
	}
	s.metrics.OrderPlaced(side, res.Status)
	return res, nil
}

// Cancel removes a resting order. False when unknown, already filled,
// or already cancelled.
func (s *OrderService) Cancel(orderID uint64) bool {
	ok := s.engine.CancelOrder(orderID)
	s.metrics.OrderCancelled(ok)
	return ok
}

// Modify re-prices or re-sizes a resting order: cancel plus resubmit
// under the same id, losing time priority. found is false when there
// was nothing to modify.
func (s *OrderService) Modify(orderID uint64, side orderbook.Side, price int64, qty uint64) (PlaceResult, bool, error) {
	if qty == 0 {
		return PlaceResult{}, false, ErrInvalidQuantity
	}
	trades, found, err := s.engine.ModifyOrder(orderID, side, price, qty)
	if !found {
		return PlaceResult{}, false, nil
	}
	if err != nil {
		s.metrics.OrderRejected(side)
		return PlaceResult{}, true, err
	}

	s.recordTrades(trades)
	res := PlaceResult{
		OrderID:     orderID,
		Status:      StatusAccepted,
		TradesCount: len(trades),
		Remaining:   qty,
		Trades:      trades,
	}
	for _, t := range trades {
		res.Remaining -= t.Qty
	}
	if len(trades) > 0 {
		res.Status = StatusMatched
	}
	return res, true, nil
}

// Quote returns the L1 view.
func (s *OrderService) Quote() orderbook.Quote {
	var q orderbook.Quote
	q.Bid, q.HasBid = s.engine.Book().BestBid()
	q.Ask, q.HasAsk = s.engine.Book().BestAsk()
	return q
}

// BookSnapshot aggregates depth per side, best first.
func (s *OrderService) BookSnapshot(max int) (bids, asks []orderbook.DepthLevel) {
	book := s.engine.Book()
	return book.Depth(orderbook.Bid, max), book.Depth(orderbook.Ask, max)
}

// RecentTrades returns the bounded trade history, newest last.
func (s *OrderService) RecentTrades() []orderbook.Trade {
	return s.trades.Snapshot()
}

// Stats snapshots pool and book occupancy.
func (s *OrderService) Stats() Stats {
	book := s.engine.Book()
	pool := s.engine.Pool()
	avail := pool.Available()
	return Stats{
		PoolCapacity:  pool.Capacity(),
		PoolAvailable: avail,
		PoolInUse:     pool.Capacity() - avail,
		ActiveOrders:  book.ActiveOrders(),
		BidLevels:     book.SideOf(orderbook.Bid).Levels(),
		AskLevels:     book.SideOf(orderbook.Ask).Levels(),
		RecentTrades:  s.trades.Len(),
	}
}

func (s *OrderService) recordTrades(trades []orderbook.Trade) {
	for _, t := range trades {
		s.trades.Push(t)
		if s.ledger != nil {
			if err := s.ledger.Append(s.outSeq.Next(), t); err != nil {
				s.log.Error("outbox append failed", zap.Error(err))
			}
		}
	}
}
