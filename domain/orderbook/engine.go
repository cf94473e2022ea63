package orderbook

import (
	"sync"
	"time"
)

// Engine matches incoming orders against the book under price-time
// priority: best price first, FIFO within a price. The execution price
// is always the resting order's price, so the aggressor only ever
// improves on its limit and the resting side trades at its quote.
//
// All public operations are safe from any number of goroutines. The
// engine locks one level at a time; empty levels are tombstoned under
// the level lock and dropped from the side map with a value-conditional
// remove, which together close the race between emptying a level and a
// concurrent insert at the same price.
type Engine struct {
	book *Book
	pool *OrderPool

	md         MarketData
	depthLimit int

	quoteMu   sync.Mutex
	lastQuote Quote
}

func NewEngine(book *Book, pool *OrderPool) *Engine {
	return &Engine{book: book, pool: pool}
}

// PublishTo attaches a market-data sink. Events fire synchronously
// from the mutating goroutine; depthLimit bounds L2 emission (0
// disables depth, trades and L1 still flow). Set before serving
// traffic.
func (e *Engine) PublishTo(md MarketData, depthLimit int) {
	e.md = md
	e.depthLimit = depthLimit
}

// Book exposes the underlying book for read paths.
func (e *Engine) Book() *Book { return e.book }

// Pool exposes the record pool for diagnostics.
func (e *Engine) Pool() *OrderPool { return e.pool }

// ProcessOrder borrows a record, matches it against the opposite side,
// and rests any residue on its own side. Returns every trade this call
// produced. ErrPoolExhausted rejects the order with no trades.
func (e *Engine) ProcessOrder(id uint64, side Side, price int64, qty uint64) ([]Trade, error) {
	o, err := e.pool.Borrow()
	if err != nil {
		return nil, err
	}
	o.Init(id, side, price, qty)

	var trades []Trade
	remaining := e.match(o, &trades)

	if remaining > 0 {
		o.Qty = remaining
		e.book.AddOrder(o)
	} else {
		e.pool.Return(o)
	}

	e.publish(trades, side, side.Opposite())
	return trades, nil
}

// CancelOrder removes the resting order for id. False when the id is
// unknown or a concurrent match consumed it first. Must not be called
// while holding a level lock.
func (e *Engine) CancelOrder(id uint64) bool {
	o, ok := e.book.RemoveOrder(id)
	if !ok {
		return false
	}
	// The record is detached and exclusively ours now.
	side := o.Side
	e.pool.Return(o)
	e.publish(nil, side)
	return true
}

// ModifyOrder is cancel followed by resubmit under the same id with a
// fresh timestamp; time priority is lost even when price and quantity
// are unchanged. When the cancel misses — unknown id or already
// consumed — found is false and nothing is inserted.
func (e *Engine) ModifyOrder(id uint64, side Side, newPrice int64, newQty uint64) (trades []Trade, found bool, err error) {
	if !e.CancelOrder(id) {
		return nil, false, nil
	}
	trades, err = e.ProcessOrder(id, side, newPrice, newQty)
	return trades, true, err
}

// match consumes crossing liquidity, appending executions to trades.
// Returns the aggressor's unfilled remainder.
func (e *Engine) match(o *Order, trades *[]Trade) uint64 {
	opp := e.book.SideOf(o.Side.Opposite())
	remaining := o.Qty

	for remaining > 0 {
		lvl := opp.First()
		if lvl == nil {
			break
		}
		bestPrice := lvl.Price()
		if !crosses(o.Side, o.Price, bestPrice) {
			break
		}

		lvl.Lock()
		for remaining > 0 && !lvl.emptyLocked() {
			cp := lvl.headLocked()
			if cp.Qty == 0 {
				panic("orderbook: resting order with zero quantity")
			}
			fill := min(remaining, cp.Qty)
			*trades = append(*trades, makeTrade(o, cp, cp.Price, fill))
			remaining -= fill
			cp.Qty -= fill

			if cp.Qty == 0 {
				lvl.pollFirstLocked()
				e.book.index.Remove(cp.ID)
				// The record is already detached, and the pool lock
				// sits below the level lock in the hierarchy.
				e.pool.Return(cp)
			}
		}
		empty := false
		if lvl.emptyLocked() {
			lvl.markRemovedLocked()
			empty = true
		}
		lvl.Unlock()

		if empty {
			// Drop only if the key still holds the level we emptied; a
			// racing insert may have swapped in a fresh one.
			opp.RemoveLevelIf(bestPrice, lvl)
		}
	}
	return remaining
}

// crosses: a buy crosses at price >= best ask, a sell at price <= best
// bid.
func crosses(side Side, price, best int64) bool {
	if side == Bid {
		return price >= best
	}
	return price <= best
}

func makeTrade(incoming, resting *Order, price int64, qty uint64) Trade {
	buy, sell := incoming.ID, resting.ID
	if incoming.Side == Ask {
		buy, sell = resting.ID, incoming.ID
	}
	return Trade{
		BuyOrderID:  buy,
		SellOrderID: sell,
		Price:       price,
		Qty:         qty,
		Timestamp:   time.Now().UnixNano(),
	}
}

// publish emits trades, the L1 quote when it moved, and bounded depth
// for the touched sides. Synchronous; sinks must not block.
func (e *Engine) publish(trades []Trade, touched ...Side) {
	if e.md == nil {
		return
	}
	for _, t := range trades {
		e.md.OnTrade(t)
	}

	q := e.currentQuote()
	e.quoteMu.Lock()
	changed := !q.Equal(e.lastQuote)
	if changed {
		e.lastQuote = q
	}
	e.quoteMu.Unlock()
	if changed {
		e.md.OnQuote(q)
	}

	if e.depthLimit > 0 {
		seen := [2]bool{}
		for _, s := range touched {
			if seen[s] {
				continue
			}
			seen[s] = true
			e.md.OnDepth(s, e.book.Depth(s, e.depthLimit))
		}
	}
}

func (e *Engine) currentQuote() Quote {
	var q Quote
	q.Bid, q.HasBid = e.book.BestBid()
	q.Ask, q.HasAsk = e.book.BestAsk()
	return q
}
