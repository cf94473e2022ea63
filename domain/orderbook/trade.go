package orderbook

import "fmt"

// Trade is one execution: a buy and a sell order crossed for Qty at
// Price. Price is always the resting order's price. Immutable once
// emitted; never recycled.
type Trade struct {
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	Price       int64  `json:"price"`
	Qty         uint64 `json:"quantity"`
	Timestamp   int64  `json:"timestamp"` // UnixNano at execution
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade{buy=%d sell=%d price=%d qty=%d}",
		t.BuyOrderID, t.SellOrderID, t.Price, t.Qty)
}

// Quote is the L1 view: best bid and best ask, either possibly absent.
type Quote struct {
	Bid    int64
	Ask    int64
	HasBid bool
	HasAsk bool
}

func (q Quote) Equal(o Quote) bool {
	if q.HasBid != o.HasBid || q.HasAsk != o.HasAsk {
		return false
	}
	if q.HasBid && q.Bid != o.Bid {
		return false
	}
	if q.HasAsk && q.Ask != o.Ask {
		return false
	}
	return true
}

// MarketData receives engine events synchronously from the goroutine
// that produced them. Implementations must not block and must not call
// back into the engine.
type MarketData interface {
	OnTrade(t Trade)
	OnQuote(q Quote)
	OnDepth(side Side, levels []DepthLevel)
}
