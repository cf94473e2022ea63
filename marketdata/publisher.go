// Package marketdata carries engine events — trades, L1 quote moves,
// L2 depth — to the outside world. The engine invokes sinks
// synchronously from the matching goroutine, so every implementation
// here either does O(1) work or hands off to a buffered channel and
// drops on overflow; none may call back into the engine.
package marketdata

import "clob/domain/orderbook"

// Publisher is the sink contract the engine publishes into.
type Publisher = orderbook.MarketData

// Fanout relays each event to every registered publisher in order.
type Fanout struct {
	pubs []Publisher
}

func NewFanout(pubs ...Publisher) *Fanout {
	return &Fanout{pubs: pubs}
}

func (f *Fanout) OnTrade(t orderbook.Trade) {
	for _, p := range f.pubs {
		p.OnTrade(t)
	}
}

func (f *Fanout) OnQuote(q orderbook.Quote) {
	for _, p := range f.pubs {
		p.OnQuote(q)
	}
}

func (f *Fanout) OnDepth(side orderbook.Side, levels []orderbook.DepthLevel) {
	for _, p := range f.pubs {
		p.OnDepth(side, levels)
	}
}
