package marketdata

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clob/domain/orderbook"
)

var hundred = decimal.NewFromInt(100)

// DisplayPrice renders a fixed-point price as a decimal string
// (10500 -> "105.00").
func DisplayPrice(p int64) string {
	return decimal.NewFromInt(p).Div(hundred).StringFixed(2)
}

// LogPublisher writes market data to a structured logger. Intended for
// demos and debugging, not for a production feed.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) OnTrade(t orderbook.Trade) {
	p.log.Info("trade",
		zap.Uint64("buy", t.BuyOrderID),
		zap.Uint64("sell", t.SellOrderID),
		zap.String("price", DisplayPrice(t.Price)),
		zap.Uint64("qty", t.Qty),
	)
}

func (p *LogPublisher) OnQuote(q orderbook.Quote) {
	fields := make([]zap.Field, 0, 3)
	if q.HasBid {
		fields = append(fields, zap.String("best_bid", DisplayPrice(q.Bid)))
	}
	if q.HasAsk {
		fields = append(fields, zap.String("best_ask", DisplayPrice(q.Ask)))
	}
	if q.HasBid && q.HasAsk {
		fields = append(fields, zap.String("spread", DisplayPrice(q.Ask-q.Bid)))
	}
	p.log.Info("quote", fields...)
}

func (p *LogPublisher) OnDepth(side orderbook.Side, levels []orderbook.DepthLevel) {
	p.log.Debug("depth",
		zap.String("side", side.String()),
		zap.Int("levels", len(levels)),
	)
}
