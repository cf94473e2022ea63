package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clob/domain/orderbook"
)

type countingSink struct {
	trades, quotes, depths int
}

func (c *countingSink) OnTrade(orderbook.Trade)                        { c.trades++ }
func (c *countingSink) OnQuote(orderbook.Quote)                        { c.quotes++ }
func (c *countingSink) OnDepth(orderbook.Side, []orderbook.DepthLevel) { c.depths++ }

func TestFanoutRelaysToEveryPublisher(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	f := NewFanout(a, b)

	f.OnTrade(orderbook.Trade{BuyOrderID: 1, SellOrderID: 2, Price: 10500, Qty: 10})
	f.OnQuote(orderbook.Quote{Bid: 10000, HasBid: true})
	f.OnDepth(orderbook.Bid, nil)

	for _, c := range []*countingSink{a, b} {
		assert.Equal(t, 1, c.trades)
		assert.Equal(t, 1, c.quotes)
		assert.Equal(t, 1, c.depths)
	}
}

func TestDisplayPrice(t *testing.T) {
	assert.Equal(t, "105.00", DisplayPrice(10500))
	assert.Equal(t, "105.05", DisplayPrice(10505))
	assert.Equal(t, "0.01", DisplayPrice(1))
	assert.Equal(t, "-2.50", DisplayPrice(-250))
}
