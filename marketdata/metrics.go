package marketdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"clob/domain/orderbook"
)

// MetricsObserver exposes the feed as Prometheus series. All callbacks
// are constant-time counter/gauge updates.
type MetricsObserver struct {
	trades    prometheus.Counter
	tradedQty prometheus.Counter
	bestBid   prometheus.Gauge
	bestAsk   prometheus.Gauge
}

func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	factory := promauto.With(reg)
	return &MetricsObserver{
		trades: factory.NewCounter(prometheus.CounterOpts{
			Name: "clob_trades_total",
			Help: "Trades executed.",
		}),
		tradedQty: factory.NewCounter(prometheus.CounterOpts{
			Name: "clob_traded_quantity_total",
			Help: "Total quantity traded.",
		}),
		bestBid: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clob_best_bid",
			Help: "Best bid price, fixed-point; 0 when no bid.",
		}),
		bestAsk: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clob_best_ask",
			Help: "Best ask price, fixed-point; 0 when no ask.",
		}),
	}
}

func (m *MetricsObserver) OnTrade(t orderbook.Trade) {
	m.trades.Inc()
	m.tradedQty.Add(float64(t.Qty))
}

func (m *MetricsObserver) OnQuote(q orderbook.Quote) {
	if q.HasBid {
		m.bestBid.Set(float64(q.Bid))
	} else {
		m.bestBid.Set(0)
	}
	if q.HasAsk {
		m.bestAsk.Set(float64(q.Ask))
	} else {
		m.bestAsk.Set(0)
	}
}

func (m *MetricsObserver) OnDepth(orderbook.Side, []orderbook.DepthLevel) {}
