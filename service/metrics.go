package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"clob/domain/orderbook"
)

// Metrics covers the order-flow side of the system; trade and quote
// series live on the market-data observer. A nil *Metrics is a no-op,
// which keeps tests quiet.
type Metrics struct {
	orders  *prometheus.CounterVec
	cancels *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer, engine *orderbook.Engine) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "clob_pool_in_use",
		Help: "Order records currently on loan from the pool.",
	}, func() float64 {
		pool := engine.Pool()
		return float64(pool.Capacity() - pool.Available())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "clob_active_orders",
		Help: "Orders resting in the book.",
	}, func() float64 {
		return float64(engine.Book().ActiveOrders())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "clob_bid_levels",
		Help: "Populated bid price levels.",
	}, func() float64 {
		return float64(engine.Book().SideOf(orderbook.Bid).Levels())
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "clob_ask_levels",
		Help: "Populated ask price levels.",
	}, func() float64 {
		return float64(engine.Book().SideOf(orderbook.Ask).Levels())
	})

	return &Metrics{
		orders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_orders_total",
			Help: "Orders processed by side and outcome.",
		}, []string{"side", "status"}),
		cancels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_cancels_total",
			Help: "Cancel requests by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) OrderPlaced(side orderbook.Side, status string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(side.String(), status).Inc()
}

func (m *Metrics) OrderRejected(side orderbook.Side) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(side.String(), "REJECTED").Inc()
}

func (m *Metrics) OrderCancelled(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.cancels.WithLabelValues("cancelled").Inc()
	} else {
		m.cancels.WithLabelValues("not_found").Inc()
	}
}
