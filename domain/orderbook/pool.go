package orderbook

import "clob/infra/memory"

// DefaultPoolCapacity is the number of order records preallocated when
// no capacity is configured.
const DefaultPoolCapacity = 100_000

// OrderPool recycles Order records.
type OrderPool = memory.Pool[Order, *Order]

func NewOrderPool(capacity int) *OrderPool {
	return memory.NewPool[Order, *Order](capacity)
}
