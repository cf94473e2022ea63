// Package orderbook implements the in-memory matching core: a
// two-sided limit order book with price-time priority, fine-grained
// per-level locking, an intrusive FIFO queue at each price, an O(1)
// order-ID index, and a matching engine that interleaves safely with
// cancellation.
//
// The hot path allocates nothing in steady state: order records come
// from a preallocated slab pool and the per-price queues link the
// records themselves. Designed for sustained six-figure operation
// rates with sub-millisecond tails.
package orderbook
