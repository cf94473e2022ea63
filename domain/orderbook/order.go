package orderbook

// Side of the book an order rests on.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Order is a fixed-width order record. Only primitive fields, no
// strings, so a slab of them stays flat in memory and recycling is a
// plain zeroing. The next/prev links make the record its own queue
// node inside a Level (intrusive list, no wrapper allocation).
//
// A record is owned by the OrderPool for its whole lifetime. While it
// is not linked into a level, next and prev must be nil.
type Order struct {
	ID    uint64
	Price int64 // fixed-point, scaled by 100 (10500 = $105.00)
	Qty   uint64
	Side  Side

	next *Order
	prev *Order
}

// Reset zeroes every field, links included. The pool calls this before
// republishing the slot so the next borrower never sees stale intrusive
// pointers.
func (o *Order) Reset() { *o = Order{} }

// Init fills the record for a fresh submission.
func (o *Order) Init(id uint64, side Side, price int64, qty uint64) {
	o.ID = id
	o.Side = side
	o.Price = price
	o.Qty = qty
	o.next = nil
	o.prev = nil
}
