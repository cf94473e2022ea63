package orderbook

import "sync"

// Level is the FIFO queue of orders resting at one price. It is an
// intrusive doubly-linked list: the orders themselves carry the links,
// so append and interior removal are O(1) with no node allocation.
//
// Each level has its own mutex. The matching engine holds it across
// the whole inner matching loop via Lock/Unlock and uses the *Locked
// accessors; everyone else goes through the self-locking methods.
//
// The removed flag is the level's tombstone. It is set under the level
// lock the instant the level empties during matching or cancellation,
// before the map entry is dropped. A tombstoned level never accepts
// another order; an insertion at the same price must build a fresh
// level.
type Level struct {
	price int64
	side  Side

	mu      sync.Mutex
	head    *Order
	tail    *Order
	size    int
	removed bool
}

func newLevel(price int64, side Side) *Level {
	return &Level{price: price, side: side}
}

func (l *Level) Price() int64 { return l.price }
func (l *Level) Side() Side   { return l.side }

// Lock acquires the level lock. The matching engine holds it across
// its inner loop so FIFO consumption is atomic per level.
func (l *Level) Lock() { l.mu.Lock() }

// Unlock releases the level lock.
func (l *Level) Unlock() { l.mu.Unlock() }

// Append adds o at the tail, preserving time priority. It reports
// false when the level is tombstoned; the caller must then insert into
// a fresh level instead.
func (l *Level) Append(o *Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.removed {
		return false
	}
	l.appendLocked(o)
	return true
}

// Remove splices o out of the list wherever it sits. O(1) thanks to
// the intrusive links. Caller must know o is linked into this level.
func (l *Level) Remove(o *Order) {
	l.mu.Lock()
	l.spliceLocked(o)
	l.mu.Unlock()
}

// Peek returns the head order (oldest) without detaching it.
func (l *Level) Peek() *Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// PollFirst detaches and returns the head order, or nil when empty.
func (l *Level) PollFirst() *Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pollFirstLocked()
}

// IsEmpty reports whether the level holds no orders.
func (l *Level) IsEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head == nil
}

// Size returns the number of resting orders.
func (l *Level) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// TotalQty sums the remaining quantity at this price. O(n); market
// data only, never on the matching path.
func (l *Level) TotalQty() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total uint64
	for o := l.head; o != nil; o = o.next {
		total += o.Qty
	}
	return total
}

// Removed reports whether the tombstone is set.
func (l *Level) Removed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removed
}

// ---------------- engine-facing, caller holds Lock ----------------

func (l *Level) appendLocked(o *Order) {
	if l.tail == nil {
		l.head = o
		l.tail = o
		o.next = nil
		o.prev = nil
	} else {
		l.tail.next = o
		o.prev = l.tail
		o.next = nil
		l.tail = o
	}
	l.size++
}

func (l *Level) headLocked() *Order { return l.head }

func (l *Level) emptyLocked() bool { return l.head == nil }

func (l *Level) removedLocked() bool { return l.removed }

func (l *Level) markRemovedLocked() { l.removed = true }

func (l *Level) pollFirstLocked() *Order {
	o := l.head
	if o == nil {
		return nil
	}
	l.head = o.next
	if l.head != nil {
		l.head.prev = nil
	} else {
		l.tail = nil
	}
	o.next = nil
	o.prev = nil
	l.size--
	return o
}

func (l *Level) spliceLocked(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	l.size--
}
