package orderbook

import "sync"

// Index maps order ID to the record resting in the book under that ID,
// together with the level instance it rests in. An ID is present iff
// the record sits in that level: Put happens right after the order
// starts resting, Remove under the level lock the moment it is
// consumed or cancelled.
//
// Storing the level alongside the record lets the cancel path navigate
// to the right level without reading the record's own fields, which a
// concurrent match may be rewriting. Critical sections are a single
// map operation, so one mutex is enough; the index is a leaf in the
// lock hierarchy.
type Index struct {
	mu sync.Mutex
	m  map[uint64]indexEntry
}

type indexEntry struct {
	order *Order
	level *Level
}

func NewIndex(capacity int) *Index {
	return &Index{m: make(map[uint64]indexEntry, capacity)}
}

func (x *Index) Put(id uint64, o *Order, lvl *Level) {
	x.mu.Lock()
	x.m[id] = indexEntry{order: o, level: lvl}
	x.mu.Unlock()
}

// Get returns the resting record for id, or nil.
func (x *Index) Get(id uint64) *Order {
	x.mu.Lock()
	e := x.m[id]
	x.mu.Unlock()
	return e.order
}

// Entry returns the record and the level it rests in.
func (x *Index) Entry(id uint64) (*Order, *Level) {
	x.mu.Lock()
	e := x.m[id]
	x.mu.Unlock()
	return e.order, e.level
}

func (x *Index) Remove(id uint64) {
	x.mu.Lock()
	delete(x.m, id)
	x.mu.Unlock()
}

func (x *Index) Contains(id uint64) bool {
	x.mu.Lock()
	_, ok := x.m[id]
	x.mu.Unlock()
	return ok
}

func (x *Index) Size() int {
	x.mu.Lock()
	n := len(x.m)
	x.mu.Unlock()
	return n
}
