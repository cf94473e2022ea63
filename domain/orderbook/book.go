package orderbook

// DepthLevel is one aggregated price level for market data.
type DepthLevel struct {
	Price  int64
	Qty    uint64
	Orders int
}

// Book holds both sides plus the ID index. Every record reachable from
// a level is reachable through the index under its ID, and vice versa.
type Book struct {
	bids  *SideMap
	asks  *SideMap
	index *Index
}

func NewBook(indexCapacity int) *Book {
	return &Book{
		bids:  NewSideMap(Bid),
		asks:  NewSideMap(Ask),
		index: NewIndex(indexCapacity),
	}
}

// SideOf returns the sorted map for a side.
func (b *Book) SideOf(s Side) *SideMap {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

// AddOrder rests o on its own side and registers it in the index, as
// one observable step per price key.
func (b *Book) AddOrder(o *Order) {
	b.SideOf(o.Side).Insert(b.index, o)
}

// RemoveOrder unlinks the resting record for id. Reports false when
// the id is unknown or a concurrent match already consumed it. The
// caller must hold no level lock and, on success, owns the detached
// record (typically to return it to the pool).
func (b *Book) RemoveOrder(id uint64) (*Order, bool) {
	o, lvl := b.index.Entry(id)
	if o == nil {
		return nil, false
	}
	if !b.SideOf(lvl.side).RemoveOrder(b.index, id, o, lvl) {
		return nil, false
	}
	return o, true
}

// FindOrder is the O(1) locate via the index; nil when not resting.
func (b *Book) FindOrder(id uint64) *Order {
	return b.index.Get(id)
}

// BestBid returns the highest bid price, if any.
func (b *Book) BestBid() (int64, bool) { return b.bids.BestPrice() }

// BestAsk returns the lowest ask price, if any.
func (b *Book) BestAsk() (int64, bool) { return b.asks.BestPrice() }

// ActiveOrders counts records currently resting.
func (b *Book) ActiveOrders() int { return b.index.Size() }

// Index exposes the order index (diagnostics and tests).
func (b *Book) Index() *Index { return b.index }

// IsEmpty reports whether neither side has a populated level.
func (b *Book) IsEmpty() bool {
	return b.bids.Levels() == 0 && b.asks.Levels() == 0
}

// Depth aggregates up to max levels on one side, best first. max <= 0
// means the whole side. Market-data path only.
func (b *Book) Depth(s Side, max int) []DepthLevel {
	out := make([]DepthLevel, 0, 16)
	b.SideOf(s).ForEachBestFirst(func(lvl *Level) bool {
		qty := lvl.TotalQty()
		if qty == 0 {
			// Emptied but not yet dropped; skip rather than report a
			// phantom level.
			return true
		}
		out = append(out, DepthLevel{Price: lvl.price, Qty: qty, Orders: lvl.Size()})
		return max <= 0 || len(out) < max
	})
	return out
}
