package orderbook

import (
	"math"
	"sync"
	"sync/atomic"
)

const noPrice = math.MinInt64

// SideMap is one side of the book: a sorted map from price to *Level.
// Bids rank best-first descending (best = highest), asks ascending
// (best = lowest).
//
// A single RWMutex guards the tree. Holding the write lock across
// find-or-create plus first append is this structure's "compute at
// key": level creation and first insertion are one observable step per
// price, which closes the lost-update window on empty-level
// reclamation together with the level tombstone and the
// value-conditional RemoveLevelIf.
//
// Best-price reads are optimistic: writers bump a version stamp to odd
// while mutating and keep a cached best price in an atomic, so readers
// validate the stamp around an atomic load and only fall back to the
// shared read lock when a writer interleaved. A reader can observe a
// slightly stale best, never a torn one.
type SideMap struct {
	side Side

	mu   sync.RWMutex
	tree *rbTree

	version atomic.Uint64
	best    atomic.Int64
}

func NewSideMap(side Side) *SideMap {
	m := &SideMap{side: side, tree: newRBTree()}
	m.best.Store(noPrice)
	return m
}

func (m *SideMap) Side() Side { return m.side }

// Insert places o into the level at o.Price, creating the level when
// absent or when the present one is tombstoned, and registers the
// record in idx. The append and the index put happen under the same
// level lock: a record is never reachable from a level without its
// index entry, so a matcher that consumes it immediately can retire it
// cleanly. Returns the level the order landed in.
func (m *SideMap) Insert(idx *Index, o *Order) *Level {
	m.mu.Lock()
	m.version.Add(1)
	lvl := m.tree.upsertLevel(o.Price, m.side)
	lvl.Lock()
	if lvl.removedLocked() {
		// Tombstoned by a matcher that emptied it; its conditional
		// drop will now miss, so the key stays ours.
		lvl.Unlock()
		fresh := newLevel(o.Price, m.side)
		m.tree.replaceLevel(o.Price, fresh)
		lvl = fresh
		lvl.Lock()
	}
	lvl.appendLocked(o)
	idx.Put(o.ID, o, lvl)
	lvl.Unlock()
	m.refreshBestLocked()
	m.version.Add(1)
	m.mu.Unlock()
	return lvl
}

// RemoveOrder unlinks o from lvl, the level the index reported it
// resting in. Under the level lock the index entry is re-read: only
// when it still names this exact record in this exact level instance
// does the splice proceed — otherwise a concurrent match consumed (or
// a modify moved) the order first and this caller lost. On an emptied
// level the tombstone is set and the key dropped before the side lock
// is released. The record's own fields are never read here; a matcher
// may be rewriting them right up to the moment it drops the index
// entry.
func (m *SideMap) RemoveOrder(idx *Index, id uint64, o *Order, lvl *Level) bool {
	m.mu.Lock()
	m.version.Add(1)
	defer func() {
		m.refreshBestLocked()
		m.version.Add(1)
		m.mu.Unlock()
	}()

	lvl.Lock()
	curOrder, curLevel := idx.Entry(id)
	if curOrder != o || curLevel != lvl || lvl.removedLocked() {
		lvl.Unlock()
		return false
	}
	lvl.spliceLocked(o)
	emptied := lvl.emptyLocked()
	if emptied {
		lvl.markRemovedLocked()
	}
	idx.Remove(id)
	lvl.Unlock()

	if emptied {
		m.tree.deleteLevelIf(lvl.price, lvl)
	}
	return true
}

// RemoveLevelIf drops the entry at price only if it still holds lvl.
// Called by the matching engine after it emptied and tombstoned lvl,
// without the level lock held.
func (m *SideMap) RemoveLevelIf(price int64, lvl *Level) bool {
	m.mu.Lock()
	m.version.Add(1)
	ok := m.tree.deleteLevelIf(price, lvl)
	m.refreshBestLocked()
	m.version.Add(1)
	m.mu.Unlock()
	return ok
}

// First returns the best level on this side, or nil when empty.
func (m *SideMap) First() *Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.side == Bid {
		return m.tree.maxLevel()
	}
	return m.tree.minLevel()
}

// BestPrice returns the best price on this side. The fast path is an
// optimistic validated read; one retry under the read lock when a
// writer interleaved.
func (m *SideMap) BestPrice() (int64, bool) {
	v := m.version.Load()
	if v&1 == 0 {
		best := m.best.Load()
		if m.version.Load() == v {
			return best, best != noPrice
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	lvl := m.tree.minLevel()
	if m.side == Bid {
		lvl = m.tree.maxLevel()
	}
	if lvl == nil {
		return 0, false
	}
	return lvl.price, true
}

// Levels returns the number of populated price levels.
func (m *SideMap) Levels() int {
	m.mu.RLock()
	n := m.tree.len()
	m.mu.RUnlock()
	return n
}

// ForEachBestFirst walks the levels from best to worst until fn
// returns false. The side lock is held shared for the whole walk.
func (m *SideMap) ForEachBestFirst(fn func(*Level) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.side == Bid {
		m.tree.forEachDescending(fn)
	} else {
		m.tree.forEachAscending(fn)
	}
}

// refreshBestLocked recomputes the cached best price. Write lock held.
func (m *SideMap) refreshBestLocked() {
	lvl := m.tree.minLevel()
	if m.side == Bid {
		lvl = m.tree.maxLevel()
	}
	if lvl == nil {
		m.best.Store(noPrice)
	} else {
		m.best.Store(lvl.price)
	}
}
