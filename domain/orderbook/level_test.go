package orderbook

import "testing"

func TestLevelFIFO(t *testing.T) {
	lvl := newLevel(100, Ask)
	o1 := &Order{ID: 1, Price: 100, Qty: 5, Side: Ask}
	o2 := &Order{ID: 2, Price: 100, Qty: 7, Side: Ask}
	o3 := &Order{ID: 3, Price: 100, Qty: 9, Side: Ask}

	for _, o := range []*Order{o1, o2, o3} {
		if !lvl.Append(o) {
			t.Fatalf("append of order %d failed", o.ID)
		}
	}
	if lvl.Size() != 3 {
		t.Fatalf("size = %d, want 3", lvl.Size())
	}
	if got := lvl.Peek(); got != o1 {
		t.Errorf("peek = %v, want o1", got)
	}
	if got := lvl.PollFirst(); got != o1 {
		t.Errorf("first poll = %v, want o1", got)
	}
	if got := lvl.PollFirst(); got != o2 {
		t.Errorf("second poll = %v, want o2", got)
	}
	if got := lvl.PollFirst(); got != o3 {
		t.Errorf("third poll = %v, want o3", got)
	}
	if !lvl.IsEmpty() {
		t.Error("level should be empty after polling everything")
	}
	if lvl.PollFirst() != nil {
		t.Error("poll on empty level should return nil")
	}
}

func TestLevelInteriorRemove(t *testing.T) {
	lvl := newLevel(100, Bid)
	o1 := &Order{ID: 1}
	o2 := &Order{ID: 2}
	o3 := &Order{ID: 3}
	lvl.Append(o1)
	lvl.Append(o2)
	lvl.Append(o3)

	lvl.Remove(o2)
	if lvl.Size() != 2 {
		t.Fatalf("size = %d, want 2", lvl.Size())
	}
	if o2.next != nil || o2.prev != nil {
		t.Error("removed order should have nil links")
	}
	if got := lvl.PollFirst(); got != o1 {
		t.Errorf("poll = %v, want o1", got)
	}
	if got := lvl.PollFirst(); got != o3 {
		t.Errorf("poll = %v, want o3", got)
	}

	// removing head and tail via Remove
	lvl2 := newLevel(100, Bid)
	a, b := &Order{ID: 4}, &Order{ID: 5}
	lvl2.Append(a)
	lvl2.Append(b)
	lvl2.Remove(a)
	if lvl2.Peek() != b {
		t.Error("expected b at head after removing head")
	}
	lvl2.Remove(b)
	if !lvl2.IsEmpty() {
		t.Error("expected empty level")
	}
}

func TestLevelTombstoneRejectsAppend(t *testing.T) {
	lvl := newLevel(100, Ask)
	lvl.Lock()
	lvl.markRemovedLocked()
	lvl.Unlock()

	if lvl.Append(&Order{ID: 1}) {
		t.Error("append into a tombstoned level must fail")
	}
	if !lvl.Removed() {
		t.Error("tombstone flag lost")
	}
}

func TestLevelTotalQty(t *testing.T) {
	lvl := newLevel(100, Ask)
	lvl.Append(&Order{ID: 1, Qty: 30})
	lvl.Append(&Order{ID: 2, Qty: 50})
	if got := lvl.TotalQty(); got != 80 {
		t.Errorf("total qty = %d, want 80", got)
	}
}
