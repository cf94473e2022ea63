package orderbook

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestConcurrentBuyersDrainSeededAsks(t *testing.T) {
	e := newTestEngine(64)

	for i := uint64(1); i <= 5; i++ {
		if _, err := e.ProcessOrder(i, Ask, 10000, 100); err != nil {
			t.Fatal(err)
		}
	}

	var traded atomic.Uint64
	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			trades, err := e.ProcessOrder(id, Bid, 10000, 100)
			if err != nil {
				t.Error(err)
				return
			}
			for _, tr := range trades {
				traded.Add(tr.Qty)
			}
		}(uint64(100 + i))
	}

	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent matching did not finish within bound")
	}

	if got := traded.Load(); got != 500 {
		t.Errorf("traded = %d, want 500", got)
	}
	if !e.Book().IsEmpty() {
		t.Error("book should be empty after the drain")
	}
	if e.Pool().Available() != e.Pool().Capacity() {
		t.Error("pool should balance after the drain")
	}
}

func TestConcurrentCancelAndMatchExactlyOneWins(t *testing.T) {
	for round := 0; round < 200; round++ {
		e := newTestEngine(16)
		if _, err := e.ProcessOrder(1, Ask, 10000, 100); err != nil {
			t.Fatal(err)
		}

		var cancelled atomic.Bool
		var traded atomic.Uint64
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			cancelled.Store(e.CancelOrder(1))
		}()
		go func() {
			defer wg.Done()
			trades, err := e.ProcessOrder(2, Bid, 10000, 100)
			if err != nil {
				t.Error(err)
				return
			}
			for _, tr := range trades {
				traded.Add(tr.Qty)
			}
		}()
		wg.Wait()

		if cancelled.Load() && traded.Load() != 0 {
			t.Fatal("both cancel and match claimed the same order")
		}
		if !cancelled.Load() && traded.Load() != 100 {
			t.Fatal("neither cancel nor match consumed the order")
		}

		// The aggressor either matched fully or rests; the book must be
		// consistent and the pool must balance.
		resting := e.Book().ActiveOrders()
		loaned := e.Pool().Capacity() - e.Pool().Available()
		if resting != loaned {
			t.Fatalf("resting %d != loaned %d", resting, loaned)
		}
	}
}

func TestConcurrentMixedTraffic(t *testing.T) {
	e := newTestEngine(4096)

	const (
		workers = 8
		perWork = 500
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			base := uint64(w+1) * 1_000_000
			for i := 0; i < perWork; i++ {
				id := base + uint64(i)
				side := Bid
				if i%2 == 0 {
					side = Ask
				}
				price := int64(10000 + (i%10)*10)
				if _, err := e.ProcessOrder(id, side, price, 10); err != nil {
					t.Error(err)
					return
				}
				if i%3 == 0 {
					e.CancelOrder(id)
				}
			}
		}(w)
	}
	wg.Wait()

	// Quiescent consistency: every loaned record is resting and indexed.
	resting := e.Book().ActiveOrders()
	loaned := e.Pool().Capacity() - e.Pool().Available()
	if resting != loaned {
		t.Errorf("resting %d != loaned %d", resting, loaned)
	}
	bid, hasBid := e.Book().BestBid()
	ask, hasAsk := e.Book().BestAsk()
	if hasBid && hasAsk && bid >= ask {
		t.Errorf("book locked at quiescence: bid %d >= ask %d", bid, ask)
	}
}
