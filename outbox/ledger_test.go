package outbox

import (
	"testing"

	"clob/domain/orderbook"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedgerAppendGet(t *testing.T) {
	l := openTestLedger(t)

	tr := orderbook.Trade{BuyOrderID: 2, SellOrderID: 1, Price: 10500, Qty: 50, Timestamp: 123456789}
	if err := l.Append(1, tr); err != nil {
		t.Fatal(err)
	}

	rec, err := l.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateNew {
		t.Errorf("state = %v, want NEW", rec.State)
	}
	if rec.Trade != tr {
		t.Errorf("trade = %+v, want %+v", rec.Trade, tr)
	}
}

func TestLedgerStateMachine(t *testing.T) {
	l := openTestLedger(t)

	tr := orderbook.Trade{BuyOrderID: 4, SellOrderID: 3, Price: 10000, Qty: 10, Timestamp: 1}
	if err := l.Append(7, tr); err != nil {
		t.Fatal(err)
	}
	if err := l.MarkSent(7); err != nil {
		t.Fatal(err)
	}
	rec, _ := l.Get(7)
	if rec.State != StateSent || rec.Retries != 1 || rec.LastAttempt == 0 {
		t.Errorf("after MarkSent: %+v", rec)
	}
	if err := l.MarkAcked(7); err != nil {
		t.Fatal(err)
	}
	rec, _ = l.Get(7)
	if rec.State != StateAcked {
		t.Errorf("state = %v, want ACKED", rec.State)
	}
}

func TestLedgerScanByState(t *testing.T) {
	l := openTestLedger(t)

	for seq := uint64(1); seq <= 5; seq++ {
		tr := orderbook.Trade{BuyOrderID: seq, SellOrderID: seq + 100, Price: 10000, Qty: seq, Timestamp: 1}
		if err := l.Append(seq, tr); err != nil {
			t.Fatal(err)
		}
	}
	_ = l.MarkAcked(2)
	_ = l.MarkAcked(4)

	var seen []uint64
	err := l.ScanByState(StateNew, func(seq uint64, rec Record) error {
		seen = append(seen, seq)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{1, 3, 5}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v (sequence order)", seen, want)
		}
	}
}

func TestLedgerDelete(t *testing.T) {
	l := openTestLedger(t)

	tr := orderbook.Trade{BuyOrderID: 1, SellOrderID: 2, Price: 1, Qty: 1, Timestamp: 1}
	if err := l.Append(9, tr); err != nil {
		t.Fatal(err)
	}
	if err := l.Delete(9); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Get(9); err == nil {
		t.Error("get after delete should fail")
	}
}
