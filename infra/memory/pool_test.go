package memory

import (
	"errors"
	"testing"
)

type rec struct {
	id   uint64
	next *rec
}

func (r *rec) Reset() { *r = rec{} }

func TestPoolBorrowReturn(t *testing.T) {
	p := NewPool[rec, *rec](4)
	if p.Capacity() != 4 || p.Available() != 4 {
		t.Fatalf("capacity/available = %d/%d, want 4/4", p.Capacity(), p.Available())
	}

	r1, err := p.Borrow()
	if err != nil {
		t.Fatal(err)
	}
	r1.id = 42
	r1.next = r1
	if p.Available() != 3 {
		t.Errorf("available = %d, want 3", p.Available())
	}

	p.Return(r1)
	if p.Available() != 4 {
		t.Errorf("available = %d, want 4", p.Available())
	}

	// LIFO: the slot comes straight back, zeroed.
	r2, _ := p.Borrow()
	if r2 != r1 {
		t.Error("expected LIFO reuse of the returned slot")
	}
	if r2.id != 0 || r2.next != nil {
		t.Error("returned slot must be reset before republication")
	}
}

func TestPoolExhaustion(t *testing.T) {
	p := NewPool[rec, *rec](2)
	a, _ := p.Borrow()
	b, _ := p.Borrow()
	if a == nil || b == nil {
		t.Fatal("borrows failed")
	}
	if _, err := p.Borrow(); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("err = %v, want ErrPoolExhausted", err)
	}
	p.Return(b)
	if _, err := p.Borrow(); err != nil {
		t.Errorf("borrow after return failed: %v", err)
	}
}

func TestPoolDoubleReturnPanics(t *testing.T) {
	p := NewPool[rec, *rec](2)
	r, _ := p.Borrow()
	p.Return(r)

	defer func() {
		if recover() == nil {
			t.Error("double return must panic")
		}
	}()
	p.Return(r)
}

func TestPoolForeignReturnPanics(t *testing.T) {
	p := NewPool[rec, *rec](2)

	defer func() {
		if recover() == nil {
			t.Error("return of a foreign record must panic")
		}
	}()
	p.Return(&rec{})
}
