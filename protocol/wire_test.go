package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestFrameLayout(t *testing.T) {
	m := Add(SideBuy, 0x1122334455667788, 10500, 250)
	var buf [MessageSize]byte
	if err := m.Encode(buf[:]); err != nil {
		t.Fatal(err)
	}

	if buf[0] != 'A' || buf[1] != 'B' {
		t.Errorf("type/side bytes = %q %q", buf[0], buf[1])
	}
	if got := binary.LittleEndian.Uint64(buf[2:10]); got != 0x1122334455667788 {
		t.Errorf("order id = %#x", got)
	}
	if got := int64(binary.LittleEndian.Uint64(buf[10:18])); got != 10500 {
		t.Errorf("price = %d", got)
	}
	if got := binary.LittleEndian.Uint64(buf[18:26]); got != 250 {
		t.Errorf("quantity = %d", got)
	}
	if !bytes.Equal(buf[26:], make([]byte, 6)) {
		t.Errorf("padding not zeroed: % x", buf[26:])
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Message{
		Add(SideSell, 7, 10500, 100),
		Cancel(99),
		Modify(SideBuy, 12, -250, 1),
		Execute(SideBuy, 3, 10400, 30),
	}
	for _, want := range cases {
		var buf [MessageSize]byte
		if err := want.Encode(buf[:]); err != nil {
			t.Fatal(err)
		}
		got, err := Decode(buf[:])
		if err != nil {
			t.Fatalf("decode %c: %v", want.Type, err)
		}
		if got != want {
			t.Errorf("round trip: got %+v, want %+v", got, want)
		}
	}
}

func TestNegativePriceSurvives(t *testing.T) {
	m := Add(SideBuy, 1, -500, 10)
	var buf [MessageSize]byte
	_ = m.Encode(buf[:])
	got, err := Decode(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	if got.Price != -500 {
		t.Errorf("price = %d, want -500", got.Price)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(make([]byte, MessageSize-1)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer: %v", err)
	}

	var buf [MessageSize]byte
	buf[0] = 'X'
	if _, err := Decode(buf[:]); !errors.Is(err, ErrBadType) {
		t.Errorf("bad type: %v", err)
	}

	buf[0] = MsgAdd
	buf[1] = 'Q'
	if _, err := Decode(buf[:]); !errors.Is(err, ErrBadSide) {
		t.Errorf("bad side: %v", err)
	}

	// Cancel ignores the side byte.
	buf[0] = MsgCancel
	if _, err := Decode(buf[:]); err != nil {
		t.Errorf("cancel with junk side should decode: %v", err)
	}
}

func TestAppendChainsFrames(t *testing.T) {
	out := Execute(SideBuy, 1, 10000, 5).Append(nil)
	out = Execute(SideSell, 2, 10000, 5).Append(out)
	if len(out) != 2*MessageSize {
		t.Fatalf("len = %d, want %d", len(out), 2*MessageSize)
	}
	first, err := Decode(out[:MessageSize])
	if err != nil || first.OrderID != 1 {
		t.Errorf("first frame = %+v err=%v", first, err)
	}
	second, err := Decode(out[MessageSize:])
	if err != nil || second.OrderID != 2 {
		t.Errorf("second frame = %+v err=%v", second, err)
	}
}
