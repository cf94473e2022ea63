// Package protocol implements the fixed-width binary wire format used
// by latency-sensitive transports: 32-byte little-endian frames, no
// string parsing on the hot path.
//
// Frame layout:
//
//	offset size field
//	0      1    type     'A' add, 'C' cancel, 'M' modify, 'E' execute
//	1      1    side     'B' or 'S' (zero for cancel)
//	2      8    order id u64
//	10     8    price    i64 fixed-point (scaled by 100)
//	18     8    quantity u64
//	26     6    padding  zero
package protocol

import (
	"encoding/binary"
	"errors"
)

// MessageSize is the fixed frame length.
const MessageSize = 32

// Frame type codes.
const (
	MsgAdd     byte = 'A'
	MsgCancel  byte = 'C'
	MsgModify  byte = 'M'
	MsgExecute byte = 'E'
)

// Side codes.
const (
	SideBuy  byte = 'B'
	SideSell byte = 'S'
)

var (
	ErrShortBuffer = errors.New("protocol: buffer shorter than one frame")
	ErrBadType     = errors.New("protocol: unknown message type")
	ErrBadSide     = errors.New("protocol: unknown side")
)

// Message is one decoded frame.
type Message struct {
	Type    byte
	Side    byte
	OrderID uint64
	Price   int64
	Qty     uint64
}

// Decode parses the first frame in buf.
func Decode(buf []byte) (Message, error) {
	if len(buf) < MessageSize {
		return Message{}, ErrShortBuffer
	}
	m := Message{
		Type:    buf[0],
		Side:    buf[1],
		OrderID: binary.LittleEndian.Uint64(buf[2:10]),
		Price:   int64(binary.LittleEndian.Uint64(buf[10:18])),
		Qty:     binary.LittleEndian.Uint64(buf[18:26]),
	}
	switch m.Type {
	case MsgAdd, MsgCancel, MsgModify, MsgExecute:
	default:
		return Message{}, ErrBadType
	}
	if m.Type != MsgCancel && m.Side != SideBuy && m.Side != SideSell {
		return Message{}, ErrBadSide
	}
	return m, nil
}

// Encode writes the frame into buf, which must hold MessageSize bytes.
func (m Message) Encode(buf []byte) error {
	if len(buf) < MessageSize {
		return ErrShortBuffer
	}
	buf[0] = m.Type
	buf[1] = m.Side
	binary.LittleEndian.PutUint64(buf[2:10], m.OrderID)
	binary.LittleEndian.PutUint64(buf[10:18], uint64(m.Price))
	binary.LittleEndian.PutUint64(buf[18:26], m.Qty)
	for i := 26; i < MessageSize; i++ {
		buf[i] = 0
	}
	return nil
}

// Append encodes the frame and appends it to dst.
func (m Message) Append(dst []byte) []byte {
	var frame [MessageSize]byte
	_ = m.Encode(frame[:])
	return append(dst, frame[:]...)
}

// Add builds an 'A' frame.
func Add(side byte, orderID uint64, price int64, qty uint64) Message {
	return Message{Type: MsgAdd, Side: side, OrderID: orderID, Price: price, Qty: qty}
}

// Cancel builds a 'C' frame; side, price, and quantity are ignored by
// the receiver.
func Cancel(orderID uint64) Message {
	return Message{Type: MsgCancel, OrderID: orderID}
}

// Modify builds an 'M' frame.
func Modify(side byte, orderID uint64, newPrice int64, newQty uint64) Message {
	return Message{Type: MsgModify, Side: side, OrderID: orderID, Price: newPrice, Qty: newQty}
}

// Execute builds an 'E' frame reporting a fill for one side of a
// trade at the execution price.
func Execute(side byte, orderID uint64, price int64, qty uint64) Message {
	return Message{Type: MsgExecute, Side: side, OrderID: orderID, Price: price, Qty: qty}
}
