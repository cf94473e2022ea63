// Package outbox persists executed trades in a pebble-backed ledger so
// downstream publication is at-least-once: the engine's trades are
// committed facts, so once appended they survive process death and are
// replayed to the broker until acknowledged.
package outbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"clob/domain/orderbook"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

// Record is one ledgered trade plus its delivery state.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Trade       orderbook.Trade
}

// binary encoding:
// [state:1][retries:4][lastAttempt:8][buy:8][sell:8][price:8][qty:8][ts:8]
const recordSize = 1 + 4 + 8 + 8 + 8 + 8 + 8 + 8

func encodeRecord(r Record) []byte {
	buf := make([]byte, recordSize)
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	binary.BigEndian.PutUint64(buf[13:21], r.Trade.BuyOrderID)
	binary.BigEndian.PutUint64(buf[21:29], r.Trade.SellOrderID)
	binary.BigEndian.PutUint64(buf[29:37], uint64(r.Trade.Price))
	binary.BigEndian.PutUint64(buf[37:45], r.Trade.Qty)
	binary.BigEndian.PutUint64(buf[45:53], uint64(r.Trade.Timestamp))
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) != recordSize {
		return Record{}, errors.New("outbox: invalid record length")
	}
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Trade: orderbook.Trade{
			BuyOrderID:  binary.BigEndian.Uint64(b[13:21]),
			SellOrderID: binary.BigEndian.Uint64(b[21:29]),
			Price:       int64(binary.BigEndian.Uint64(b[29:37])),
			Qty:         binary.BigEndian.Uint64(b[37:45]),
			Timestamp:   int64(binary.BigEndian.Uint64(b[45:53])),
		},
	}, nil
}

// -------------------- Ledger --------------------

type Ledger struct {
	db *pebble.DB
}

func Open(dir string) (*Ledger, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // durability is the point
	})
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append inserts a fresh trade under seq in state NEW.
func (l *Ledger) Append(seq uint64, t orderbook.Trade) error {
	rec := Record{State: StateNew, Trade: t}
	return l.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// MarkSent flags the record as handed to the broker.
func (l *Ledger) MarkSent(seq uint64) error {
	return l.transition(seq, StateSent)
}

// MarkAcked flags the record as acknowledged by the broker.
func (l *Ledger) MarkAcked(seq uint64) error {
	return l.transition(seq, StateAcked)
}

func (l *Ledger) transition(seq uint64, state State) error {
	rec, err := l.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries++
	rec.LastAttempt = time.Now().UnixNano()
	return l.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Delete removes an ACKED record (cleanup).
func (l *Ledger) Delete(seq uint64) error {
	return l.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns the record under seq.
func (l *Ledger) Get(seq uint64) (Record, error) {
	val, closer, err := l.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// ScanByState visits every record in the given state, in sequence
// order. The broadcaster replays NEW records through this.
func (l *Ledger) ScanByState(state State, fn func(seq uint64, rec Record) error) error {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Keys --------------------

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("trade/"))), "%d", &seq)
	return seq, err
}
