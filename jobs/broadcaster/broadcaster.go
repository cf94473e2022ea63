// Package broadcaster replays the trade outbox to Kafka until every
// record is acknowledged, giving downstream consumers an at-least-once
// stream decoupled from the matching hot path.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"clob/outbox"
)

type Broadcaster struct {
	ledger   *outbox.Ledger
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

// Event is the published payload.
type Event struct {
	V    int    `json:"v"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Buy  uint64 `json:"buy_order_id"`
	Sell uint64 `json:"sell_order_id"`
	Prc  int64  `json:"price"`
	Qty  uint64 `json:"quantity"`
	TS   int64  `json:"timestamp"`
}

func New(ledger *outbox.Ledger, brokers []string, topic string, interval time.Duration, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{
		ledger:   ledger,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}, nil
}

// Start runs the replay loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.ReplaySent()
				b.replayOnce()
			}
		}
	}()
}

// replayOnce walks NEW records: mark SENT, publish, mark ACKED. A
// failed publish leaves the record SENT; a later pass retries it via
// ReplaySent.
func (b *Broadcaster) replayOnce() {
	err := b.ledger.ScanByState(outbox.StateNew, func(seq uint64, rec outbox.Record) error {
		if err := b.ledger.MarkSent(seq); err != nil {
			return err
		}
		if err := b.publish(seq, rec); err != nil {
			b.log.Warn("publish failed, will retry", zap.Uint64("seq", seq), zap.Error(err))
			return nil
		}
		return b.ledger.MarkAcked(seq)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}
}

// ReplaySent re-drives records stuck in SENT (crash between send and
// ack). Safe because consumers dedupe on seq.
func (b *Broadcaster) ReplaySent() {
	_ = b.ledger.ScanByState(outbox.StateSent, func(seq uint64, rec outbox.Record) error {
		if err := b.publish(seq, rec); err != nil {
			return nil
		}
		return b.ledger.MarkAcked(seq)
	})
}

func (b *Broadcaster) publish(seq uint64, rec outbox.Record) error {
	payload, err := json.Marshal(Event{
		V:    1,
		Type: "trade",
		Seq:  seq,
		Buy:  rec.Trade.BuyOrderID,
		Sell: rec.Trade.SellOrderID,
		Prc:  rec.Trade.Price,
		Qty:  rec.Trade.Qty,
		TS:   rec.Trade.Timestamp,
	})
	if err != nil {
		return err
	}
	_, _, err = b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: b.topic,
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
