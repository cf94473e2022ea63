package marketdata

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clob/domain/orderbook"
	"clob/infra/kafka"
)

// Envelope wraps every outbound feed message.
type Envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"` // trade | quote | depth
	TS   int64  `json:"ts"`
	Data any    `json:"data"`
}

type quotePayload struct {
	BestBid *int64 `json:"best_bid"`
	BestAsk *int64 `json:"best_ask"`
}

type depthPayload struct {
	Side   string                 `json:"side"`
	Levels []orderbook.DepthLevel `json:"levels"`
}

type kafkaMsg struct {
	key   []byte
	value []byte
}

// KafkaPublisher streams envelopes to a Kafka topic. The engine-facing
// callbacks only marshal and enqueue; a single goroutine drains the
// buffer through the producer. When the buffer is full the event is
// dropped and counted — the feed is lossy by contract, the durable
// record lives in the outbox.
type KafkaPublisher struct {
	producer *kafka.Producer
	log      *zap.Logger
	ch       chan kafkaMsg
	dropped  atomic.Uint64
}

func NewKafkaPublisher(producer *kafka.Producer, log *zap.Logger, buffer int) *KafkaPublisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &KafkaPublisher{
		producer: producer,
		log:      log,
		ch:       make(chan kafkaMsg, buffer),
	}
}

// Run drains the buffer until ctx is cancelled.
func (p *KafkaPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-p.ch:
			if err := p.producer.Send(ctx, m.key, m.value); err != nil {
				p.log.Warn("kafka publish failed", zap.Error(err))
			}
		}
	}
}

// Dropped reports how many events overflowed the buffer.
func (p *KafkaPublisher) Dropped() uint64 { return p.dropped.Load() }

func (p *KafkaPublisher) OnTrade(t orderbook.Trade) {
	p.enqueue("trade", t)
}

func (p *KafkaPublisher) OnQuote(q orderbook.Quote) {
	var payload quotePayload
	if q.HasBid {
		bid := q.Bid
		payload.BestBid = &bid
	}
	if q.HasAsk {
		ask := q.Ask
		payload.BestAsk = &ask
	}
	p.enqueue("quote", payload)
}

func (p *KafkaPublisher) OnDepth(side orderbook.Side, levels []orderbook.DepthLevel) {
	p.enqueue("depth", depthPayload{Side: side.String(), Levels: levels})
}

func (p *KafkaPublisher) enqueue(kind string, data any) {
	env := Envelope{
		ID:   uuid.New().String(),
		Type: kind,
		TS:   time.Now().UnixNano(),
		Data: data,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case p.ch <- kafkaMsg{key: []byte(env.ID), value: value}:
	default:
		p.dropped.Add(1)
	}
}
