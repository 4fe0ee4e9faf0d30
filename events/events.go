// Package events publishes evaluation outcomes to Kafka so downstream
// consumers (CRM sync, analytics) see every triage decision without
// polling the daemon.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/lindenrealty/rentscreen/orchestrate"
)

// Publisher writes one record per evaluation, keyed by conversation id
// so per-conversation ordering is preserved across partitions.
type Publisher struct {
	sync  sarama.SyncProducer
	topic string
	nowFn func() time.Time
}

func NewPublisher(brokers []string, topic string, cfg *sarama.Config) (*Publisher, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &Publisher{sync: sync, topic: topic, nowFn: time.Now}, nil
}

type outcomeEvent struct {
	orchestrate.Result
	EventID   string    `json:"event_id"`
	EmittedAt time.Time `json:"emitted_at"`
}

func (p *Publisher) Publish(_ context.Context, res orchestrate.Result) error {
	payload, err := json.Marshal(outcomeEvent{
		Result:    res,
		EventID:   uuid.NewString(),
		EmittedAt: p.nowFn().UTC(),
	})
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(res.ConversationID),
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err = p.sync.SendMessage(msg)
	return err
}

func (p *Publisher) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// NopPublisher discards outcomes. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, orchestrate.Result) error { return nil }
