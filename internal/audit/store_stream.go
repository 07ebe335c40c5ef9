package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"termyx/internal/platform/kafka/producer"
)

// MessageProducer publishes a record to a topic.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// StreamStore persists events to the wrapped store and then forwards them to
// a Kafka topic for downstream fraud review. The wrapped store stays the
// source of truth: stream failures are logged, not returned.
type StreamStore struct {
	Store
	producer MessageProducer
	topic    string
	logger   *slog.Logger
}

func NewStreamStore(store Store, p MessageProducer, topic string, logger *slog.Logger) *StreamStore {
	return &StreamStore{Store: store, producer: p, topic: topic, logger: logger}
}

type streamedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	IPPrefix  string    `json:"ip_prefix,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func (s *StreamStore) Append(ctx context.Context, event Event) error {
	if err := s.Store.Append(ctx, event); err != nil {
		return err
	}

	value, err := json.Marshal(streamedEvent(event))
	if err != nil {
		return err
	}
	msg := &producer.Message{
		Topic:   s.topic,
		Key:     []byte(event.UserID),
		Value:   value,
		Headers: map[string]string{"action": string(event.Action)},
	}
	if err := s.producer.Produce(ctx, msg); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit event not streamed",
			"error", err,
			"topic", s.topic,
			"action", event.Action,
		)
	}
	return nil
}
