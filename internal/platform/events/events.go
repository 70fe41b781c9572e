// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events publishes lifecycle transitions to downstream consumers
(payout and catalog services).

Publishing happens after the store transaction commits and is best effort:
a failure is logged by the caller and never rolls back the transition. The
durable record of a transition is its notification row, not the event.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event describes one committed status change.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	AuthorID   string    `json:"author_id"`
	Status     string    `json:"status"`
	Version    int       `json:"version"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// # Kafka

// KafkaPublisher writes events to a Kafka topic keyed by entity id, so all
// transitions of one entity land on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// BatchTimeout caps how long a write waits for a batch to fill. Publishing runs
// on the request path after commit, so the writer flushes almost immediately.
const BatchTimeout = 10 * time.Millisecond

// NewKafkaPublisher builds a synchronous writer for brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           BatchTimeout,
			WriteTimeout:           5 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish implements [Publisher].
func (publisher *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events_marshal_failed: %w", err)
	}

	err = publisher.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("events_kafka_write_failed: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (publisher *KafkaPublisher) Close() error {
	return publisher.writer.Close()
}

// # Fallbacks

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

// Publish implements [Publisher].
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements [Publisher].
func (Noop) Close() error { return nil }

// Recorder keeps published events in memory (tests).
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements [Publisher].
func (recorder *Recorder) Publish(_ context.Context, event Event) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event)
	return nil
}

// Close implements [Publisher].
func (recorder *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (recorder *Recorder) Events() []Event {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]Event(nil), recorder.events...)
}

// New picks the Kafka publisher when brokers are configured and [Noop] otherwise.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return NewKafkaPublisher(brokers, topic)
}
