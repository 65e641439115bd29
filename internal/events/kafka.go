package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes transition records to a topic, keyed by booking id
// so every booking's history lands on one partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher whose writes never block the caller.
// Delivery happens in the background and failures are logged.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: newWriter(brokers, topic)}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             logFailedWrites,
	}
}

// logFailedWrites is the async writer's completion hook.
func logFailedWrites(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		log.Printf("kafka: transition for booking %s not delivered: %v", m.Key, err)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, t Transition) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transition: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(t.BookingID),
		Value: data,
		Time:  t.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write transition to kafka: %w", err)
	}
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
