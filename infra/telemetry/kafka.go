package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	skafka "github.com/segmentio/kafka-go"

	coretelemetry "github.com/mridultyagi687/TSGLogistics-sub000/core/telemetry"
)

// KafkaConfig defines the connection parameters for the Kafka publisher.
type KafkaConfig struct {
	Broker string `json:"broker"`
	Topic  string `json:"topic"`
}

// kafkaWriter is the subset of segmentio kafka.Writer the publisher needs,
// kept as an interface so tests can inject a fake.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaPublisher pushes snapshots onto a Kafka topic keyed by trigger.
type KafkaPublisher struct {
	writer kafkaWriter
}

// NewKafkaPublisher creates a publisher writing to the given broker/topic.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	w := &skafka.Writer{
		Addr:     skafka.TCP(cfg.Broker),
		Topic:    cfg.Topic,
		Balancer: &skafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: w}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w kafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// PublishSnapshot marshals the snapshot to JSON and writes one message.
func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, s coretelemetry.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	msg := skafka.Message{Key: []byte(s.Trigger), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
