package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ Sink = (*KafkaSink)(nil)

// KafkaSink mirrors bus events to a Kafka topic. Messages are keyed by order
// id so all events for one order land in the same partition, preserving their
// relative order for downstream consumers.
type KafkaSink struct {
	writer *kafka.Writer
	lg     *zap.Logger
}

// NewKafkaSink creates a sink writing to topic on the given brokers. The
// writer runs in async mode: Publish enqueues without waiting on the broker,
// so checkout latency never includes a Kafka round trip, while the writer's
// internal queue keeps per-key submission order intact.
func NewKafkaSink(brokers []string, topic string, lg *zap.Logger) *KafkaSink {
	s := &KafkaSink{lg: lg}
	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 100 * time.Millisecond,
		Completion:   s.onCompletion,
	}
	return s
}

// onCompletion logs delivery failures; the mirror is best-effort by contract.
func (s *KafkaSink) onCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	s.lg.Error("kafka event delivery failed",
		zap.Int("messages", len(messages)),
		zap.Error(err),
	)
}

// Publish enqueues the encoded event on the async writer. Errors surface via
// the completion callback, not here.
func (s *KafkaSink) Publish(ctx context.Context, e Event) error {
	msg := kafka.Message{
		Key:   []byte(e.Order.ID),
		Value: Encode(e),
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "enqueue event")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
