package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/yxshee/biteback/services/api/internal/logger"
)

// KafkaPublisher writes events to a Kafka topic keyed by reservation id,
// so all events of one reservation land on the same partition. Writes are
// asynchronous: Publish only enqueues, delivery failures are logged from
// the writer's completion callback and Close flushes what is pending.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a KafkaPublisher when brokers are configured and a
// NopPublisher otherwise.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 || topic == "" {
		return NopPublisher{}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
			Async:        true,
			Completion:   logDeliveryFailure,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	message, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return errors.Wrapf(err, "publish %s for reservation %s", event.Type, event.ReservationID)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func logDeliveryFailure(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	logger.Default().WithError(err).WithField("messages", len(messages)).Warn("event delivery failed")
}

func encode(event Event) (kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode event")
	}
	return kafka.Message{
		Key:   []byte(event.ReservationID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}, nil
}
