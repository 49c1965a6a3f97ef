// Package kafka publishes domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"
)

const (
	headerEventName = "event_name"
	batchTimeout    = 10 * time.Millisecond
)

// MessageWriter is the subset of *kafka.Writer used by Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events as JSON messages. Keyed events use their key as the
// message key so one order's events land on one partition.
type Publisher struct {
	w     MessageWriter
	topic string
	log   observability.Logger
}

// NewWriter builds a writer for topic on brokers.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(w MessageWriter, topic string, logger observability.Logger) *Publisher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Publisher{
		w:     w,
		topic: topic,
		log:   logger.With(observability.F("component", "kafka_publisher"), observability.F("topic", topic)),
	}
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	msg, err := Message(ctx, e)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		logctx.FromOr(ctx, p.log).Warn("kafka_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
		return fmt.Errorf("kafka: publish %s: %w", e.EventName(), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

// Message encodes e as JSON and carries the W3C trace context of ctx in its headers.
func Message(ctx context.Context, e domoutbox.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}

	msg := kafka.Message{
		Value:   value,
		Headers: []kafka.Header{{Key: headerEventName, Value: []byte(e.EventName())}},
		Time:    time.Now().UTC(),
	}
	if k, ok := e.(domoutbox.Keyed); ok {
		msg.Key = []byte(k.EventKey())
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return msg, nil
}

// Relay forwards every event named in eventNames from sub to p.
func (p *Publisher) Relay(sub domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		sub.Subscribe(name, p.Publish)
	}
}
