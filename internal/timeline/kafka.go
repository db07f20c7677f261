package timeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher mirrors timeline events to a Kafka topic. Produce is
// fire-and-forget: delivery errors are logged in the callback and never
// reach the caller.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects a producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("timeline event encode failed", "kind", event.Kind, "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Kind),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("timeline event publish failed",
				"kind", event.Kind, "event_id", event.ID, "error", err)
		}
	})
}

// Close flushes and releases the underlying client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
