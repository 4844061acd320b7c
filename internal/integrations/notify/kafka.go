package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"leadgate/internal/platform/kafka/producer"
)

// Producer publishes one record.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink publishes events keyed by channel so each channel stays ordered.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafka(p Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Send(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(e.Channel),
		Value: value,
		Headers: map[string]string{
			"event_type": e.Type,
			"channel":    string(e.Channel),
		},
	})
}
