// Package events publishes executed price changes to Kafka for downstream
// consumers (alerting, analytics). Publishing is best-effort and optional:
// without brokers configured the engine runs with the no-op publisher.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

// PriceChange is the event emitted after a successful catalog mutation.
type PriceChange struct {
	ProductID    string   `json:"product_id"`
	VariantID    string   `json:"variant_id"`
	ProductTitle string   `json:"product_title,omitempty"`
	OldPrice     *float64 `json:"old_price,omitempty"`
	NewPrice     float64  `json:"new_price"`
	UpdatedAt    string   `json:"updated_at"`
}

type Publisher interface {
	PublishPriceChange(ctx context.Context, ev PriceChange) error
	Close() error
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishPriceChange(context.Context, PriceChange) error { return nil }
func (NopPublisher) Close() error                                          { return nil }

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

func (p *KafkaPublisher) PublishPriceChange(ctx context.Context, ev PriceChange) error {
	if ev.UpdatedAt == "" {
		ev.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.VariantID),
		Value: sarama.ByteEncoder(payload),
	})
	return err
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
