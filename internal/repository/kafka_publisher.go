package repository

import (
	"context"

	"PriceWise/internal/domain/models"
)

// eventProducer is the slice of pkg/kafka.Producer the publisher uses.
type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher implements AnalysisPublisher for Kafka. Events are keyed by keyword so
// analyses of one market stay ordered on a partition.
type KafkaPublisher struct {
	producer eventProducer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer eventProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, r *models.AnalysisRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Product.Keyword), r.Event())
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAnalysis(context.Context, *models.AnalysisRecord) error { return nil }

func (NopPublisher) Close() error { return nil }
