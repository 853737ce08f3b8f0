package repository

import (
	"context"

	"barflow/internal/domain/models"
	"barflow/internal/domain/repository"
	pkgkafka "barflow/pkg/kafka"
)

// KafkaBarPublisher implements CandlePublisher for Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates a Kafka bar publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) repository.CandlePublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func barPayload(c *models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"symbol": c.Symbol,
		"bucket": c.Bucket.Unix(),
		"period": c.Period.String(),
		"o":      c.Open,
		"h":      c.High,
		"l":      c.Low,
		"c":      c.Close,
		"v":      c.Volume,
		"n":      c.TickCount,
	}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, c *models.Candle) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), barPayload(c))
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{Key: []byte(c.Symbol), Value: barPayload(c)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
