package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/pkg/logger"
)

// TradeSink consumes validated trades, one at a time.
type TradeSink interface {
	Process(ctx context.Context, t *models.Trade) error
}

// tickPayload is the wire format of a raw tick on the ticks topic. Timestamps
// are unix seconds or milliseconds; milliseconds are normalized on decode.
type tickPayload struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"t"`
	Price  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// msThreshold separates second from millisecond unix timestamps. Anything
// above it is year 33658 in seconds, so it can only be milliseconds.
const msThreshold = int64(1) << 40

// KafkaTicksHandler decodes raw ticks off the ticks topic and feeds them to
// the sink. It satisfies the consumer's MessageHandler contract.
type KafkaTicksHandler struct {
	log     *logger.Logger
	topic   string
	sink    TradeSink
	metrics drepo.Metrics
}

// NewKafkaTicksHandler creates a new KafkaTicksHandler instance.
func NewKafkaTicksHandler(log *logger.Logger, topic string, sink TradeSink, metrics drepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{
		log:     log,
		topic:   topic,
		sink:    sink,
		metrics: metrics,
	}
}

// Topic returns the topic this handler consumes.
func (h *KafkaTicksHandler) Topic() string { return h.topic }

// Handle decodes one tick message and hands it to the sink. Malformed
// messages are counted and dropped without error, so they are not retried.
func (h *KafkaTicksHandler) Handle(ctx context.Context, value []byte) error {
	var p tickPayload
	if err := json.Unmarshal(value, &p); err != nil {
		h.metrics.RecordError("tick_decode")
		h.log.Warn("drop malformed tick", logger.Error(err))
		return nil
	}
	if p.Symbol == "" || p.Time <= 0 || p.Price <= 0 {
		h.metrics.RecordError("tick_invalid")
		return nil
	}

	ts := p.Time
	if ts >= msThreshold {
		ts /= 1000
	}

	t := &models.Trade{
		Symbol:    p.Symbol,
		Timestamp: ts,
		Price:     p.Price,
		Volume:    p.Volume,
	}
	if err := h.sink.Process(ctx, t); err != nil {
		return fmt.Errorf("process tick: %w", err)
	}
	return nil
}
