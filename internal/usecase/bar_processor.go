package usecase

import (
	"context"
	"fmt"
	"time"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
)

// BarProcessor routes closed bars to the configured backends and keeps the
// latest-bar cache current.
type BarProcessor struct {
	pub     drepo.CandlePublisher
	store   drepo.CandleStore
	cache   drepo.LatestCache
	metrics drepo.Metrics
	backend string
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(
	pub drepo.CandlePublisher,
	store drepo.CandleStore,
	cache drepo.LatestCache,
	metrics drepo.Metrics,
	backend string,
) *BarProcessor {
	return &BarProcessor{
		pub:     pub,
		store:   store,
		cache:   cache,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single closed bar.
func (p *BarProcessor) Process(ctx context.Context, c *models.Candle) error {
	if c == nil {
		return fmt.Errorf("candle is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, c)
	case "clickhouse":
		err = p.store.Store(ctx, c)
	case "both":
		if err = p.store.Store(ctx, c); err == nil {
			err = p.pub.Publish(ctx, c)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_bar")
		return fmt.Errorf("process bar: %w", err)
	}

	if p.cache != nil {
		if cerr := p.cache.SetLatest(ctx, c); cerr != nil {
			p.metrics.RecordError("latest_cache")
		}
	}

	tf, _ := drepo.TimeframeFor(c.Period)
	p.metrics.RecordBarClosed(string(tf), c.Symbol)
	p.metrics.RecordLastPrice(c.Symbol, c.Close)
	p.metrics.RecordLatency("process_bar", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple closed bars.
func (p *BarProcessor) ProcessBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, candles)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, candles)
	case "both":
		if err = p.store.StoreBatch(ctx, candles); err == nil {
			err = p.pub.PublishBatch(ctx, candles)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_bar_batch")
		return fmt.Errorf("process bar batch: %w", err)
	}

	for _, c := range candles {
		tf, _ := drepo.TimeframeFor(c.Period)
		p.metrics.RecordBarClosed(string(tf), c.Symbol)
	}
	p.metrics.RecordLatency("process_bar_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
	if p.cache != nil {
		_ = p.cache.Close()
	}
}
