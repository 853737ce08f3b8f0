package repository

import (
	"context"
	"time"

	"barflow/internal/domain/models"
)

// CandleStore persists and queries consolidated bars.
type CandleStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.Candle) error
	StoreBatch(ctx context.Context, candles []*models.Candle) error
	Query(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	Latest(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// CandlePublisher pushes closed bars downstream.
type CandlePublisher interface {
	Publish(ctx context.Context, c *models.Candle) error
	PublishBatch(ctx context.Context, candles []*models.Candle) error
	Close() error
}

// LatestCache keeps the most recent closed bar per (symbol, timeframe).
type LatestCache interface {
	SetLatest(ctx context.Context, c *models.Candle) error
	GetLatest(ctx context.Context, symbol string, tf Timeframe) (*models.Candle, error)
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordBarClosed(tf, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
