package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barflow/internal/domain/models"
	"barflow/internal/domain/repository"
	"barflow/pkg/cache"
)

// ErrNoLatest is returned when no bar has been cached for a key yet.
var ErrNoLatest = errors.New("latest cache: no bar")

// CachedLatestBars implements LatestCache on top of a cache.Service (Redis in
// production, memory in tests and single-node setups).
type CachedLatestBars struct {
	svc cache.Service
	ttl time.Duration
}

// NewCachedLatestBars creates a latest-bar cache with the given entry TTL.
func NewCachedLatestBars(svc cache.Service, ttl time.Duration) *CachedLatestBars {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedLatestBars{svc: svc, ttl: ttl}
}

func latestKey(symbol string, tf repository.Timeframe) string {
	return fmt.Sprintf("latest:%s:%s", symbol, tf)
}

func (c *CachedLatestBars) SetLatest(ctx context.Context, bar *models.Candle) error {
	tf, ok := repository.TimeframeFor(bar.Period)
	if !ok {
		return fmt.Errorf("latest cache: unsupported period %s", bar.Period)
	}
	return c.svc.Set(ctx, latestKey(bar.Symbol, tf), bar, c.ttl)
}

func (c *CachedLatestBars) GetLatest(ctx context.Context, symbol string, tf repository.Timeframe) (*models.Candle, error) {
	var bar models.Candle
	err := c.svc.Get(ctx, latestKey(symbol, tf), &bar)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNoLatest
		}
		return nil, err
	}
	return &bar, nil
}

func (c *CachedLatestBars) Close() error {
	return c.svc.Close()
}

var _ repository.LatestCache = (*CachedLatestBars)(nil)
