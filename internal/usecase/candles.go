package usecase

import (
	"context"
	"fmt"
	"time"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/pkg/util"
)

const (
	defaultQueryWindow = 24 * time.Hour
	maxQueryLimit      = 50000
)

// CandlesUseCase serves historical and latest bar queries from the store,
// with a cache fast path for single latest-bar lookups.
type CandlesUseCase struct {
	store   drepo.CandleStore
	cache   drepo.LatestCache
	metrics drepo.Metrics
}

// NewCandlesUseCase creates a new CandlesUseCase instance.
func NewCandlesUseCase(store drepo.CandleStore, cache drepo.LatestCache, metrics drepo.Metrics) *CandlesUseCase {
	return &CandlesUseCase{store: store, cache: cache, metrics: metrics}
}

// Query returns bars for a symbol within a time range. The range defaults to
// the last 24 hours and is aligned to bucket boundaries of the timeframe.
func (uc *CandlesUseCase) Query(ctx context.Context, req *models.CandlesRequest) ([]models.Candle, error) {
	tf := drepo.NormalizeTimeframe(req.TF)

	now := time.Now().UTC()
	to := util.ParseTimeDefault(req.To, now)
	from := util.ParseTimeDefault(req.From, to.Add(-defaultQueryWindow))
	if !from.Before(to) {
		return nil, fmt.Errorf("from %s is not before to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	from, to = util.AlignRange(from, to, tf.Duration())

	start := time.Now()
	candles, err := uc.store.Query(ctx, req.Symbol, from, to, tf)
	if err != nil {
		uc.metrics.RecordError("query_candles")
		return nil, fmt.Errorf("query candles: %w", err)
	}
	uc.metrics.RecordLatency("query_candles", time.Since(start).Seconds())

	limit := req.Limit
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// Latest returns the n most recent closed bars for a symbol, newest last.
// A single-bar lookup is answered from the cache when possible.
func (uc *CandlesUseCase) Latest(ctx context.Context, req *models.LatestCandlesRequest) ([]models.Candle, error) {
	tf := drepo.NormalizeTimeframe(req.TF)
	n := req.N
	if n <= 0 {
		n = 1
	}

	if n == 1 && uc.cache != nil {
		if c, err := uc.cache.GetLatest(ctx, req.Symbol, tf); err == nil && c != nil {
			return []models.Candle{*c}, nil
		}
	}

	start := time.Now()
	candles, err := uc.store.Latest(ctx, req.Symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("latest_candles")
		return nil, fmt.Errorf("latest candles: %w", err)
	}
	uc.metrics.RecordLatency("latest_candles", time.Since(start).Seconds())
	return candles, nil
}
