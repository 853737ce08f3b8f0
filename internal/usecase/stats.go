package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"barflow/internal/calendar"
	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/internal/domain/service"
)

// RealizedVolEstimator computes close-to-close realized volatility from
// stored bars, annualized with the venue's trading-day count.
type RealizedVolEstimator struct {
	store drepo.CandleStore
	hours calendar.Hours
}

// NewRealizedVolEstimator creates a new RealizedVolEstimator instance.
func NewRealizedVolEstimator(store drepo.CandleStore, hours calendar.Hours) *RealizedVolEstimator {
	return &RealizedVolEstimator{store: store, hours: hours}
}

var _ service.VolatilityEstimator = (*RealizedVolEstimator)(nil)

// Estimate computes the stddev of log returns over the last n closed bars.
func (e *RealizedVolEstimator) Estimate(ctx context.Context, symbol string, n int, tf drepo.Timeframe) (models.VolatilityStats, error) {
	if n < 2 {
		return models.VolatilityStats{}, fmt.Errorf("need at least 2 bars, got %d", n)
	}

	bars, err := e.store.Latest(ctx, symbol, n, tf)
	if err != nil {
		return models.VolatilityStats{}, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) < 2 {
		return models.VolatilityStats{}, fmt.Errorf("not enough bars for %s: %d", symbol, len(bars))
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 1 {
		return models.VolatilityStats{}, fmt.Errorf("no usable returns for %s", symbol)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	vol := math.Sqrt(variance)

	barsPerDay := float64(24*time.Hour) / float64(tf.Duration())
	annualized := vol * math.Sqrt(barsPerDay*float64(e.hours.TradingDaysPerYear()))

	return models.VolatilityStats{
		Symbol:     symbol,
		TF:         string(tf),
		Bars:       len(bars),
		MeanReturn: mean,
		Volatility: vol,
		Annualized: annualized,
	}, nil
}
