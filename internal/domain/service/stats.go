package service

import (
	"context"

	"barflow/internal/domain/models"
	"barflow/internal/domain/repository"
)

// VolatilityEstimator computes realized volatility over recent closed bars.
type VolatilityEstimator interface {
	Estimate(ctx context.Context, symbol string, n int, tf repository.Timeframe) (models.VolatilityStats, error)
}
