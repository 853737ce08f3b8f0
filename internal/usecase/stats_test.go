package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barflow/internal/calendar"
	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
)

func barsWithCloses(closes ...float64) []models.Candle {
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Symbol: "BTCUSDT",
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Period: time.Minute,
			Close:  c,
		}
	}
	return out
}

func TestRealizedVol_ConstantGrowthHasZeroVol(t *testing.T) {
	store := &fakeStore{queried: barsWithCloses(100, 110, 121)}
	est := NewRealizedVolEstimator(store, calendar.NewCryptoHours())

	got, err := est.Estimate(context.Background(), "BTCUSDT", 3, drepo.TF1m)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Bars)
	assert.InDelta(t, math.Log(1.1), got.MeanReturn, 1e-12)
	assert.InDelta(t, 0, got.Volatility, 1e-12)
	assert.InDelta(t, 0, got.Annualized, 1e-9)
}

func TestRealizedVol_AnnualizationUsesCalendar(t *testing.T) {
	// Alternating returns with known stddev.
	store := &fakeStore{queried: barsWithCloses(100, 100*math.E, 100)}

	crypto := NewRealizedVolEstimator(store, calendar.NewCryptoHours())
	forex := NewRealizedVolEstimator(store, calendar.NewForexHours())

	c, err := crypto.Estimate(context.Background(), "BTCUSDT", 3, drepo.TF1m)
	require.NoError(t, err)
	f, err := forex.Estimate(context.Background(), "BTCUSDT", 3, drepo.TF1m)
	require.NoError(t, err)

	// Per-bar vol is stddev of {+1, -1} = 1.
	assert.InDelta(t, 1.0, c.Volatility, 1e-12)

	barsPerDay := float64(24 * 60)
	assert.InDelta(t, math.Sqrt(barsPerDay*365), c.Annualized, 1e-6)
	assert.InDelta(t, math.Sqrt(barsPerDay*260), f.Annualized, 1e-6)
}

func TestRealizedVol_NotEnoughBars(t *testing.T) {
	store := &fakeStore{queried: barsWithCloses(100)}
	est := NewRealizedVolEstimator(store, calendar.NewCryptoHours())

	_, err := est.Estimate(context.Background(), "BTCUSDT", 1, drepo.TF1m)
	require.Error(t, err)

	_, err = est.Estimate(context.Background(), "BTCUSDT", 5, drepo.TF1m)
	require.Error(t, err)
}
