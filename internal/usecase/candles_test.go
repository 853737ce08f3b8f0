package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
)

func storedMinuteBars(n int) []models.Candle {
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Symbol: "EURUSD",
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Period: time.Minute,
			Open:   1.07,
			High:   1.08,
			Low:    1.06,
			Close:  1.075,
		}
	}
	return out
}

func TestCandlesUseCase_QueryAppliesLimit(t *testing.T) {
	store := &fakeStore{queried: storedMinuteBars(10)}
	uc := NewCandlesUseCase(store, nil, newFakeMetrics())

	got, err := uc.Query(context.Background(), &models.CandlesRequest{
		Symbol: "EURUSD",
		TF:     "1m",
		Limit:  3,
	})
	require.NoError(t, err)

	// Limit keeps the newest bars.
	require.Len(t, got, 3)
	assert.Equal(t, store.queried[9].Bucket, got[2].Bucket)
	assert.Equal(t, store.queried[7].Bucket, got[0].Bucket)
}

func TestCandlesUseCase_QueryRejectsInvertedRange(t *testing.T) {
	uc := NewCandlesUseCase(&fakeStore{}, nil, newFakeMetrics())

	_, err := uc.Query(context.Background(), &models.CandlesRequest{
		Symbol: "EURUSD",
		From:   "2025-03-03T12:00:00Z",
		To:     "2025-03-03T10:00:00Z",
	})
	require.Error(t, err)
}

func TestCandlesUseCase_LatestPrefersCache(t *testing.T) {
	cache := newFakeCache()
	cached := &models.Candle{Symbol: "EURUSD", Period: time.Minute, Close: 1.09}
	require.NoError(t, cache.SetLatest(context.Background(), cached))

	// Empty store: a cache miss would return nothing.
	uc := NewCandlesUseCase(&fakeStore{}, cache, newFakeMetrics())

	got, err := uc.Latest(context.Background(), &models.LatestCandlesRequest{Symbol: "EURUSD", TF: "1m", N: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.09, got[0].Close)
}

func TestCandlesUseCase_LatestFallsBackToStore(t *testing.T) {
	store := &fakeStore{queried: storedMinuteBars(5)}
	uc := NewCandlesUseCase(store, newFakeCache(), newFakeMetrics())

	got, err := uc.Latest(context.Background(), &models.LatestCandlesRequest{Symbol: "EURUSD", TF: "1m", N: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCandlesUseCase_UnknownTimeframeDefaults(t *testing.T) {
	store := &fakeStore{queried: storedMinuteBars(1)}
	uc := NewCandlesUseCase(store, nil, newFakeMetrics())

	got, err := uc.Query(context.Background(), &models.CandlesRequest{Symbol: "EURUSD", TF: "7h"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	assert.Equal(t, drepo.TF1m, drepo.NormalizeTimeframe("7h"))
}
