package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/pkg/logger"
)

type fakeStore struct {
	mu      sync.Mutex
	stored  []*models.Candle
	queried []models.Candle
	failing bool
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Store(_ context.Context, c *models.Candle) error {
	if s.failing {
		return fmt.Errorf("store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, c)
	return nil
}

func (s *fakeStore) StoreBatch(ctx context.Context, candles []*models.Candle) error {
	for _, c := range candles {
		if err := s.Store(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) Query(context.Context, string, time.Time, time.Time, drepo.Timeframe) ([]models.Candle, error) {
	return s.queried, nil
}

func (s *fakeStore) Latest(_ context.Context, _ string, n int, _ drepo.Timeframe) ([]models.Candle, error) {
	if n > len(s.queried) {
		n = len(s.queried)
	}
	return s.queried[len(s.queried)-n:], nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

func (s *fakeStore) storedBars() []*models.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Candle, len(s.stored))
	copy(out, s.stored)
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Candle
	failing   bool
}

func (p *fakePublisher) Publish(_ context.Context, c *models.Candle) error {
	if p.failing {
		return fmt.Errorf("broker down")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, c)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, candles []*models.Candle) error {
	for _, c := range candles {
		if err := p.Publish(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeCache struct {
	mu     sync.Mutex
	latest map[string]*models.Candle
}

func newFakeCache() *fakeCache {
	return &fakeCache{latest: make(map[string]*models.Candle)}
}

func (c *fakeCache) SetLatest(_ context.Context, bar *models.Candle) error {
	tf, _ := drepo.TimeframeFor(bar.Period)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[bar.Symbol+"/"+string(tf)] = bar
	return nil
}

func (c *fakeCache) GetLatest(_ context.Context, symbol string, tf drepo.Timeframe) (*models.Candle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bar, ok := c.latest[symbol+"/"+string(tf)]
	if !ok {
		return nil, fmt.Errorf("no latest bar")
	}
	return bar, nil
}

func (c *fakeCache) Close() error { return nil }

type fakeMetrics struct {
	mu     sync.Mutex
	closed []string
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordBarClosed(tf, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, tf+"/"+symbol)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}
