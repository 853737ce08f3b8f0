package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barflow/internal/domain/models"
)

type recordingSink struct {
	mu     sync.Mutex
	trades []*models.Trade
	err    error
}

func (s *recordingSink) Process(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.trades = append(s.trades, t)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

func (s *recordingSink) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordBarClosed(string, string)  {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validTick(symbol string) *models.Trade {
	return &models.Trade{Symbol: symbol, Timestamp: 1741000000, Price: 1.07, Volume: 1}
}

func TestTickPipeline_ForwardsValidTicks(t *testing.T) {
	sink := &recordingSink{}
	p := NewTickPipeline(sink, newCountingMetrics())

	require.NoError(t, p.Process(context.Background(), validTick("EURUSD")))
	assert.Equal(t, 1, sink.count())
}

func TestTickPipeline_RejectsInvalidTicks(t *testing.T) {
	sink := &recordingSink{}
	metrics := newCountingMetrics()
	p := NewTickPipeline(sink, metrics)

	cases := []*models.Trade{
		nil,
		{Symbol: "", Timestamp: 1741000000, Price: 1.07},
		{Symbol: "EURUSD", Timestamp: 0, Price: 1.07},
		{Symbol: "EURUSD", Timestamp: 1741000000, Price: 0},
		{Symbol: "EURUSD", Timestamp: 1741000000, Price: 1.07, Volume: -1},
	}
	for _, tc := range cases {
		assert.Error(t, p.Process(context.Background(), tc))
	}
	assert.Equal(t, 0, sink.count())
	assert.Equal(t, len(cases), metrics.count("pipeline_validate"))
}

func TestTickPipeline_SymbolFilter(t *testing.T) {
	sink := &recordingSink{}
	metrics := newCountingMetrics()
	p := NewTickPipeline(sink, metrics, WithSymbols([]string{"EURUSD"}))

	require.NoError(t, p.Process(context.Background(), validTick("EURUSD")))
	require.NoError(t, p.Process(context.Background(), validTick("GBPUSD")))

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, metrics.count("pipeline_symbol_filter"))
}

func TestTickPipeline_Throttle(t *testing.T) {
	sink := &recordingSink{}
	metrics := newCountingMetrics()
	p := NewTickPipeline(sink, metrics, WithMaxRPS(1))

	require.NoError(t, p.Process(context.Background(), validTick("EURUSD")))
	require.NoError(t, p.Process(context.Background(), validTick("EURUSD")))

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, metrics.count("pipeline_throttle"))
}

func TestTickPipeline_BuffersAndRetries(t *testing.T) {
	sink := &recordingSink{}
	sink.setErr(fmt.Errorf("downstream down"))
	metrics := newCountingMetrics()
	p := NewTickPipeline(sink, metrics, WithBufferSize(8))

	require.Error(t, p.Process(context.Background(), validTick("EURUSD")))
	assert.Equal(t, 1, metrics.count("pipeline_process"))

	p.Start(context.Background())
	defer p.Stop()
	sink.setErr(nil)

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, sink.count())
}
