package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barflow/internal/calendar"
	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
)

func newRunUnderTest(t *testing.T, hours calendar.Hours, tfs []drepo.Timeframe) (*ConsolidatorRun, *fakeStore, *fakeMetrics) {
	t.Helper()
	store := &fakeStore{}
	metrics := newFakeMetrics()
	proc := NewBarProcessor(&fakePublisher{}, store, nil, metrics, "clickhouse")
	run, err := NewConsolidatorRun(newTestLogger(t), hours, tfs, proc, nil, metrics)
	require.NoError(t, err)
	return run, store, metrics
}

func TestConsolidatorRun_EmitsAllTimeframes(t *testing.T) {
	run, store, _ := newRunUnderTest(t, calendar.NewCryptoHours(), []drepo.Timeframe{drepo.TF1s, drepo.TF1m})

	// One tick per second across two full minutes.
	base := time.Date(2025, 3, 3, 10, 4, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		tick := &models.Trade{
			Symbol:    "BTCUSDT",
			Timestamp: base.Add(time.Duration(i) * time.Second).Unix(),
			Price:     50000 + float64(i),
			Volume:    1,
		}
		require.NoError(t, run.Process(context.Background(), tick))
	}

	var seconds, minutes []*models.Candle
	for _, bar := range store.storedBars() {
		switch bar.Period {
		case time.Second:
			seconds = append(seconds, bar)
		case time.Minute:
			minutes = append(minutes, bar)
		}
	}

	assert.Len(t, seconds, 119)
	require.Len(t, minutes, 1)

	m := minutes[0]
	assert.Equal(t, base, m.Bucket)
	assert.Equal(t, 50000.0, m.Open)
	assert.Equal(t, 50059.0, m.Close)
	assert.Equal(t, float64(60), m.Volume)
	assert.Equal(t, 60, m.TickCount)
}

func TestConsolidatorRun_DropsTicksWhileClosed(t *testing.T) {
	run, store, metrics := newRunUnderTest(t, calendar.NewForexHours(), []drepo.Timeframe{drepo.TF1m})

	saturday := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	tick := &models.Trade{Symbol: "EURUSD", Timestamp: saturday.Unix(), Price: 1.07, Volume: 1}
	require.NoError(t, run.Process(context.Background(), tick))

	assert.Empty(t, store.storedBars())
	assert.Equal(t, 1, metrics.errorCount("market_closed"))
}

func TestConsolidatorRun_RejectsBadTimeframeOrder(t *testing.T) {
	proc := NewBarProcessor(&fakePublisher{}, &fakeStore{}, nil, newFakeMetrics(), "clickhouse")

	_, err := NewConsolidatorRun(newTestLogger(t), calendar.NewCryptoHours(),
		[]drepo.Timeframe{drepo.TF1m, drepo.TF1s}, proc, nil, newFakeMetrics())
	require.Error(t, err)

	_, err = NewConsolidatorRun(newTestLogger(t), calendar.NewCryptoHours(),
		nil, proc, nil, newFakeMetrics())
	require.Error(t, err)
}

func TestConsolidatorRun_FlushClosesOpenBuckets(t *testing.T) {
	run, store, _ := newRunUnderTest(t, calendar.NewCryptoHours(), []drepo.Timeframe{drepo.TF1s, drepo.TF1m})

	base := time.Date(2025, 3, 3, 10, 4, 30, 0, time.UTC)
	for i := 0; i < 3; i++ {
		tick := &models.Trade{Symbol: "BTCUSDT", Timestamp: base.Unix(), Price: 50000, Volume: 1}
		require.NoError(t, run.Process(context.Background(), tick))
	}
	assert.Empty(t, store.storedBars())

	run.Flush()

	bars := store.storedBars()
	require.Len(t, bars, 2)
	assert.Equal(t, time.Second, bars[0].Period)
	assert.Equal(t, time.Minute, bars[1].Period)
	assert.Equal(t, 3, bars[1].TickCount)
}

func TestConsolidatorRun_BrokerReceivesClosedBars(t *testing.T) {
	broker := NewBarBroker()
	store := &fakeStore{}
	proc := NewBarProcessor(&fakePublisher{}, store, nil, newFakeMetrics(), "clickhouse")
	run, err := NewConsolidatorRun(newTestLogger(t), calendar.NewCryptoHours(),
		[]drepo.Timeframe{drepo.TF1s}, proc, broker, newFakeMetrics())
	require.NoError(t, err)

	ch, cancel := broker.Subscribe("BTCUSDT", drepo.TF1s, 4)
	defer cancel()

	base := time.Date(2025, 3, 3, 10, 4, 30, 0, time.UTC)
	for i := 0; i < 2; i++ {
		tick := &models.Trade{
			Symbol:    "BTCUSDT",
			Timestamp: base.Add(time.Duration(i) * time.Second).Unix(),
			Price:     50000,
			Volume:    1,
		}
		require.NoError(t, run.Process(context.Background(), tick))
	}

	select {
	case bar := <-ch:
		assert.Equal(t, "BTCUSDT", bar.Symbol)
		assert.Equal(t, time.Second, bar.Period)
	default:
		t.Fatal("expected a closed bar on the subscription channel")
	}
}
