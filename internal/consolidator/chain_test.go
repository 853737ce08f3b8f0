package consolidator

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barflow/internal/domain/models"
)

// fakeStage is a hand-rolled stage with configurable types that echoes every
// input as output, used to observe wiring behaviour.
type fakeStage struct {
	emitter
	in      reflect.Type
	out     reflect.Type
	updates int
	err     error
}

func (f *fakeStage) InputType() reflect.Type  { return f.in }
func (f *fakeStage) OutputType() reflect.Type { return f.out }

func (f *fakeStage) Update(v interface{}) error {
	f.updates++
	if f.err != nil {
		return f.err
	}
	f.emit(v)
	return nil
}

func tick(sym string, at time.Time, price, vol float64) *models.Trade {
	return &models.Trade{Symbol: sym, Timestamp: at.Unix(), Price: price, Volume: vol}
}

func TestNewChain_TypeMismatch(t *testing.T) {
	a := &fakeStage{in: tradeType, out: candleType}
	b := &fakeStage{in: tradeType, out: candleType} // wants trades, a emits candles

	c, err := NewChain(a, b)
	require.Nil(t, c)

	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, candleType, tm.Output)
	assert.Equal(t, tradeType, tm.Input)
	assert.Contains(t, err.Error(), "*models.Candle")
	assert.Contains(t, err.Error(), "*models.Trade")

	// The failed construction must not have wired anything: driving a
	// directly may not reach b.
	require.NoError(t, a.Update(tick("EURUSD", time.Now(), 1, 1)))
	assert.Equal(t, 0, b.updates)
}

func TestChain_PassThrough(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	ticks := []*models.Trade{
		tick("EURUSD", now, 1.10, 5),
		tick("EURUSD", now.Add(400*time.Millisecond), 1.12, 2),
		tick("EURUSD", now.Add(time.Second), 1.09, 1),
		tick("EURUSD", now.Add(2*time.Second), 1.11, 3),
	}

	// Chained wiring.
	first := NewTickConsolidator(time.Second)
	second := NewCandleConsolidator(time.Minute)
	chain, err := NewChain(first, second)
	require.NoError(t, err)
	for _, tr := range ticks {
		require.NoError(t, chain.Update(tr))
	}

	// Equivalent manual wiring.
	a := NewTickConsolidator(time.Second)
	b := NewCandleConsolidator(time.Minute)
	a.OnConsolidated(func(v interface{}) {
		require.NoError(t, b.Update(v))
	})
	for _, tr := range ticks {
		require.NoError(t, a.Update(tr))
	}

	got, gotOK := chain.Current()
	want, wantOK := b.Current()
	assert.Equal(t, wantOK, gotOK)
	assert.Equal(t, want, got)

	// The chain holds no independent slot: its value is second's.
	direct, ok := second.Current()
	assert.Equal(t, ok, gotOK)
	assert.Same(t, direct, got)
}

func TestChain_Associativity(t *testing.T) {
	build := func(leftNested bool) (Consolidator, *[]time.Time) {
		a := NewTickConsolidator(time.Second)
		b := NewCandleConsolidator(time.Minute)
		c := NewCandleConsolidator(5 * time.Minute)

		var chain Consolidator
		if leftNested {
			ab, err := NewChain(a, b)
			require.NoError(t, err)
			full, err := NewChain(ab, c)
			require.NoError(t, err)
			chain = full
		} else {
			bc, err := NewChain(b, c)
			require.NoError(t, err)
			full, err := NewChain(a, bc)
			require.NoError(t, err)
			chain = full
		}

		fired := &[]time.Time{}
		chain.OnConsolidated(func(v interface{}) {
			*fired = append(*fired, v.(*models.Candle).Bucket)
		})
		return chain, fired
	}

	left, leftFired := build(true)
	right, rightFired := build(false)

	start := time.Date(2025, 3, 4, 10, 2, 30, 0, time.UTC)
	for i := 0; i < 1200; i++ {
		tr := tick("EURUSD", start.Add(time.Duration(i)*time.Second), 1.1+float64(i%7)/1000, 1)
		require.NoError(t, left.Update(tr))
		require.NoError(t, right.Update(tr))
	}

	require.NotEmpty(t, *leftFired)
	assert.Equal(t, *leftFired, *rightFired)

	lv, lok := left.Current()
	rv, rok := right.Current()
	assert.Equal(t, lok, rok)
	assert.Equal(t, lv, rv)
}

func TestChain_TypePassThrough(t *testing.T) {
	chain, err := NewChain(NewTickConsolidator(time.Second), NewCandleConsolidator(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, tradeType, chain.InputType())
	assert.Equal(t, candleType, chain.OutputType())

	_, ok := chain.Current()
	assert.False(t, ok, "no output before anything produced")
}

func TestChain_UpdateErrorPropagates(t *testing.T) {
	boom := errors.New("boom")

	t.Run("first stage", func(t *testing.T) {
		a := &fakeStage{in: tradeType, out: candleType, err: boom}
		b := NewCandleConsolidator(time.Minute)
		chain, err := NewChain(a, b)
		require.NoError(t, err)
		assert.Same(t, boom, chain.Update(tick("EURUSD", time.Now(), 1, 1)))
	})

	t.Run("second stage", func(t *testing.T) {
		a := &fakeStage{in: candleType, out: candleType}
		b := &fakeStage{in: candleType, out: candleType, err: boom}
		chain, err := NewChain(a, b)
		require.NoError(t, err)
		// a echoes the candle inline, b rejects it; the error surfaces
		// from the head Update unwrapped.
		assert.Same(t, boom, chain.Update(&models.Candle{Symbol: "EURUSD"}))
	})
}

func TestChain_EndToEndMinuteBar(t *testing.T) {
	chain, err := NewChain(NewTickConsolidator(time.Second), NewCandleConsolidator(time.Minute))
	require.NoError(t, err)

	var fired []*models.Candle
	chain.OnConsolidated(func(v interface{}) {
		fired = append(fired, v.(*models.Candle))
	})

	// Sixty one-second ticks spanning exactly one minute boundary:
	// 10:04:30 .. 10:05:29.
	start := time.Date(2025, 3, 4, 10, 4, 30, 0, time.UTC)
	for i := 0; i < 60; i++ {
		at := start.Add(time.Duration(i) * time.Second)
		require.NoError(t, chain.Update(tick("EURUSD", at, 1.2+float64(i)/100, 1)))
	}

	require.Len(t, fired, 1)
	bar := fired[0]
	assert.Equal(t, time.Date(2025, 3, 4, 10, 4, 0, 0, time.UTC), bar.Bucket)
	assert.Equal(t, time.Minute, bar.Period)
	assert.Equal(t, 1.20, bar.Open)
	assert.InDelta(t, 1.49, bar.Close, 1e-9)
	assert.Equal(t, 30.0, bar.Volume)
	assert.Equal(t, 30, bar.TickCount)
}
