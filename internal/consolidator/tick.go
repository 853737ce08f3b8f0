package consolidator

import (
	"fmt"
	"reflect"
	"time"

	"barflow/internal/domain/models"
)

var (
	tradeType  = reflect.TypeOf(&models.Trade{})
	candleType = reflect.TypeOf(&models.Candle{})
)

// TickConsolidator aggregates raw trades into fixed-period candles. A bucket
// is indexed by truncating the tick time to the period; the working candle is
// emitted when a tick lands in a later bucket. Ticks older than the working
// bucket are dropped (the stream is assumed ordered per symbol).
type TickConsolidator struct {
	emitter
	period  time.Duration
	working *models.Candle
}

// NewTickConsolidator creates a trade-to-candle stage for the given period.
func NewTickConsolidator(period time.Duration) *TickConsolidator {
	return &TickConsolidator{period: period}
}

func (tc *TickConsolidator) InputType() reflect.Type  { return tradeType }
func (tc *TickConsolidator) OutputType() reflect.Type { return candleType }

// Update folds one trade into the working candle, closing it first when the
// trade crosses a bucket boundary.
func (tc *TickConsolidator) Update(v interface{}) error {
	t, ok := v.(*models.Trade)
	if !ok {
		return fmt.Errorf("tick consolidator: want *models.Trade, got %T", v)
	}
	bucket := t.Time().Truncate(tc.period)

	if tc.working != nil {
		if bucket.Before(tc.working.Bucket) {
			return nil // stale tick
		}
		if bucket.After(tc.working.Bucket) {
			tc.emit(tc.working)
			tc.working = nil
		}
	}

	if tc.working == nil {
		tc.working = &models.Candle{
			Symbol: t.Symbol,
			Bucket: bucket,
			Period: tc.period,
			Open:   t.Price,
			High:   t.Price,
			Low:    t.Price,
		}
	}

	w := tc.working
	if t.Price > w.High {
		w.High = t.Price
	}
	if t.Price < w.Low {
		w.Low = t.Price
	}
	w.Close = t.Price
	w.Volume += t.Volume
	w.TickCount++
	return nil
}

// Flush emits the working candle even though its period has not elapsed.
func (tc *TickConsolidator) Flush() {
	if tc.working != nil {
		tc.emit(tc.working)
		tc.working = nil
	}
}
