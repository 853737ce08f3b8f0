package consolidator

import (
	"fmt"
	"reflect"
	"time"

	"barflow/internal/domain/models"
)

// CandleConsolidator rolls fine-grained candles up into coarser-period ones,
// e.g. second bars into minute bars. Same bucket-close rule as
// TickConsolidator: the working candle closes when an input lands in a later
// bucket.
type CandleConsolidator struct {
	emitter
	period  time.Duration
	working *models.Candle
}

// NewCandleConsolidator creates a candle-to-candle stage for the given period.
func NewCandleConsolidator(period time.Duration) *CandleConsolidator {
	return &CandleConsolidator{period: period}
}

func (cc *CandleConsolidator) InputType() reflect.Type  { return candleType }
func (cc *CandleConsolidator) OutputType() reflect.Type { return candleType }

func (cc *CandleConsolidator) Update(v interface{}) error {
	in, ok := v.(*models.Candle)
	if !ok {
		return fmt.Errorf("candle consolidator: want *models.Candle, got %T", v)
	}
	bucket := in.Bucket.Truncate(cc.period)

	if cc.working != nil {
		if bucket.Before(cc.working.Bucket) {
			return nil // stale bar
		}
		if bucket.After(cc.working.Bucket) {
			cc.emit(cc.working)
			cc.working = nil
		}
	}

	if cc.working == nil {
		cc.working = &models.Candle{
			Symbol:    in.Symbol,
			Bucket:    bucket,
			Period:    cc.period,
			Open:      in.Open,
			High:      in.High,
			Low:       in.Low,
			Close:     in.Close,
			Volume:    in.Volume,
			TickCount: in.TickCount,
		}
		return nil
	}

	cc.working.Merge(in)
	return nil
}

// Flush emits the working candle even though its period has not elapsed.
func (cc *CandleConsolidator) Flush() {
	if cc.working != nil {
		cc.emit(cc.working)
		cc.working = nil
	}
}
