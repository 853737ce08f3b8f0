package usecase

import (
	"context"
	"fmt"
	"sync"

	"barflow/internal/calendar"
	"barflow/internal/consolidator"
	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/pkg/logger"
)

// ConsolidatorRun owns one consolidation chain per symbol and drives them from
// the tick stream. Timeframes are chained fine to coarse, so a 1m stage is fed
// by closed 1s bars rather than raw ticks. Ticks arriving while the venue is
// closed are dropped before they reach a chain.
type ConsolidatorRun struct {
	log     *logger.Logger
	hours   calendar.Hours
	tfs     []drepo.Timeframe
	proc    *BarProcessor
	broker  *BarBroker
	metrics drepo.Metrics

	ctx context.Context

	mu   sync.Mutex
	runs map[string]*symbolRun
}

type symbolRun struct {
	mu   sync.Mutex
	head consolidator.Consolidator
}

// NewConsolidatorRun creates a new ConsolidatorRun instance. Timeframes must
// be ordered fine to coarse and each coarser period must be a multiple of the
// one before it.
func NewConsolidatorRun(
	log *logger.Logger,
	hours calendar.Hours,
	tfs []drepo.Timeframe,
	proc *BarProcessor,
	broker *BarBroker,
	metrics drepo.Metrics,
) (*ConsolidatorRun, error) {
	if len(tfs) == 0 {
		return nil, fmt.Errorf("no timeframes configured")
	}
	for i := 1; i < len(tfs); i++ {
		prev, cur := tfs[i-1].Duration(), tfs[i].Duration()
		if cur <= prev || cur%prev != 0 {
			return nil, fmt.Errorf("timeframe %s is not a multiple of %s", tfs[i], tfs[i-1])
		}
	}
	return &ConsolidatorRun{
		log:     log,
		hours:   hours,
		tfs:     tfs,
		proc:    proc,
		broker:  broker,
		metrics: metrics,
		ctx:     context.Background(),
		runs:    make(map[string]*symbolRun),
	}, nil
}

// Start pins the context used for routing closed bars. Bars produced after
// ctx is done are still consolidated but their routing may fail fast.
func (r *ConsolidatorRun) Start(ctx context.Context) {
	r.ctx = ctx
}

// Process feeds one trade into its symbol's chain. It implements the pipeline
// Proc contract.
func (r *ConsolidatorRun) Process(ctx context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}
	if !r.hours.IsOpen(t.Time()) {
		r.metrics.RecordError("market_closed")
		return nil
	}

	run, err := r.runFor(t.Symbol)
	if err != nil {
		return err
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return run.head.Update(t)
}

// Flush force-closes every open bucket, routing the partial bars. Called on
// shutdown so in-flight buckets are not lost.
func (r *ConsolidatorRun) Flush() {
	r.mu.Lock()
	runs := make([]*symbolRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	r.mu.Unlock()

	for _, run := range runs {
		run.mu.Lock()
		if f, ok := run.head.(consolidator.Flusher); ok {
			f.Flush()
		}
		run.mu.Unlock()
	}
}

func (r *ConsolidatorRun) runFor(symbol string) (*symbolRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[symbol]; ok {
		return run, nil
	}

	head, err := r.buildChain(symbol)
	if err != nil {
		return nil, fmt.Errorf("build chain for %s: %w", symbol, err)
	}
	run := &symbolRun{head: head}
	r.runs[symbol] = run
	r.log.Debug("consolidation chain built",
		logger.String("symbol", symbol),
		logger.Int("stages", len(r.tfs)))
	return run, nil
}

// buildChain assembles the per-symbol pipeline: a trade stage for the finest
// timeframe, then one candle stage per coarser timeframe, nested right so the
// trade stage is the entry point. Every stage also reports its closed bars to
// the processor and the live broker.
func (r *ConsolidatorRun) buildChain(symbol string) (consolidator.Consolidator, error) {
	stages := make([]consolidator.Consolidator, 0, len(r.tfs))
	stages = append(stages, consolidator.NewTickConsolidator(r.tfs[0].Duration()))
	for _, tf := range r.tfs[1:] {
		stages = append(stages, consolidator.NewCandleConsolidator(tf.Duration()))
	}

	head := stages[len(stages)-1]
	for i := len(stages) - 2; i >= 0; i-- {
		chained, err := consolidator.NewChain(stages[i], head)
		if err != nil {
			return nil, err
		}
		head = chained
	}

	for _, stage := range stages {
		stage.OnConsolidated(func(v interface{}) {
			bar, ok := v.(*models.Candle)
			if !ok {
				return
			}
			r.onBarClosed(symbol, bar)
		})
	}
	return head, nil
}

func (r *ConsolidatorRun) onBarClosed(symbol string, bar *models.Candle) {
	// Detach the bar from the stage's working slot before it crosses a
	// goroutine boundary.
	closed := *bar
	if err := r.proc.Process(r.ctx, &closed); err != nil {
		r.log.Error("route closed bar", logger.Error(err),
			logger.String("symbol", symbol),
			logger.Duration("period", closed.Period))
	}
	if r.broker != nil {
		r.broker.Publish(&closed)
	}
}
