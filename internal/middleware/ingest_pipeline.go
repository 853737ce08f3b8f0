package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
)

// TradeSink consumes validated trades, one at a time.
type TradeSink interface {
	Process(ctx context.Context, t *models.Trade) error
}

// TickPipeline sits between the tick consumer and the consolidation run. It
// validates ticks, filters by the configured symbol set, throttles per symbol,
// and buffers ticks for retry when the sink errors.
type TickPipeline struct {
	sink    TradeSink
	metrics drepo.Metrics

	symbols map[string]struct{} // empty means accept all
	maxRPS  int

	bufCh  chan *models.Trade
	stopCh chan struct{}

	mu       sync.Mutex
	started  bool
	lastSeen map[string]time.Time
}

// PipelineOption configures TickPipeline.
type PipelineOption func(*TickPipeline)

// WithSymbols restricts the pipeline to the given symbols. An empty list
// accepts everything.
func WithSymbols(symbols []string) PipelineOption {
	return func(p *TickPipeline) {
		for _, s := range symbols {
			p.symbols[s] = struct{}{}
		}
	}
}

// WithMaxRPS caps accepted ticks per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.Trade, n)
		}
	}
}

// NewTickPipeline creates a new TickPipeline instance.
func NewTickPipeline(sink TradeSink, metrics drepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		sink:     sink,
		metrics:  metrics,
		symbols:  make(map[string]struct{}),
		maxRPS:   0, // unthrottled by default; real-time bars want every tick
		bufCh:    make(chan *models.Trade, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches background retry of buffered ticks.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.sink.Process(ctx, t); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_retry")
					time.Sleep(backoff)
					select {
					case p.bufCh <- t:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background retry loop.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Process validates, filters, and forwards one tick, buffering it for retry
// when the sink errors.
func (p *TickPipeline) Process(ctx context.Context, t *models.Trade) error {
	start := time.Now()
	if err := validateTrade(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if len(p.symbols) > 0 {
		if _, ok := p.symbols[t.Symbol]; !ok {
			p.metrics.RecordError("pipeline_symbol_filter")
			return nil
		}
	}
	if !p.allow(t.Symbol, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.sink.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- t:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTrade(t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price <= 0 || t.Volume < 0 {
		return fmt.Errorf("invalid price/volume")
	}
	return nil
}

func (p *TickPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
