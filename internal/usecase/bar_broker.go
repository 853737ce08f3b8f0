package usecase

import (
	"sync"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
)

// BarBroker fans closed bars out to live subscribers. Slow subscribers are
// skipped rather than blocking the consolidation path.
type BarBroker struct {
	mu   sync.RWMutex
	next int
	subs map[int]*barSub
}

type barSub struct {
	symbol string // empty matches all
	tf     drepo.Timeframe
	ch     chan *models.Candle
}

// NewBarBroker creates a new BarBroker instance.
func NewBarBroker() *BarBroker {
	return &BarBroker{subs: make(map[int]*barSub)}
}

// Subscribe registers a subscriber for closed bars. An empty symbol matches
// every symbol. The returned cancel func must be called to release the
// subscription; the channel is closed by the broker.
func (b *BarBroker) Subscribe(symbol string, tf drepo.Timeframe, buffer int) (<-chan *models.Candle, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &barSub{symbol: symbol, tf: tf, ch: make(chan *models.Candle, buffer)}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers a closed bar to matching subscribers.
func (b *BarBroker) Publish(c *models.Candle) {
	tf, ok := drepo.TimeframeFor(c.Period)
	if !ok {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.tf != tf {
			continue
		}
		if s.symbol != "" && s.symbol != c.Symbol {
			continue
		}
		select {
		case s.ch <- c:
		default:
		}
	}
}

// Close drops all subscribers.
func (b *BarBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}
}
