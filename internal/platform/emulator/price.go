package emulator

import (
	"fmt"
	"sync"

	"github.com/gamma-omg/quantlab/internal/market"
)

// lastBars remembers the most recent bar replayed for each symbol.
type lastBars struct {
	bars map[string]market.Bar
	mu   sync.RWMutex
}

func newLastBars() *lastBars {
	return &lastBars{
		bars: make(map[string]market.Bar),
	}
}

func (l *lastBars) Update(symbol string, bar market.Bar) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.bars[symbol]; ok && prev.Timestamp > bar.Timestamp {
		return
	}
	l.bars[symbol] = bar
}

func (l *lastBars) Get(symbol string) (bar market.Bar, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bar, ok := l.bars[symbol]
	if !ok {
		err = fmt.Errorf("%w: nothing replayed for %s", market.ErrNoQuote, symbol)
		return
	}

	return
}
