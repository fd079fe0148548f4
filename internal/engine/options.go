package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/tradingcore/internal/ids"
	"github.com/efreitasn/tradingcore/internal/ledger"
)

// Clock supplies order timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts an ordinary function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f().
func (f ClockFunc) Now() time.Time {
	return f()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const (
	defaultDepthLimit         = 50
	defaultExpirationInterval = time.Second
)

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy sets the matching strategy. Default: PriceTimePriority.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		if s != nil {
			e.strategy = s
		}
	}
}

// WithClock sets the timestamp source. Default: the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithIDGenerator sets the generator for order and trade IDs. Default: ULID.
func WithIDGenerator(g ids.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithLogger sets the logger. Default: a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithLedger sets the portfolio ledger, letting callers share or pre-fund one.
func WithLedger(l *ledger.Ledger) Option {
	return func(e *Engine) {
		if l != nil {
			e.ledger = l
		}
	}
}

// WithObservers registers trade observers at construction.
func WithObservers(obs ...TradeObserver) Option {
	return func(e *Engine) {
		for _, o := range obs {
			if o != nil {
				e.observers = append(e.observers, o)
			}
		}
	}
}

// WithDepthLimit caps the number of levels Depth may return. Default: 50.
func WithDepthLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.depthLimit = n
		}
	}
}

// WithExpirationInterval sets how often good-till-date orders are swept.
// Default: one second.
func WithExpirationInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.expirationInterval = d
		}
	}
}
