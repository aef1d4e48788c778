package worker

import (
	"time"

	"github.com/okian/kickscore/pkg/logger"
)

// Option applies a configuration option to a Pool.
type Option func(*Pool)

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithJobTimeout bounds a single refresh. Zero disables the bound.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d >= 0 {
			p.jobTimeout = d
		}
	}
}

// WithClock sets the clock used for refresh latency.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}
