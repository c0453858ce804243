// Package poller implements the reference client of the unread-count
// contract: a fixed-interval loop that queries the count and notifies on
// change. Delivery latency is bounded only by the poll period; the server
// never pushes.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UnreadCounter is the single read operation the core exposes to pollers.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Poller periodically reads the unread-ticket count and invokes OnChange
// when it differs from the previous observation.
type Poller struct {
	counter  UnreadCounter
	interval time.Duration
	logger   *zap.Logger
	onChange func(count int)

	last int
	seen bool
}

// New constructs a poller. onChange may be nil, in which case changes are
// only logged.
func New(counter UnreadCounter, interval time.Duration, logger *zap.Logger, onChange func(count int)) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		counter:  counter,
		interval: interval,
		logger:   logger,
		onChange: onChange,
	}
}

// Run polls until ctx is cancelled. Errors are logged and the loop keeps
// going; a transient store failure only delays the next observation.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	count, err := p.counter.UnreadCount(ctx)
	if err != nil {
		p.logger.Warn("unread count poll failed", zap.Error(err))
		return
	}
	if p.seen && count == p.last {
		return
	}
	p.seen = true
	p.last = count
	p.logger.Info("unread tickets", zap.Int("count", count))
	if p.onChange != nil {
		p.onChange(count)
	}
}
