// Package sos implements the on-device SOS flow: a cancellable countdown,
// delivery to emergency contacts and the offline alert queue that is flushed
// when connectivity returns.
package sos

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a countdown state
type State int

const (
	Idle State = iota
	Counting
	Sent
)

func (s State) String() string {
	switch s {
	case Counting:
		return "countdown"
	case Sent:
		return "sent"
	default:
		return "idle"
	}
}

const (
	DefaultTicks    = 5
	DefaultInterval = time.Second
)

var (
	ErrNotIdle   = errors.New("sos countdown is not idle")
	ErrCancelled = errors.New("sos countdown cancelled")
)

// Countdown is the Idle → Countdown → Sent state machine that guards an SOS.
// Cancelling returns it to Idle with nothing sent.
type Countdown struct {
	Ticks    int
	Interval time.Duration
	// OnTick is called with the remaining ticks, for vibration feedback
	OnTick func(remaining int)

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewCountdown returns an idle countdown of DefaultTicks at DefaultInterval
func NewCountdown() *Countdown {
	return &Countdown{Ticks: DefaultTicks, Interval: DefaultInterval}
}

func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run counts down and blocks until the countdown expires, is cancelled or ctx
// is done. It returns nil and leaves the countdown in Sent on expiry.
func (c *Countdown) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	ctx, cancel := context.WithCancel(ctx)
	c.state = Counting
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for remaining := c.Ticks; remaining > 0; {
		if c.OnTick != nil {
			c.OnTick(remaining)
		}
		select {
		case <-ctx.Done():
			c.finish(Idle)
			if errors.Is(ctx.Err(), context.Canceled) {
				return ErrCancelled
			}
			return ctx.Err()
		case <-ticker.C:
			remaining--
		}
	}

	c.finish(Sent)
	return nil
}

func (c *Countdown) finish(s State) {
	c.mu.Lock()
	c.state = s
	c.cancel = nil
	c.mu.Unlock()
}

// Cancel stops a running countdown. It is a no-op when not counting.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Counting && c.cancel != nil {
		c.cancel()
	}
}

// Reset re-arms a countdown that reached Sent
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Sent {
		c.state = Idle
	}
}
