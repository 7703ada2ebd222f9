package sos

import (
	"context"
	"log/slog"
	"time"
)

// Monitor polls connectivity and flushes the queue on every offline to online
// transition
type Monitor struct {
	Prober   Prober
	Queue    *Queue
	Writer   AlertWriter
	Interval time.Duration
	Logger   *slog.Logger

	online bool
}

// Check probes once and flushes when the device just came back online. It
// reports whether a flush ran.
func (m *Monitor) Check(ctx context.Context) (bool, FlushResult, error) {
	was := m.online
	m.online = m.Prober.Online(ctx)
	if was || !m.online {
		return false, FlushResult{}, nil
	}
	res, err := m.Queue.Flush(ctx, m.Writer)
	return true, res, err
}

// Run checks every Interval until ctx is done. The first probe counts as a
// transition when the device starts online.
func (m *Monitor) Run(ctx context.Context) {
	log := m.Logger
	if log == nil {
		log = slog.Default()
	}
	interval := m.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		flushed, res, err := m.Check(ctx)
		switch {
		case err != nil:
			log.Warn("sos queue flush failed", "sent", res.Sent, "remaining", res.Remaining, "error", err)
		case flushed && res.Sent > 0:
			log.Info("sos queue flushed", "sent", res.Sent, "remaining", res.Remaining)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
