// Package monitor samples the memory of a running process and keeps its peak.
package monitor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultInterval = 50 * time.Millisecond

type Monitor struct {
	sampler  Sampler
	interval time.Duration
	logger   *slog.Logger
}

func New(sampler Sampler, interval time.Duration, logger *slog.Logger) *Monitor {
	if sampler == nil {
		sampler = DefaultSampler()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{sampler: sampler, interval: interval, logger: logger}
}

// Handle belongs to one monitored process.
type Handle struct {
	peak   atomic.Int64
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start begins sampling pid immediately and then on every interval.
func (m *Monitor) Start(pid int) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			kb, err := m.sampler.Sample(ctx, pid)
			if err != nil {
				if ctx.Err() == nil {
					m.logger.Debug("memory sample failed", "pid", pid, "err", err)
				}
			} else {
				h.observe(kb)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return h
}

func (h *Handle) observe(kb int64) {
	for {
		cur := h.peak.Load()
		if kb <= cur || h.peak.CompareAndSwap(cur, kb) {
			return
		}
	}
}

// Peak is the largest sample seen so far.
func (h *Handle) Peak() int64 {
	return h.peak.Load()
}

// Stop ends sampling and returns the peak in KB. After Stop returns no
// further samples are taken. Safe to call more than once.
func (h *Handle) Stop() int64 {
	h.once.Do(func() {
		h.cancel()
		<-h.done
	})
	return h.peak.Load()
}
