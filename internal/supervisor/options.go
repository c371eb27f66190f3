package supervisor

import (
	"log/slog"
	"time"

	"github.com/programme-lv/runterm/internal/monitor"
	"github.com/programme-lv/runterm/internal/proc"
	"github.com/programme-lv/runterm/internal/terminate"
)

type Option func(*Supervisor)

func WithSpawner(sp proc.Spawner) Option {
	return func(s *Supervisor) { s.spawner = sp }
}

func WithMonitor(m *monitor.Monitor) Option {
	return func(s *Supervisor) { s.monitor = m }
}

func WithStrategies(st terminate.Strategies) Option {
	return func(s *Supervisor) { s.strategies = st }
}

// WithClock replaces time.Now for all session timing.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithDrainGrace bounds how long an exited session waits for its output
// to be drained, both before and after the terminal is closed.
func WithDrainGrace(d time.Duration) Option {
	return func(s *Supervisor) { s.drainGrace = d }
}
