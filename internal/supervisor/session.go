package supervisor

import (
	"sync/atomic"
	"time"

	"github.com/programme-lv/runterm/internal/monitor"
	"github.com/programme-lv/runterm/internal/proc"
)

const writeQueue = 256

// session is owned by the supervisor loop; only id and p are touched by
// the per-session goroutines.
type session struct {
	id  string
	p   proc.Proc
	mon *monitor.Handle

	startedAt     time.Time
	lastOutputAt  time.Time
	awaitingInput bool
	inputWait     time.Duration

	// stopped is set once the supervisor has started terminating it
	stopped bool
	// killing mirrors stopped for the waiter goroutine
	killing atomic.Bool
	writes  chan string
}

// noteOutput marks the program as waiting for the user.
func (s *session) noteOutput(at time.Time) {
	s.lastOutputAt = at
	s.awaitingInput = true
}

// noteInput counts the gap since the last output as input wait, once per
// output burst.
func (s *session) noteInput(at time.Time) {
	if !s.awaitingInput || s.lastOutputAt.IsZero() {
		return
	}
	if gap := at.Sub(s.lastOutputAt); gap > 0 {
		s.inputWait += gap
	}
	s.awaitingInput = false
}

type outputMsg struct {
	id    string
	chunk []byte
}

type exitMsg struct {
	id   string
	code int
	at   time.Time
	// killed is true when termination was requested before Wait returned
	killed bool
}
