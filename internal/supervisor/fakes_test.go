package supervisor_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/monitor"
	"github.com/programme-lv/runterm/internal/proc"
	"github.com/programme-lv/runterm/internal/supervisor"
	"github.com/programme-lv/runterm/internal/terminate"
	"github.com/stretchr/testify/require"
)

type fakeProc struct {
	pid       int
	terminal  bool
	obeysTerm bool

	// holdsOutput keeps Read blocked after exit, like a grandchild holding the pty
	holdsOutput bool

	out    chan []byte
	inputs chan string
	exited chan struct{}
	closed chan struct{}

	mu        sync.Mutex
	code      int
	signals   []os.Signal
	kills     int
	sizes     []proc.Winsize
	exitOnce  sync.Once
	closeOnce sync.Once
}

func newFakeProc(pid int, terminal bool) *fakeProc {
	return &fakeProc{
		pid:      pid,
		terminal: terminal,
		out:      make(chan []byte),
		inputs:   make(chan string, 16),
		exited:   make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// emit blocks until the supervisor's reader has taken the chunk.
func (p *fakeProc) emit(t *testing.T, s string) {
	t.Helper()
	select {
	case p.out <- []byte(s):
	case <-time.After(5 * time.Second):
		t.Fatal("output was not read")
	}
}

func (p *fakeProc) exit(code int) {
	p.exitOnce.Do(func() {
		p.mu.Lock()
		p.code = code
		p.mu.Unlock()
		close(p.exited)
	})
}

func (p *fakeProc) Pid() int       { return p.pid }
func (p *fakeProc) Terminal() bool { return p.terminal }

func (p *fakeProc) Read(b []byte) (int, error) {
	exited := p.exited
	if p.holdsOutput {
		exited = nil
	}
	select {
	case chunk := <-p.out:
		return copy(b, chunk), nil
	case <-exited:
		return 0, io.EOF
	case <-p.closed:
		return 0, io.EOF
	}
}

func (p *fakeProc) Send(text string) error {
	p.inputs <- text
	return nil
}

func (p *fakeProc) Resize(ws proc.Winsize) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, ws)
	return nil
}

func (p *fakeProc) Wait() (int, error) {
	<-p.exited
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, nil
}

func (p *fakeProc) Done() <-chan struct{} { return p.exited }

func (p *fakeProc) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	p.mu.Unlock()
	if p.obeysTerm {
		p.exit(-1)
	}
	return nil
}

func (p *fakeProc) Kill() error {
	p.mu.Lock()
	p.kills++
	p.mu.Unlock()
	p.exit(-1)
	return nil
}

func (p *fakeProc) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func (p *fakeProc) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

func (p *fakeProc) Kills() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}

func (p *fakeProc) Sizes() []proc.Winsize {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]proc.Winsize(nil), p.sizes...)
}

type fakeSpawner struct {
	mu    sync.Mutex
	procs []*fakeProc
	err   error
	paths []string
	sizes []proc.Winsize
}

func (s *fakeSpawner) Spawn(path string, ws proc.Winsize) (proc.Proc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	s.sizes = append(s.sizes, ws)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.procs) == 0 {
		return nil, errors.New("no more fake processes")
	}
	p := s.procs[0]
	s.procs = s.procs[1:]
	return p, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const fakePeakKB = 512

func newTestSupervisor(t *testing.T, sp proc.Spawner, opts ...supervisor.Option) *supervisor.Supervisor {
	t.Helper()
	sampler := monitor.SamplerFunc(func(context.Context, int) (int64, error) { return fakePeakKB, nil })
	force := terminate.Forceful{}
	base := []supervisor.Option{
		supervisor.WithSpawner(sp),
		supervisor.WithMonitor(monitor.New(sampler, time.Millisecond, nil)),
		supervisor.WithStrategies(terminate.Strategies{
			Pty:   force,
			Pipe:  terminate.Graceful{Window: 50 * time.Millisecond, Forceful: force},
			Force: force,
		}),
		supervisor.WithDrainGrace(20 * time.Millisecond),
	}
	s := supervisor.New(append(base, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s
}

func nextEvent(t *testing.T, s *supervisor.Supervisor) api.Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "event stream closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return api.Event{}
	}
}

// untilExit collects events up to and including the exit of session id.
func untilExit(t *testing.T, s *supervisor.Supervisor, id string) []api.Event {
	t.Helper()
	var evs []api.Event
	for {
		ev := nextEvent(t, s)
		evs = append(evs, ev)
		if ev.SessionID == id && ev.MsgType == api.ExitMsg {
			return evs
		}
	}
}

func noEvent(t *testing.T, s *supervisor.Supervisor, d time.Duration) {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		if ok {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(d):
	}
}

func waitInput(t *testing.T, p *fakeProc) string {
	t.Helper()
	select {
	case s := <-p.inputs:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("input not delivered")
		return ""
	}
}
