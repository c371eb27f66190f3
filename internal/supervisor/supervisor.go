// Package supervisor runs at most one interactive program at a time and
// turns everything it does into an ordered stream of events.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/monitor"
	"github.com/programme-lv/runterm/internal/proc"
	"github.com/programme-lv/runterm/internal/terminate"
)

var ErrClosed = errors.New("supervisor closed")

const defaultDrainGrace = 200 * time.Millisecond

type runCmd struct {
	path  string
	ws    proc.Winsize
	reply chan string
}

type inputCmd struct{ text string }

type resizeCmd struct{ ws proc.Winsize }

type stopCmd struct{}

// Supervisor owns the live session. All session state is confined to the
// loop goroutine; public methods only send it commands.
type Supervisor struct {
	spawner    proc.Spawner
	monitor    *monitor.Monitor
	strategies terminate.Strategies
	now        func() time.Time
	logger     *slog.Logger
	drainGrace time.Duration

	cmds     chan any
	inbox    chan any
	events   chan api.Event
	quit     chan struct{}
	loopDone chan struct{}
	once     sync.Once
	state    atomic.Int32
	terminal atomic.Bool

	// loop-owned
	live    *session
	retired mapset.Set[string]
	pending []api.Event
}

func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		now:        time.Now,
		drainGrace: defaultDrainGrace,
		cmds:       make(chan any),
		inbox:      make(chan any),
		events:     make(chan api.Event),
		quit:       make(chan struct{}),
		loopDone:   make(chan struct{}),
		retired:    mapset.NewThreadUnsafeSet[string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.spawner == nil {
		s.spawner = proc.Local{Logger: s.logger}
	}
	if s.monitor == nil {
		s.monitor = monitor.New(nil, monitor.DefaultInterval, s.logger)
	}
	if s.strategies.Pty == nil || s.strategies.Pipe == nil || s.strategies.Force == nil {
		s.strategies = terminate.Default(terminate.DefaultWindow, s.logger)
	}

	go s.loop()
	return s
}

// Events delivers output and exit events in order. It is closed by Close.
func (s *Supervisor) Events() <-chan api.Event {
	return s.events
}

func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Terminal reports whether the most recently started session runs under a pty.
func (s *Supervisor) Terminal() bool {
	return s.terminal.Load()
}

// Run replaces any live session with a new one running path. Launch
// failures are reported as events, not as an error.
func (s *Supervisor) Run(ctx context.Context, path string, cols, rows uint16) (string, error) {
	cmd := runCmd{
		path:  path,
		ws:    proc.Winsize{Cols: cols, Rows: rows}.OrDefault(),
		reply: make(chan string, 1),
	}
	select {
	case s.cmds <- cmd:
	case <-s.quit:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case id := <-cmd.reply:
		return id, nil
	case <-s.loopDone:
		return "", ErrClosed
	}
}

// SubmitInput forwards text to the live session, if any.
func (s *Supervisor) SubmitInput(text string) error {
	return s.send(inputCmd{text: text})
}

func (s *Supervisor) Resize(cols, rows uint16) error {
	return s.send(resizeCmd{ws: proc.Winsize{Cols: cols, Rows: rows}})
}

// Stop terminates the live session. Repeated calls are no-ops.
func (s *Supervisor) Stop() error {
	return s.send(stopCmd{})
}

// Close kills the live session and closes the event stream.
func (s *Supervisor) Close() error {
	s.once.Do(func() { close(s.quit) })
	<-s.loopDone
	return nil
}

func (s *Supervisor) send(cmd any) error {
	select {
	case s.cmds <- cmd:
		return nil
	case <-s.quit:
		return ErrClosed
	}
}

// deliver hands a message from a session goroutine to the loop.
func (s *Supervisor) deliver(msg any) bool {
	select {
	case s.inbox <- msg:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Supervisor) loop() {
	defer close(s.loopDone)
	defer close(s.events)

	for {
		var out chan<- api.Event
		var next api.Event
		if len(s.pending) > 0 {
			out = s.events
			next = s.pending[0]
		}

		select {
		case cmd := <-s.cmds:
			s.handle(cmd)
		case msg := <-s.inbox:
			s.receive(msg)
		case out <- next:
			s.pending[0] = api.Event{}
			s.pending = s.pending[1:]
		case <-s.quit:
			s.shutdown()
			return
		}
	}
}

func (s *Supervisor) handle(cmd any) {
	switch c := cmd.(type) {
	case runCmd:
		c.reply <- s.start(c.path, c.ws)
	case inputCmd:
		s.input(c.text)
	case resizeCmd:
		if s.live != nil && s.live.p.Terminal() {
			if err := s.live.p.Resize(c.ws); err != nil {
				s.logger.Warn("failed to resize terminal", "session", s.live.id, "err", err)
			}
		}
	case stopCmd:
		s.stop()
	default:
		panic(fmt.Sprintf("supervisor: unknown command %T", cmd))
	}
}

func (s *Supervisor) receive(msg any) {
	switch m := msg.(type) {
	case outputMsg:
		sess := s.live
		if sess == nil || sess.id != m.id {
			return
		}
		sess.noteOutput(s.now())
		s.emit(api.NewOutputEvent(m.id, m.chunk))
	case exitMsg:
		s.finish(m)
	default:
		panic(fmt.Sprintf("supervisor: unknown message %T", msg))
	}
}

func (s *Supervisor) start(path string, ws proc.Winsize) string {
	if s.live != nil {
		s.retire(s.live)
	}

	id := uuid.NewString()
	log := s.logger.With("session", id, "path", path)
	s.setState(Starting)

	p, err := s.spawner.Spawn(path, ws)
	if err != nil {
		log.Error("failed to spawn program", "err", err)
		s.emit(api.NewOutputEvent(id, []byte(fmt.Sprintf("Error: %v\r\n", err))))
		s.emit(api.NewExitEvent(id, 1, nil))
		s.terminal.Store(false)
		s.setState(Idle)
		return id
	}

	sess := &session{
		id:        id,
		p:         p,
		mon:       s.monitor.Start(p.Pid()),
		startedAt: s.now(),
		writes:    make(chan string, writeQueue),
	}
	s.adopt(sess)
	log.Info("session started", "pid", p.Pid(), "pty", p.Terminal(), "cols", ws.Cols, "rows", ws.Rows)

	drained := make(chan struct{})
	go s.read(sess, drained)
	go s.wait(sess, drained)
	go s.write(sess)
	return id
}

func (s *Supervisor) adopt(sess *session) {
	if s.live != nil {
		panic(fmt.Sprintf("supervisor: session %s started while %s is live", sess.id, s.live.id))
	}
	s.live = sess
	s.terminal.Store(sess.p.Terminal())
	s.setState(Running)
}

// retire kills a superseded session without waiting for it. Its remaining
// events are dropped.
func (s *Supervisor) retire(sess *session) {
	s.logger.Info("replacing session", "session", sess.id)
	sess.stopped = true
	go s.strategies.Force.Terminate(sess.p)
	sess.mon.Stop()
	close(sess.writes)
	s.retired.Add(sess.id)
	s.live = nil
}

func (s *Supervisor) input(text string) {
	sess := s.live
	if sess == nil {
		return
	}
	sess.noteInput(s.now())
	select {
	case sess.writes <- text:
	default:
		s.logger.Warn("input queue full, dropping input", "session", sess.id)
	}
}

func (s *Supervisor) stop() {
	sess := s.live
	if sess == nil || sess.stopped {
		return
	}
	select {
	case <-sess.p.Done():
		// exited on its own; the exit is still draining
		return
	default:
	}
	sess.stopped = true
	sess.killing.Store(true)
	s.logger.Info("stopping session", "session", sess.id, "pty", sess.p.Terminal())
	go s.strategies.For(sess.p.Terminal()).Terminate(sess.p)
}

func (s *Supervisor) finish(m exitMsg) {
	if s.retired.Contains(m.id) {
		s.retired.Remove(m.id)
		return
	}
	sess := s.live
	if sess == nil || sess.id != m.id {
		s.logger.Warn("exit from unknown session", "session", m.id)
		return
	}

	s.setState(Exited)
	peak := sess.mon.Stop()
	code := m.code
	if m.killed {
		code = api.ExitTerminated
	}
	stats := api.NewExecStats(
		m.at.Sub(sess.startedAt).Milliseconds(),
		sess.inputWait.Milliseconds(),
		peak,
	)
	s.logger.Info("session exited", "session", sess.id, "code", code,
		"wall_ms", stats.WallTimeMs, "cpu_ms", stats.CpuTimeMs, "mem_kb", stats.PeakMemoryKB)

	s.emit(api.NewExitEvent(sess.id, code, stats))
	close(sess.writes)
	s.live = nil
	s.setState(Idle)
}

func (s *Supervisor) shutdown() {
	if s.live == nil {
		return
	}
	sess := s.live
	s.logger.Info("killing session on shutdown", "session", sess.id)
	<-s.strategies.Force.Terminate(sess.p)
	sess.mon.Stop()
	close(sess.writes)
	s.live = nil
	s.setState(Idle)
}

func (s *Supervisor) emit(ev api.Event) {
	s.pending = append(s.pending, ev)
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Supervisor) read(sess *session, drained chan<- struct{}) {
	defer close(drained)
	buf := make([]byte, 4096)
	for {
		n, err := sess.p.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !s.deliver(outputMsg{id: sess.id, chunk: chunk}) {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// wait reports the exit only after the reader has delivered everything,
// so the exit event is always the last one of a session.
func (s *Supervisor) wait(sess *session, drained <-chan struct{}) {
	code, err := sess.p.Wait()
	at := s.now()
	killed := sess.killing.Load()
	if err != nil {
		s.logger.Warn("failed to wait for program", "session", sess.id, "err", err)
	}

	select {
	case <-drained:
	case <-time.After(s.drainGrace):
	}
	sess.p.Close()
	select {
	case <-drained:
	case <-time.After(s.drainGrace):
		s.logger.Warn("output reader did not finish", "session", sess.id)
	}

	s.deliver(exitMsg{id: sess.id, code: code, at: at, killed: killed})
}

func (s *Supervisor) write(sess *session) {
	for text := range sess.writes {
		if err := sess.p.Send(text); err != nil {
			s.logger.Debug("failed to send input", "session", sess.id, "err", err)
		}
	}
}
