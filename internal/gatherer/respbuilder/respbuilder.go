package respbuilder

import (
	"sync"
	"time"

	"github.com/programme-lv/runterm/api"
)

// DefaultMaxOutput bounds the output kept in a report.
const DefaultMaxOutput = 64 * 1024

// Builder gathers compile and session events and builds an api.RunReport.
// Only the first session seen is recorded.
type Builder struct {
	mu        sync.Mutex
	maxOutput int

	started  time.Time
	finished *time.Time

	compile   *api.CompileResult
	sessionID string
	output    []byte
	truncated bool
	exitCode  *int
	stats     *api.ExecStats
}

func New(maxOutput int) *Builder {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &Builder{maxOutput: maxOutput, started: time.Now()}
}

func (b *Builder) StartCompile(string) {}

func (b *Builder) FinishCompile(res api.CompileResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.compile = &res
}

func (b *Builder) Output(sessionID string, chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.claim(sessionID) {
		return
	}
	room := b.maxOutput - len(b.output)
	if len(chunk) > room {
		chunk = chunk[:room]
		b.truncated = true
	}
	b.output = append(b.output, chunk...)
}

func (b *Builder) Exit(sessionID string, code int, stats *api.ExecStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.claim(sessionID) || b.exitCode != nil {
		return
	}
	now := time.Now()
	b.finished = &now
	b.exitCode = &code
	b.stats = stats
}

func (b *Builder) claim(sessionID string) bool {
	if b.sessionID == "" {
		b.sessionID = sessionID
	}
	return b.sessionID == sessionID
}

// Done reports whether the recorded session has exited.
func (b *Builder) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exitCode != nil
}

// Response builds the report from gathered data.
func (b *Builder) Response() api.RunReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	rep := api.RunReport{
		SessionID: b.sessionID,
		Compile:   b.compile,
		Output:    string(b.output),
		Truncated: b.truncated,
		ExitCode:  b.exitCode,
		Stats:     b.stats,
		StartedAt: b.started.Format(time.RFC3339),
	}
	if b.finished != nil {
		v := b.finished.Format(time.RFC3339)
		rep.FinishedAt = &v
	}
	return rep
}
