package termgath

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/diag"
)

// xterm line ending; the local tty may be in raw mode
const eol = "\r\n"

var (
	gray   = color.New(color.FgHiBlack)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
	purple = color.New(color.FgMagenta)
)

// TerminalGatherer renders a session the way the IDE terminal panel does.
type TerminalGatherer struct {
	mu        sync.Mutex
	out       io.Writer
	startedAt time.Time
}

func New(out io.Writer) *TerminalGatherer {
	return &TerminalGatherer{out: out}
}

func (t *TerminalGatherer) StartCompile(sourcePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	gray.Fprintf(t.out, "Compiling %s..."+eol, filepath.Base(sourcePath))
}

func (t *TerminalGatherer) FinishCompile(res api.CompileResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	took := time.Since(t.startedAt).Round(time.Millisecond)
	if res.Succeeded() {
		green.Fprintf(t.out, "✓ Compiled in %s"+eol, took)
		return
	}
	red.Fprint(t.out, "✗ Compilation failed"+eol)
	for _, line := range diag.Lines(res.Diagnostics) {
		fmt.Fprint(t.out, strings.ReplaceAll(line, "\n", eol)+eol)
	}
}

func (t *TerminalGatherer) Output(_ string, chunk []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.Write(chunk)
}

func (t *TerminalGatherer) Exit(_ string, code int, stats *api.ExecStats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprint(t.out, eol)
	gray.Fprint(t.out, strings.Repeat("─", 40)+eol)

	switch code {
	case 0:
		green.Fprint(t.out, "✓ Program exited normally"+eol)
	case api.ExitTerminated:
		yellow.Fprint(t.out, "⚠ Program terminated"+eol)
	default:
		red.Fprintf(t.out, "✗ Program exited with code %d"+eol, code)
	}

	if stats == nil {
		return
	}
	fmt.Fprint(t.out, eol)
	gray.Fprint(t.out, "⏱ Time: ")
	cyan.Fprint(t.out, FormatTime(stats.CpuTimeMs))
	gray.Fprint(t.out, "  │  💾 Memory: ")
	purple.Fprint(t.out, FormatMemory(stats.PeakMemoryKB))
	fmt.Fprint(t.out, eol)
}

// FormatTime shows milliseconds below one second and seconds above.
func FormatTime(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

// FormatMemory shows KB below one megabyte and MB above.
func FormatMemory(kb int64) string {
	if kb < 1024 {
		return fmt.Sprintf("%d KB", kb)
	}
	return fmt.Sprintf("%.2f MB", float64(kb)/1024)
}
