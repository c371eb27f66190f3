package termgath_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/gatherer/termgath"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0ms", termgath.FormatTime(0))
	assert.Equal(t, "999ms", termgath.FormatTime(999))
	assert.Equal(t, "1.00s", termgath.FormatTime(1000))
	assert.Equal(t, "2.35s", termgath.FormatTime(2346))

	assert.Equal(t, "1023 KB", termgath.FormatMemory(1023))
	assert.Equal(t, "1.00 MB", termgath.FormatMemory(1024))
	assert.Equal(t, "1.50 MB", termgath.FormatMemory(1536))
}

func TestExitRendering(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{0, "✓ Program exited normally"},
		{api.ExitTerminated, "⚠ Program terminated"},
		{3, "✗ Program exited with code 3"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		g := termgath.New(&buf)
		g.Exit("s", tc.code, api.NewExecStats(1500, 300, 2048))

		out := buf.String()
		assert.Contains(t, out, strings.Repeat("─", 40))
		assert.Contains(t, out, tc.want+"\r\n")
		assert.Contains(t, out, "⏱ Time: 1.20s  │  💾 Memory: 2.00 MB")
	}
}

func TestExitWithoutStats(t *testing.T) {
	var buf bytes.Buffer
	termgath.New(&buf).Exit("s", 1, nil)
	assert.Contains(t, buf.String(), "✗ Program exited with code 1")
	assert.NotContains(t, buf.String(), "Time:")
}

func TestCompileAndOutput(t *testing.T) {
	var buf bytes.Buffer
	g := termgath.New(&buf)

	g.StartCompile("/home/u/main.c")
	g.FinishCompile(api.NewCompileFailure([]api.Diagnostic{
		{Line: 4, Column: 2, Message: "error: 'x' undeclared"},
		{Line: 0, Message: "ld: failed"},
	}))
	g.Output("s", []byte("raw\x1b[0m"))

	out := buf.String()
	assert.Contains(t, out, "Compiling main.c...")
	assert.Contains(t, out, "✗ Compilation failed\r\nLine 4: error: 'x' undeclared\r\nld: failed\r\n")
	assert.True(t, strings.HasSuffix(out, "raw\x1b[0m"))
}
