//go:build !windows

package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/app"
	"github.com/programme-lv/runterm/internal/compile"
	"github.com/programme-lv/runterm/internal/gatherer/respbuilder"
	"github.com/programme-lv/runterm/internal/proc"
	"github.com/programme-lv/runterm/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCC "compiles" by writing a shell script to the -o path.
const fakeCC = `#!/bin/sh
out="$3"
if grep -q BROKEN "$1"; then
  echo "$1:2:1: error: expected declaration" >&2
  exit 1
fi
printf '#!/bin/sh\nread x\necho "got $x"\n' > "$out"
chmod +x "$out"
`

func newService(t *testing.T) *app.Service {
	t.Helper()
	dir := t.TempDir()
	cc := filepath.Join(dir, "cc")
	require.NoError(t, os.WriteFile(cc, []byte(fakeCC), 0755))

	svc := app.New(
		compile.New(compile.WithCommand(cc)),
		supervisor.New(supervisor.WithSpawner(proc.Local{DisablePty: true})),
		proc.Winsize{},
		nil,
	)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestCompileAndRun(t *testing.T) {
	svc := newService(t)
	rb := respbuilder.New(0)
	svc.Hub().Subscribe("report", rb)

	pumped := make(chan error, 1)
	go func() { pumped <- svc.Pump(context.Background()) }()

	src := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(src, []byte("int main(void) { return 0; }\n"), 0644))

	res := svc.Compile(context.Background(), src)
	require.True(t, res.Succeeded(), "%+v", res)

	_, err := svc.Run(context.Background(), res.ExecutablePath, 0, 0)
	require.NoError(t, err)
	require.NoError(t, svc.SubmitInput("21"))

	require.Eventually(t, rb.Done, 5*time.Second, 5*time.Millisecond)
	rep := rb.Response()
	assert.Contains(t, rep.Output, "got 21")
	require.NotNil(t, rep.ExitCode)
	assert.Equal(t, 0, *rep.ExitCode)
	require.NotNil(t, rep.Compile)
	assert.Equal(t, api.CompileSuccess, rep.Compile.Kind)

	require.NoError(t, svc.Close())
	select {
	case err := <-pumped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestCompileFailureReachesHub(t *testing.T) {
	svc := newService(t)
	rb := respbuilder.New(0)
	svc.Hub().Subscribe("report", rb)

	src := filepath.Join(t.TempDir(), "bad.c")
	require.NoError(t, os.WriteFile(src, []byte("BROKEN\n"), 0644))

	res := svc.Compile(context.Background(), src)
	require.False(t, res.Succeeded())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, 2, res.Diagnostics[0].Line)

	rep := rb.Response()
	require.NotNil(t, rep.Compile)
	assert.Equal(t, res, *rep.Compile)
}
