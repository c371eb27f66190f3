package environment_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/runterm/internal/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := environment.Load("")
	require.NoError(t, err)
	assert.Equal(t, uint16(80), cfg.Terminal.Cols)
	assert.Equal(t, uint16(24), cfg.Terminal.Rows)
	assert.Equal(t, time.Duration(0), cfg.CompileTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.SampleInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.GraceWindow())
	assert.Equal(t, "runterm", cfg.Nats.Subject)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[compiler]
command = "clang-17"
timeout = "10s"

[terminal]
cols = 132
rows = 43

[termination]
grace = "1s"

[nats]
subject = "ide"
`), 0644))

	// registered with t.Setenv so the values godotenv exports are undone
	for _, key := range []string{"RUNTERM_NATS_SUBJECT", "RUNTERM_DISABLE_PTY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	require.NoError(t, os.WriteFile(".env", []byte("RUNTERM_NATS_SUBJECT=from-dotenv\nRUNTERM_DISABLE_PTY=true\n"), 0644))
	t.Setenv("RUNTERM_GRACE", "250ms")

	cfg, err := environment.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "clang-17", cfg.Compiler.Command)
	assert.Equal(t, 10*time.Second, cfg.CompileTimeout())
	assert.Equal(t, uint16(132), cfg.Terminal.Cols)
	assert.Equal(t, 250*time.Millisecond, cfg.GraceWindow())
	assert.Equal(t, "from-dotenv", cfg.Nats.Subject)
	assert.True(t, cfg.Terminal.DisablePty)
	assert.Equal(t, 50*time.Millisecond, cfg.SampleInterval())
}

func TestLoadFindsXdgConfig(t *testing.T) {
	isolate(t)

	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "runterm")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[log]\nlevel = \"debug\"\n"), 0644))

	cfg, err := environment.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadInput(t *testing.T) {
	isolate(t)

	cases := map[string]string{
		"unknown key":  "[compiler]\nflags = \"-O2\"\n",
		"bad duration": "[monitor]\ninterval = \"fast\"\n",
		"zero size":    "[terminal]\ncols = 0\n",
		"negative":     "[termination]\ngrace = \"-1s\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := environment.Load(path)
		assert.Error(t, err, name)
	}

	_, err := environment.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadEnvFlag(t *testing.T) {
	isolate(t)
	t.Setenv("RUNTERM_NATS_COMPRESS", "sometimes")
	_, err := environment.Load("")
	assert.Error(t, err)
}
