package environment

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/programme-lv/runterm/internal/xdg"
)

const AppName = "runterm"

// Config mirrors config.toml. Durations are written as Go duration strings.
type Config struct {
	Compiler    CompilerConfig    `toml:"compiler"`
	Terminal    TerminalConfig    `toml:"terminal"`
	Monitor     MonitorConfig     `toml:"monitor"`
	Termination TerminationConfig `toml:"termination"`
	Log         LogConfig         `toml:"log"`
	Nats        NatsConfig        `toml:"nats"`
	Sqs         SqsConfig         `toml:"sqs"`

	compileTimeout time.Duration
	sampleInterval time.Duration
	graceWindow    time.Duration
}

type CompilerConfig struct {
	// Command overrides the platform default (clang on macOS, gcc elsewhere)
	Command string `toml:"command"`
	// Timeout of "0s" disables the bound
	Timeout string `toml:"timeout"`
}

type TerminalConfig struct {
	Cols       uint16 `toml:"cols"`
	Rows       uint16 `toml:"rows"`
	DisablePty bool   `toml:"disable_pty"`
}

type MonitorConfig struct {
	Interval string `toml:"interval"`
}

type TerminationConfig struct {
	Grace string `toml:"grace"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type NatsConfig struct {
	URL      string `toml:"url"`
	Subject  string `toml:"subject"`
	Compress bool   `toml:"compress"`
}

type SqsConfig struct {
	QueueURL string `toml:"queue_url"`
	Region   string `toml:"region"`
}

func Default() *Config {
	return &Config{
		Compiler:    CompilerConfig{Timeout: "0s"},
		Terminal:    TerminalConfig{Cols: 80, Rows: 24},
		Monitor:     MonitorConfig{Interval: "50ms"},
		Termination: TerminationConfig{Grace: "500ms"},
		Log:         LogConfig{Level: "info"},
		Nats:        NatsConfig{URL: "nats://127.0.0.1:4222", Subject: AppName},
		Sqs:         SqsConfig{Region: "eu-central-1"},
	}
}

// Load reads path, or the first config.toml found in the XDG config dirs
// when path is empty, then applies .env and RUNTERM_* overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = xdg.NewXDGDirs().FindConfig(AppName, "config.toml")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Decode(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode rejects unknown keys so typos surface early.
func Decode(b []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"RUNTERM_COMPILER":        &c.Compiler.Command,
		"RUNTERM_COMPILE_TIMEOUT": &c.Compiler.Timeout,
		"RUNTERM_SAMPLE_INTERVAL": &c.Monitor.Interval,
		"RUNTERM_GRACE":           &c.Termination.Grace,
		"RUNTERM_LOG_LEVEL":       &c.Log.Level,
		"RUNTERM_NATS_URL":        &c.Nats.URL,
		"RUNTERM_NATS_SUBJECT":    &c.Nats.Subject,
		"RUNTERM_SQS_QUEUE_URL":   &c.Sqs.QueueURL,
		"RUNTERM_SQS_REGION":      &c.Sqs.Region,
	}
	for key, dst := range str {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	flags := map[string]*bool{
		"RUNTERM_DISABLE_PTY":   &c.Terminal.DisablePty,
		"RUNTERM_NATS_COMPRESS": &c.Nats.Compress,
	}
	for key, dst := range flags {
		v := getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// Validate parses every duration and checks the viewport.
func (c *Config) Validate() error {
	var err error
	if c.compileTimeout, err = parseDuration("compiler.timeout", c.Compiler.Timeout); err != nil {
		return err
	}
	if c.sampleInterval, err = parseDuration("monitor.interval", c.Monitor.Interval); err != nil {
		return err
	}
	if c.graceWindow, err = parseDuration("termination.grace", c.Termination.Grace); err != nil {
		return err
	}
	if c.sampleInterval == 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if c.Terminal.Cols == 0 || c.Terminal.Rows == 0 {
		return fmt.Errorf("terminal size must be positive, got %dx%d", c.Terminal.Cols, c.Terminal.Rows)
	}
	return nil
}

func parseDuration(field string, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration %s", field, s)
	}
	return d, nil
}

func (c *Config) CompileTimeout() time.Duration { return c.compileTimeout }
func (c *Config) SampleInterval() time.Duration { return c.sampleInterval }
func (c *Config) GraceWindow() time.Duration    { return c.graceWindow }
