package monitor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Sampler reports the resident set size of a process in kilobytes.
type Sampler interface {
	Sample(ctx context.Context, pid int) (int64, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context, pid int) (int64, error)

func (f SamplerFunc) Sample(ctx context.Context, pid int) (int64, error) {
	return f(ctx, pid)
}

// PsSampler shells out to `ps -o rss= -p <pid>`.
type PsSampler struct{}

func (PsSampler) Sample(ctx context.Context, pid int) (int64, error) {
	out, err := exec.CommandContext(ctx, "ps", "-o", "rss=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ps for pid %d: %w", pid, err)
	}
	return ParseRSS(string(out))
}

// ProcStatusSampler reads VmRSS from /proc/<pid>/status.
type ProcStatusSampler struct {
	// Root defaults to /proc.
	Root string
}

func (s ProcStatusSampler) Sample(_ context.Context, pid int) (int64, error) {
	root := s.Root
	if root == "" {
		root = "/proc"
	}
	b, err := os.ReadFile(fmt.Sprintf("%s/%d/status", root, pid))
	if err != nil {
		return 0, fmt.Errorf("failed to read status of pid %d: %w", pid, err)
	}
	return parseVmRSS(b)
}

// NopSampler always reports zero. Used where no cheap sampler exists.
type NopSampler struct{}

func (NopSampler) Sample(context.Context, int) (int64, error) { return 0, nil }

// DefaultSampler picks the sampler for the running platform.
func DefaultSampler() Sampler {
	switch runtime.GOOS {
	case "linux":
		return ProcStatusSampler{}
	case "windows":
		return NopSampler{}
	default:
		return PsSampler{}
	}
}

// ParseRSS parses the output of `ps -o rss=`.
func ParseRSS(out string) (int64, error) {
	s := strings.TrimSpace(out)
	if s == "" {
		return 0, fmt.Errorf("empty rss output")
	}
	kb, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rss %q: %w", s, err)
	}
	return kb, nil
}

func parseVmRSS(status []byte) (int64, error) {
	sc := bufio.NewScanner(bytes.NewReader(status))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "VmRSS:"))
		if len(fields) == 0 {
			break
		}
		kb, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse VmRSS %q: %w", fields[0], err)
		}
		return kb, nil
	}
	return 0, fmt.Errorf("VmRSS not found")
}
