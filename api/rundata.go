package api

// ExecStats is computed once, when a session ends.
// CpuTimeMs is the wall time minus the time spent waiting on user input.
type ExecStats struct {
	WallTimeMs   int64 `json:"wall_ms"`
	CpuTimeMs    int64 `json:"cpu_ms"`
	PeakMemoryKB int64 `json:"mem_kb"`
}

// NewExecStats clamps the input wait into [0, wall].
func NewExecStats(wallMs, inputWaitMs, peakKB int64) *ExecStats {
	if wallMs < 0 {
		wallMs = 0
	}
	if inputWaitMs < 0 {
		inputWaitMs = 0
	}
	if inputWaitMs > wallMs {
		inputWaitMs = wallMs
	}
	return &ExecStats{
		WallTimeMs:   wallMs,
		CpuTimeMs:    wallMs - inputWaitMs,
		PeakMemoryKB: peakKB,
	}
}
