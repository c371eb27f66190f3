package sqsgath

import (
	"log/slog"
	"sync"

	"github.com/programme-lv/runterm/api"
)

// ExitReport is the queue message body
type ExitReport struct {
	api.Exit
	SourcePath  string `json:"source_path,omitempty"`
	OutputBytes int64  `json:"output_bytes"`
}

type sqsExitReporter struct {
	sqsClient SendMessageAPI
	queueUrl  string
	logger    *slog.Logger

	mu          sync.Mutex
	sourcePath  string
	outputBytes map[string]int64
}

func (s *sqsExitReporter) StartCompile(sourcePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourcePath = sourcePath
}

func (s *sqsExitReporter) FinishCompile(api.CompileResult) {}

func (s *sqsExitReporter) Output(sessionID string, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputBytes[sessionID] += int64(len(chunk))
}

func (s *sqsExitReporter) Exit(sessionID string, code int, stats *api.ExecStats) {
	s.mu.Lock()
	report := ExitReport{
		Exit:        api.NewExit(sessionID, code, stats),
		SourcePath:  s.sourcePath,
		OutputBytes: s.outputBytes[sessionID],
	}
	delete(s.outputBytes, sessionID)
	s.mu.Unlock()

	s.send(report)
}
