package natsgath

import (
	"log/slog"

	"github.com/programme-lv/runterm/api"
)

type natsGatherer struct {
	pub      Publisher
	subject  string
	compress bool
	logger   *slog.Logger
}

func (s *natsGatherer) StartCompile(sourcePath string) {
	s.send(api.NewStartCompile(sourcePath))
}

func (s *natsGatherer) FinishCompile(res api.CompileResult) {
	res.Diagnostics = trimDiagnostics(res.Diagnostics)
	s.send(api.NewFinishCompile(res))
}

func (s *natsGatherer) Output(sessionID string, chunk []byte) {
	s.send(api.NewOutput(sessionID, chunk))
}

func (s *natsGatherer) Exit(sessionID string, code int, stats *api.ExecStats) {
	s.send(api.NewExit(sessionID, code, stats))
}
