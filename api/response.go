package api

// Diagnostic is one compiler message. Line 0 marks an unstructured
// diagnostic carrying the raw compiler text.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

type CompileKind string

const (
	CompileSuccess CompileKind = "success"
	CompileFailure CompileKind = "failure"
)

// CompileResult is either a success with ExecutablePath or a failure
// with Diagnostics.
type CompileResult struct {
	Kind           CompileKind  `json:"kind"`
	ExecutablePath string       `json:"executable_path,omitempty"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
}

func NewCompileSuccess(execPath string) CompileResult {
	return CompileResult{Kind: CompileSuccess, ExecutablePath: execPath}
}

func NewCompileFailure(diags []Diagnostic) CompileResult {
	return CompileResult{Kind: CompileFailure, Diagnostics: diags}
}

// NewCompileError is a failure described by a single unstructured diagnostic.
func NewCompileError(msg string) CompileResult {
	return NewCompileFailure([]Diagnostic{{Line: 0, Column: 0, Message: msg}})
}

func (r CompileResult) Succeeded() bool {
	return r.Kind == CompileSuccess
}

// ErrorResp is the reply to a malformed or rejected remote request
type ErrorResp struct {
	Error string `json:"error"`
}

// RunReport summarises one compile-and-run from start to exit
type RunReport struct {
	SessionID  string         `json:"session_id"`
	Compile    *CompileResult `json:"compile"`
	Output     string         `json:"output"`
	Truncated  bool           `json:"truncated"`
	ExitCode   *int           `json:"exit_code"`
	Stats      *ExecStats     `json:"stats"`
	StartedAt  string         `json:"started_at"`
	FinishedAt *string        `json:"finished_at"`
}
