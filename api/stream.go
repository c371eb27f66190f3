package api

import "time"

// MsgType is a message type for streaming events
type MsgType string

// Streaming message type constants
const (
	StartCompileMsg  MsgType = "compile_start"
	FinishCompileMsg MsgType = "compile_finish"
	OutputMsg        MsgType = "output"
	ExitMsg          MsgType = "exit"
)

// ExitTerminated is the exit code reported for sessions stopped by the supervisor.
const ExitTerminated = -9

// Header is the common header for all streaming messages
type Header struct {
	SessionID string  `json:"session_id"`
	MsgType   MsgType `json:"msg_type"`
}

// Event is what the supervisor emits for the live session. Output events
// carry Chunk; exit events carry Code and, when measured, Stats.
type Event struct {
	Header
	Chunk []byte
	Code  int
	Stats *ExecStats
}

// StartCompile message sent when compilation begins
type StartCompile struct {
	Header
	SourcePath  string `json:"source_path"`
	StartedTime string `json:"started_time"`
}

// FinishCompile message sent when compilation completes
type FinishCompile struct {
	Header
	Result CompileResult `json:"result"`
}

// Output message carries one chunk of program output, verbatim
type Output struct {
	Header
	Chunk string `json:"chunk"`
}

// Exit message is always the last message of a session
type Exit struct {
	Header
	Code         int        `json:"code"`
	Stats        *ExecStats `json:"stats"`
	FinishedTime string     `json:"finished_time"`
}

// Helper function to create a header
func NewHeader(sessionID string, msgType MsgType) Header {
	return Header{
		SessionID: sessionID,
		MsgType:   msgType,
	}
}

func NewOutputEvent(sessionID string, chunk []byte) Event {
	return Event{
		Header: NewHeader(sessionID, OutputMsg),
		Chunk:  chunk,
	}
}

func NewExitEvent(sessionID string, code int, stats *ExecStats) Event {
	return Event{
		Header: NewHeader(sessionID, ExitMsg),
		Code:   code,
		Stats:  stats,
	}
}

func NewStartCompile(sourcePath string) StartCompile {
	return StartCompile{
		Header:      NewHeader("", StartCompileMsg),
		SourcePath:  sourcePath,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewFinishCompile(res CompileResult) FinishCompile {
	return FinishCompile{
		Header: NewHeader("", FinishCompileMsg),
		Result: res,
	}
}

func NewOutput(sessionID string, chunk []byte) Output {
	return Output{
		Header: NewHeader(sessionID, OutputMsg),
		Chunk:  string(chunk),
	}
}

func NewExit(sessionID string, code int, stats *ExecStats) Exit {
	return Exit{
		Header:       NewHeader(sessionID, ExitMsg),
		Code:         code,
		Stats:        stats,
		FinishedTime: time.Now().Format(time.RFC3339),
	}
}
