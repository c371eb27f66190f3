package api

// CompileReq asks to compile the C source file at SourcePath (absolute).
type CompileReq struct {
	SourcePath string `json:"source_path"`
}

// RunReq starts an interactive session. Zero Cols/Rows mean 80x24.
type RunReq struct {
	ExecPath string `json:"exec_path"`
	Cols     uint16 `json:"cols"`
	Rows     uint16 `json:"rows"`
}

type RunResp struct {
	SessionID string `json:"session_id"`
}

type InputReq struct {
	Text string `json:"text"`
}

type ResizeReq struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}
