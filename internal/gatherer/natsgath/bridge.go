package natsgath

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/programme-lv/runterm/api"
)

// Commander is the command surface remote clients may drive.
type Commander interface {
	Compile(ctx context.Context, sourcePath string) api.CompileResult
	Run(ctx context.Context, execPath string, cols, rows uint16) (string, error)
	SubmitInput(text string) error
	Resize(cols, rows uint16) error
	Stop() error
}

// Bridge maps <subject>.<op> requests onto a Commander.
type Bridge struct {
	cmd     Commander
	subject string
	logger  *slog.Logger
}

const (
	OpCompile = "compile"
	OpRun     = "run"
	OpInput   = "input"
	OpResize  = "resize"
	OpStop    = "stop"
)

var Ops = []string{OpCompile, OpRun, OpInput, OpResize, OpStop}

var ErrUnknownOp = errors.New("unknown operation")

func NewBridge(cmd Commander, subject string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{cmd: cmd, subject: subject, logger: logger}
}

// Subscribe registers one subscription per operation.
func (b *Bridge) Subscribe(ctx context.Context, nc *nats.Conn) ([]*nats.Subscription, error) {
	subs := make([]*nats.Subscription, 0, len(Ops))
	for _, op := range Ops {
		sub, err := nc.Subscribe(b.subject+"."+op, func(m *nats.Msg) {
			b.serve(ctx, op, m)
		})
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return nil, fmt.Errorf("failed to subscribe to %s.%s: %w", b.subject, op, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (b *Bridge) serve(ctx context.Context, op string, m *nats.Msg) {
	reply, err := b.Handle(ctx, op, m.Data)
	if err != nil {
		b.logger.Warn("remote command failed", "op", op, "err", err)
		reply = api.ErrorResp{Error: err.Error()}
	}
	if m.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		b.logger.Error("failed to marshal reply", "op", op, "err", err)
		return
	}
	if err := m.Respond(data); err != nil {
		b.logger.Warn("failed to respond", "op", op, "err", err)
	}
}

// Handle executes one operation. A nil reply is answered with {}.
func (b *Bridge) Handle(ctx context.Context, op string, data []byte) (interface{}, error) {
	switch op {
	case OpCompile:
		var req api.CompileReq
		if err := decodeReq(data, &req); err != nil {
			return nil, err
		}
		if req.SourcePath == "" {
			return nil, fmt.Errorf("source_path is required")
		}
		return b.cmd.Compile(ctx, req.SourcePath), nil
	case OpRun:
		var req api.RunReq
		if err := decodeReq(data, &req); err != nil {
			return nil, err
		}
		if req.ExecPath == "" {
			return nil, fmt.Errorf("exec_path is required")
		}
		id, err := b.cmd.Run(ctx, req.ExecPath, req.Cols, req.Rows)
		if err != nil {
			return nil, err
		}
		return api.RunResp{SessionID: id}, nil
	case OpInput:
		var req api.InputReq
		if err := decodeReq(data, &req); err != nil {
			return nil, err
		}
		return struct{}{}, b.cmd.SubmitInput(req.Text)
	case OpResize:
		var req api.ResizeReq
		if err := decodeReq(data, &req); err != nil {
			return nil, err
		}
		return struct{}{}, b.cmd.Resize(req.Cols, req.Rows)
	case OpStop:
		return struct{}{}, b.cmd.Stop()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
}

func decodeReq(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed request: %w", err)
	}
	return nil
}
