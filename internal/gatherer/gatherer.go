// Package gatherer fans supervisor and compiler events out to sinks.
package gatherer

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/programme-lv/runterm/api"
)

type Gatherer interface {
	StartCompile(sourcePath string)
	FinishCompile(res api.CompileResult)

	Output(sessionID string, chunk []byte)
	Exit(sessionID string, code int, stats *api.ExecStats)
}

// Hub is a Gatherer that forwards to every subscribed gatherer.
type Hub struct {
	subs *xsync.MapOf[string, Gatherer]
}

func NewHub() *Hub {
	return &Hub{subs: xsync.NewMapOf[string, Gatherer]()}
}

// Subscribe registers g under name, replacing any previous one.
func (h *Hub) Subscribe(name string, g Gatherer) {
	h.subs.Store(name, g)
}

func (h *Hub) Unsubscribe(name string) {
	h.subs.Delete(name)
}

func (h *Hub) Len() int {
	return h.subs.Size()
}

func (h *Hub) each(f func(g Gatherer)) {
	h.subs.Range(func(_ string, g Gatherer) bool {
		f(g)
		return true
	})
}

func (h *Hub) StartCompile(sourcePath string) {
	h.each(func(g Gatherer) { g.StartCompile(sourcePath) })
}

func (h *Hub) FinishCompile(res api.CompileResult) {
	h.each(func(g Gatherer) { g.FinishCompile(res) })
}

func (h *Hub) Output(sessionID string, chunk []byte) {
	h.each(func(g Gatherer) { g.Output(sessionID, chunk) })
}

func (h *Hub) Exit(sessionID string, code int, stats *api.ExecStats) {
	h.each(func(g Gatherer) { g.Exit(sessionID, code, stats) })
}

// Dispatch routes one supervisor event.
func Dispatch(g Gatherer, ev api.Event) {
	switch ev.MsgType {
	case api.OutputMsg:
		g.Output(ev.SessionID, ev.Chunk)
	case api.ExitMsg:
		g.Exit(ev.SessionID, ev.Code, ev.Stats)
	}
}

// Pump dispatches events until the stream is closed or ctx is done.
func Pump(ctx context.Context, g Gatherer, events <-chan api.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			Dispatch(g, ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
