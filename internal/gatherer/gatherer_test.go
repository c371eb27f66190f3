package gatherer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/gatherer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) StartCompile(src string)                 { r.add("start " + src) }
func (r *recorder) FinishCompile(res api.CompileResult)     { r.add("finish " + string(res.Kind)) }
func (r *recorder) Output(id string, chunk []byte)          { r.add("out " + id + " " + string(chunk)) }
func (r *recorder) Exit(id string, _ int, _ *api.ExecStats) { r.add("exit " + id) }

func TestHubFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	h := gatherer.NewHub()
	h.Subscribe("a", a)
	h.Subscribe("b", b)
	require.Equal(t, 2, h.Len())

	h.StartCompile("/x/main.c")
	h.FinishCompile(api.NewCompileSuccess("/x/main"))

	h.Unsubscribe("b")
	h.Output("s1", []byte("hi"))

	assert.Equal(t, []string{"start /x/main.c", "finish success", "out s1 hi"}, a.Calls())
	assert.Equal(t, []string{"start /x/main.c", "finish success"}, b.Calls())
}

func TestPumpDispatchesUntilClosed(t *testing.T) {
	r := &recorder{}
	events := make(chan api.Event, 3)
	events <- api.NewOutputEvent("s1", []byte("a"))
	events <- api.NewOutputEvent("s1", []byte("b"))
	events <- api.NewExitEvent("s1", 0, nil)
	close(events)

	require.NoError(t, gatherer.Pump(context.Background(), r, events))
	assert.Equal(t, []string{"out s1 a", "out s1 b", "exit s1"}, r.Calls())
}

func TestPumpStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := gatherer.Pump(ctx, &recorder{}, make(chan api.Event))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
