//go:build linux

package threadctx_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/threadctx"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu       sync.Mutex
	ifaces   []api.Interface
	started  chan int
	stopped  chan int
	defaults []api.ControlMessage
}

func newFakeHost() *fakeHost {
	return &fakeHost{started: make(chan int, 1), stopped: make(chan int, 1)}
}

func (h *fakeHost) Interfaces() []api.Interface { return h.ifaces }
func (h *fakeHost) OnThreadStarted(n int)        { h.started <- n }
func (h *fakeHost) OnThreadStopped(n int)        { h.stopped <- n }
func (h *fakeHost) DefaultMessageHandler(m api.ControlMessage) {
	h.mu.Lock()
	h.defaults = append(h.defaults, m)
	h.mu.Unlock()
}

func newTestContext() *threadctx.Context {
	metrics := control.NewThreadMetrics()
	log := control.NewLogger()
	pol := control.NewLogErrorPolicy(log, control.NewAIOMetrics())
	return threadctx.New(0, 16, true, metrics, log, pol)
}

func TestContextRunClosureAndRelinquish(t *testing.T) {
	ctx := newTestContext()
	host := newFakeHost()

	done := make(chan error, 1)
	go func() { done <- ctx.Run(host, nil, nil) }()

	select {
	case n := <-host.started:
		require.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("thread did not start")
	}
	require.True(t, ctx.IsIOThread())

	var flag int32
	require.NoError(t, ctx.PutMsg(api.NewRunClosureMessage(func() { flag = 1 })))

	require.Eventually(t, func() bool { return flag == 1 }, time.Second, time.Millisecond)

	require.NoError(t, ctx.PutMsg(api.NewRelinquishMessage()))

	select {
	case n := <-host.stopped:
		require.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("thread did not stop")
	}
	require.NoError(t, <-done)
	require.False(t, ctx.IsIOThread())
}

func TestContextAddFDDispatchesReadiness(t *testing.T) {
	ctx := newTestContext()
	host := newFakeHost()

	go func() { _ = ctx.Run(host, nil, nil) }()
	<-host.started

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := make(chan struct{}, 1)
	d := api.NewFDDescriptor(int(r.Fd()), nil, func(fd int, cookie any, events api.EventMask) {
		var buf [1]byte
		r.Read(buf[:])
		fired <- struct{}{}
	}, api.EventRead, api.DefaultPriority, nil, false)

	require.NoError(t, ctx.AddFD(d))
	_, err = w.Write([]byte{1})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("readiness callback did not fire")
	}
	// opCount is incremented after the callback returns, so it may lag
	// the fired signal briefly.
	require.Eventually(t, func() bool { return ctx.OpCount() == uint64(1) }, time.Second, time.Millisecond)

	require.NoError(t, ctx.PutMsg(api.NewRelinquishMessage()))
	<-host.stopped
}

func TestContextPutMsgBeforeRunningFails(t *testing.T) {
	ctx := newTestContext()
	err := ctx.PutMsg(api.NewRelinquishMessage())
	require.ErrorIs(t, err, api.ErrNotRunning)
}
