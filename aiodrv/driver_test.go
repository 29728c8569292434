//go:build linux

package aiodrv_test

import (
	"os"
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-io/aiodrv"
	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/stretchr/testify/require"
)

type fakeCtx struct{ n int }

func (c *fakeCtx) ThreadNum() int                          { return c.n }
func (c *fakeCtx) IsIOThread() bool                        { return true }
func (c *fakeCtx) AddFD(d *api.FDDescriptor) error         { return nil }
func (c *fakeCtx) RemoveFD(d *api.FDDescriptor) error      { return nil }
func (c *fakeCtx) IsFDAddable(d *api.FDDescriptor) bool    { return true }
func (c *fakeCtx) PutMsg(m api.ControlMessage) error       { return nil }

func TestDriverSyncReadWriteRoundTrip(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "aiodrv")
	require.NoError(t, err)
	defer f.Close()

	drv := aiodrv.New(control.NewAIOMetrics(), control.NewLogErrorPolicy(control.NewLogger(), control.NewAIOMetrics()))

	payload := []byte("hello aiodrv")
	n, err := drv.SyncWrite(int(f.Fd()), payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	out := make([]byte, len(payload))
	n, err = drv.SyncRead(int(f.Fd()), out, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, out)
}

func TestDriverAsyncReturnsNotRunningWhenThreadStateMissing(t *testing.T) {
	drv := aiodrv.New(control.NewAIOMetrics(), control.NewLogErrorPolicy(control.NewLogger(), control.NewAIOMetrics()))
	ctx := &fakeCtx{n: 42}

	err := drv.AsyncRead(ctx, 0, make([]byte, 8), 0, "cookie")
	require.ErrorIs(t, err, api.ErrNotRunning)
}

func TestDriverIdentify(t *testing.T) {
	drv := aiodrv.New(control.NewAIOMetrics(), control.NewLogErrorPolicy(control.NewLogger(), control.NewAIOMetrics()))
	require.Equal(t, api.InterfaceDrive, drv.Identify())
}

// The submission-slot pool holds api.MaxOutstandingIO records; the
// 201st concurrent async write on one thread must find the pool empty
// and fall back to a synchronous write with an inline completion.
func TestDriverAsyncWriteExhaustsSlotsForcesSyncFallback(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "aiodrv-exhaust")
	require.NoError(t, err)
	defer f.Close()

	metrics := control.NewAIOMetrics()
	drv := aiodrv.New(metrics, control.NewLogErrorPolicy(control.NewLogger(), metrics))

	ctx := &fakeCtx{n: 0}
	require.NoError(t, drv.OnIOThreadStart(ctx))
	defer drv.OnIOThreadStopped(ctx)

	var completions int32
	drv.AttachCompletionCallback(func(cookie any, result int64) {
		atomic.AddInt32(&completions, 1)
	})

	buf := []byte("x")
	for i := 0; i < api.MaxOutstandingIO; i++ {
		require.NoError(t, drv.AsyncWrite(ctx, int(f.Fd()), buf, int64(i), i))
	}
	require.NoError(t, drv.AsyncWrite(ctx, int(f.Fd()), buf, int64(api.MaxOutstandingIO), api.MaxOutstandingIO))

	require.Equal(t, uint64(api.MaxOutstandingIO), metrics.AsyncWriteCount.Load())
	require.Equal(t, uint64(1), metrics.ForcedSyncEmptySlot.Load())
	require.Equal(t, int32(1), atomic.LoadInt32(&completions))
}
