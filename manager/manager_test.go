//go:build linux

package manager_test

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-io/aiodrv"
	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/manager"
	"github.com/stretchr/testify/require"
)

func newTestManager() *manager.Manager {
	cfg := control.DefaultConfig()
	log := control.NewLogger()
	pol := control.NewLogErrorPolicy(log, control.NewAIOMetrics())
	return manager.New(cfg, nil, log, pol)
}

func waitRunning(t *testing.T, m *manager.Manager) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State() == manager.StateRunning }, 2*time.Second, 5*time.Millisecond)
}

// Scenario 1: start with no custom interfaces and two threads reaches
// running with exactly one (inbuilt) interface registered.
func TestManagerReachesRunningWithInbuiltInterfaceOnly(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Start(0, 2, nil))
	waitRunning(t, m)

	count := 0
	m.ForeachInterface(func(api.Interface) { count++ })
	require.Equal(t, 1, count)

	require.NoError(t, m.Stop())
	require.Equal(t, manager.StateStopped, m.State())
}

// Scenario 2: run_in_io_thread from outside sets a flag within a
// bounded time.
func TestRunInIOThreadExecutesClosure(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Start(0, 1, nil))
	waitRunning(t, m)

	var flag int32
	n := m.RunInIOThread(func() { atomic.StoreInt32(&flag, 1) })
	require.Equal(t, 1, n)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&flag) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, m.Stop())
}

// Scenario 6: send_msg to a thread number that does not exist returns
// zero delivered and leaves state untouched.
func TestSendMsgToUnknownThreadReturnsZero(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Start(0, 1, nil))
	waitRunning(t, m)

	n := m.SendMsg(99, api.NewRelinquishMessage())
	require.Equal(t, 0, n)
	require.Equal(t, manager.StateRunning, m.State())

	require.NoError(t, m.Stop())
}

// Scenario 4 (partial): a global FD registered while running is
// installed into every I/O thread and fires exactly once per edge.
func TestGlobalFDFiresOnce(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Start(0, 2, nil))
	waitRunning(t, m)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var fires int32
	fired := make(chan struct{}, 1)
	cb := func(fd int, cookie any, events api.EventMask) {
		var buf [1]byte
		r.Read(buf[:])
		if atomic.AddInt32(&fires, 1) == 1 {
			fired <- struct{}{}
		}
	}

	d, err := m.AddFD(nil, int(r.Fd()), cb, api.EventRead, api.DefaultPriority, nil, false, -1)
	require.NoError(t, err)
	require.True(t, d.Global)

	_, err = w.Write([]byte{1})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("global fd readiness never fired")
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&fires))

	require.NoError(t, m.Stop())
}

// Stop must join every spawned thread and clear the global FD map.
func TestStopJoinsThreadsAndClearsGlobalFDs(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Start(0, 3, nil))
	waitRunning(t, m)

	require.NoError(t, m.Stop())
	require.Equal(t, manager.StateStopped, m.State())

	count := 0
	m.ForeachFDInfo(func(*api.FDDescriptor) { count++ })
	require.Equal(t, 0, count)
}

func TestAddInterfaceOutsideWindowIsRejected(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Start(0, 1, nil))
	waitRunning(t, m)

	err := m.AddInterface(&noopInterface{})
	require.Error(t, err)

	require.NoError(t, m.Stop())
}

// Scenario 5: stop() while async writes are outstanding on a drive
// interface must not hang and must not panic; every outstanding slot
// is either completed or reclaimed before the thread joins.
func TestStopWithOutstandingAsyncWritesDoesNotHang(t *testing.T) {
	cfg := control.DefaultConfig()
	log := control.NewLogger()
	metrics := control.NewAIOMetrics()
	pol := control.NewLogErrorPolicy(log, metrics)
	m := manager.New(cfg, nil, log, pol)

	drv := aiodrv.New(metrics, pol)
	var completions int32
	drv.AttachCompletionCallback(func(cookie any, result int64) {
		atomic.AddInt32(&completions, 1)
	})

	require.NoError(t, m.Start(1, 1, nil))
	require.NoError(t, m.AddDriveInterface(drv, true))
	waitRunning(t, m)

	f, err := os.CreateTemp(t.TempDir(), "manager-aio")
	require.NoError(t, err)
	defer f.Close()

	done := make(chan struct{})
	n := m.RunInIOThread(func() {
		defer close(done)
		require.NoError(t, drv.AsyncWrite(aioThreadCtx{}, int(f.Fd()), []byte("a"), 0, 1))
		require.NoError(t, drv.AsyncWrite(aioThreadCtx{}, int(f.Fd()), []byte("b"), 1, 2))
	})
	require.Equal(t, 1, n)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("outstanding submissions never issued")
	}

	require.NoError(t, m.Stop())
	require.Equal(t, manager.StateStopped, m.State())
}

// aioThreadCtx stands in for the thread's own context when a test
// closure runs on thread 0 via RunInIOThread: the driver's async path
// only calls ThreadNum() on the value it's given, using it as the key
// into its own per-thread state map populated during OnIOThreadStart.
type aioThreadCtx struct{}

func (aioThreadCtx) ThreadNum() int                     { return 0 }
func (aioThreadCtx) IsIOThread() bool                   { return true }
func (aioThreadCtx) AddFD(d *api.FDDescriptor) error    { return nil }
func (aioThreadCtx) RemoveFD(d *api.FDDescriptor) error { return nil }
func (aioThreadCtx) IsFDAddable(d *api.FDDescriptor) bool { return true }
func (aioThreadCtx) PutMsg(m api.ControlMessage) error  { return nil }

type noopInterface struct{}

func (n *noopInterface) Identify() api.InterfaceType                      { return api.InterfaceCustom }
func (n *noopInterface) AttachCompletionCallback(api.CompletionCallback)  {}
func (n *noopInterface) OnIOThreadStart(api.IOThreadContext) error        { return nil }
func (n *noopInterface) OnIOThreadStopped(api.IOThreadContext)            {}
