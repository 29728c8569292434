// File: threadctx/context.go
// Author: momentics <momentics@gmail.com>
//
// Per-thread context (spec component D): owns the readiness
// multiplexer, the message descriptor, the bounded MPMC control
// message queue, and drives the event loop. Grounded on the retired
// LinuxPoller/EventLoop pairing (epoll wait + adaptive drain loop) but
// rebuilt around a single multiplexer wait carrying both readiness and
// control-message wakeups, matching the spec's single-suspension-point
// event loop.

package threadctx

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/queue"
	"github.com/momentics/hioload-io/reactor"
	"github.com/sirupsen/logrus"
)

// ThreadHost is the narrow slice of the manager's contract a per-thread
// context needs from its owner. Kept separate from api.Interface/api.Control
// so threadctx never imports the manager package (which imports threadctx).
type ThreadHost interface {
	// Interfaces returns the currently registered interfaces, in
	// registration order, for the thread-start/stop hook sequence.
	Interfaces() []api.Interface

	// OnThreadStarted notifies the host that this thread has completed
	// its start sequence and entered I/O-thread state.
	OnThreadStarted(threadNum int)

	// OnThreadStopped notifies the host that this thread has left
	// I/O-thread state and its loop has returned.
	OnThreadStopped(threadNum int)

	// DefaultMessageHandler is invoked for MsgCustom messages when the
	// thread has no message-handler override installed.
	DefaultMessageHandler(m api.ControlMessage)
}

var _ api.IOThreadContext = (*Context)(nil)

// Context is one worker thread's private state (spec §4.D, §5:
// "every other per-thread datum...is touched exclusively by that
// thread"). AddFD/RemoveFD/IsFDAddable may be called cross-thread by
// the manager (e.g. installing a global FD into a running thread);
// the fds map is therefore guarded by a mutex even though epoll_ctl
// itself is safe to call concurrently from any thread.
type Context struct {
	threadNum    int
	managerOwned bool

	log     logrus.FieldLogger
	errPol  api.ErrorPolicy
	metrics *control.ThreadMetrics

	mux  reactor.Multiplexer
	wake wakeupFD

	msgQueue *queue.MPMC[api.ControlMessage]

	opCount atomic.Uint64
	running atomic.Bool
	stop    atomic.Bool

	fdsMu sync.Mutex
	fds   map[int]*api.FDDescriptor

	fdSelector func(d *api.FDDescriptor) bool
	msgHandler func(m api.ControlMessage)
	host       ThreadHost
}

// New allocates a Context. queueCapacity should be sized generously
// (spec: "at least several thousand"); managerOwned marks a thread
// spawned by the manager's start() versus one adopted from a caller's
// own goroutine.
func New(threadNum, queueCapacity int, managerOwned bool, metrics *control.ThreadMetrics, log logrus.FieldLogger, errPol api.ErrorPolicy) *Context {
	return &Context{
		threadNum:    threadNum,
		managerOwned: managerOwned,
		log:          log.WithField("thread", threadNum),
		errPol:       errPol,
		metrics:      metrics,
		msgQueue:     queue.NewMPMC[api.ControlMessage](queueCapacity),
		fds:          make(map[int]*api.FDDescriptor),
	}
}

// ThreadNum implements api.IOThreadContext.
func (c *Context) ThreadNum() int { return c.threadNum }

// IsIOThread implements api.IOThreadContext.
func (c *Context) IsIOThread() bool { return c.running.Load() }

// OpCount reports the number of readiness/message dispatches processed
// so far; used by the manager's least-busy-thread selection.
func (c *Context) OpCount() uint64 { return c.opCount.Load() }

// Metrics exposes this context's gauge block for the control surface.
func (c *Context) Metrics() *control.ThreadMetrics { return c.metrics }

// IsFDAddable implements api.IOThreadContext.
func (c *Context) IsFDAddable(d *api.FDDescriptor) bool {
	if c.fdSelector == nil {
		return true
	}
	return c.fdSelector(d)
}

// AddFD implements api.IOThreadContext.
func (c *Context) AddFD(d *api.FDDescriptor) error {
	c.fdsMu.Lock()
	defer c.fdsMu.Unlock()
	if _, exists := c.fds[d.FD]; exists {
		return api.ErrFDExists
	}
	if c.mux == nil {
		return api.ErrNotRunning
	}
	if err := c.mux.Register(d.FD, d.Events); err != nil {
		return err
	}
	c.fds[d.FD] = d
	return nil
}

// RemoveFD implements api.IOThreadContext.
func (c *Context) RemoveFD(d *api.FDDescriptor) error {
	c.fdsMu.Lock()
	defer c.fdsMu.Unlock()
	if _, exists := c.fds[d.FD]; !exists {
		return api.ErrFDNotFound
	}
	if c.mux != nil {
		_ = c.mux.Unregister(d.FD)
	}
	delete(c.fds, d.FD)
	return nil
}

// PutMsg implements api.IOThreadContext.
func (c *Context) PutMsg(m api.ControlMessage) error {
	if !c.running.Load() {
		return api.ErrNotRunning
	}
	if !c.msgQueue.Enqueue(m) {
		return api.ErrQueueFull
	}
	return c.wake.Signal()
}

// Run becomes an I/O thread and drives the event loop until a
// Relinquish message is processed (spec §4.D event loop, steps 1-5).
// It blocks the calling goroutine for the thread's entire lifetime and
// is meant to be invoked as `go ctx.Run(...)`.
func (c *Context) Run(host ThreadHost, fdSelector func(d *api.FDDescriptor) bool, msgHandler func(m api.ControlMessage)) error {
	c.fdSelector = fdSelector
	c.msgHandler = msgHandler
	c.host = host

	mux, err := reactor.New()
	if err != nil {
		return err
	}
	c.mux = mux

	wake, err := newWakeupFD()
	if err != nil {
		_ = mux.Close()
		return err
	}
	c.wake = wake

	if err := c.mux.Register(c.wake.FD(), reactor.EventRead); err != nil {
		_ = c.wake.Close()
		_ = c.mux.Close()
		return err
	}

	for _, iface := range host.Interfaces() {
		if err := iface.OnIOThreadStart(c); err != nil {
			c.errPol.ReportFatal("on_io_thread_start", err)
		}
	}

	c.running.Store(true)
	host.OnThreadStarted(c.threadNum)

	events := make([]reactor.Event, 64)
	for !c.stop.Load() {
		n, err := c.mux.Wait(events, -1)
		if err != nil {
			c.errPol.ReportFatal("multiplexer_wait", err)
			continue
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if ev.Fd == c.wake.FD() {
				c.drainAndDispatch()
				continue
			}
			c.dispatchReadiness(ev)
		}
	}

	for _, iface := range host.Interfaces() {
		iface.OnIOThreadStopped(c)
	}

	c.fdsMu.Lock()
	for fd := range c.fds {
		_ = c.mux.Unregister(fd)
		delete(c.fds, fd)
	}
	c.fdsMu.Unlock()

	_ = c.mux.Unregister(c.wake.FD())
	_ = c.wake.Close()
	_ = c.mux.Close()

	c.running.Store(false)
	host.OnThreadStopped(c.threadNum)
	return nil
}

func (c *Context) dispatchReadiness(ev reactor.Event) {
	c.fdsMu.Lock()
	d, ok := c.fds[ev.Fd]
	c.fdsMu.Unlock()
	if !ok {
		return
	}
	d.Callback(ev.Fd, d.Cookie, ev.Events)
	c.opCount.Add(1)
	c.metrics.IOCount.Add(1)
}

// drainAndDispatch reads the wake counter then dequeues every pending
// message (spec: "the loop must drain the queue to empty on each
// wake" since several signals may coalesce into one readiness edge).
func (c *Context) drainAndDispatch() {
	if _, err := c.wake.Drain(); err != nil {
		c.errPol.ReportFatal("wake_drain", err)
		return
	}
	for {
		msg, ok := c.msgQueue.Dequeue()
		if !ok {
			return
		}
		c.metrics.MessagesRecv.Add(1)
		c.dispatch(msg)
	}
}

func (c *Context) dispatch(m api.ControlMessage) {
	switch m.Kind {
	case api.MsgReschedule:
		c.metrics.RescheduleIn.Add(1)
		m.Descriptor.Callback(m.Descriptor.FD, m.Descriptor.Cookie, m.Events)
		c.opCount.Add(1)
	case api.MsgRunClosure:
		c.runClosure(m.Closure)
		c.opCount.Add(1)
	case api.MsgRelinquish:
		c.stop.Store(true)
	case api.MsgCustom:
		if c.msgHandler != nil {
			c.msgHandler(m)
		} else if c.host != nil {
			c.host.DefaultMessageHandler(m)
		}
	}
}

func (c *Context) runClosure(closure func()) {
	defer func() {
		if r := recover(); r != nil {
			c.errPol.ReportFatal("run_closure_panic", api.ErrInvalidArgument)
		}
	}()
	closure()
}
