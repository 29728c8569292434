// File: manager/manager.go
// Author: momentics <momentics@gmail.com>
//
// Manager (spec component F): owns the interface roster, the global FD
// map, and the worker thread pool; coordinates bring-up/teardown;
// brokers cross-thread messages; selects target threads for work.
// Grounded on the retired server package's constructor-plus-wiring
// style, rebuilt around the spec's explicit state machine instead of a
// single Start/Stop pair.

package manager

import (
	"sync"

	equeue "github.com/eapache/queue"
	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/threadctx"
	"github.com/sirupsen/logrus"
)

var _ threadctx.ThreadHost = (*Manager)(nil)

// Manager is the process-wide I/O manager instance (spec §9: "Global
// state is confined to a single manager instance with explicit
// start/stop lifecycle").
type Manager struct {
	stateMu   sync.Mutex
	stateCond *sync.Cond
	state     State

	numThreads           int
	expectedInterfaces   int
	registeredInterfaces int
	defaultMsgHandler    func(api.ControlMessage)

	// mu is the read/write lock guarding the interface list,
	// drive-interface list, and global FD map; readers are the hot
	// path via ForeachFDInfo/ForeachInterface and the thread-start
	// install sequence. It is a plain sync.RWMutex and is not
	// reader-preferring: a waiting writer blocks new readers.
	mu              sync.RWMutex
	interfaces      *equeue.Queue
	driveInterfaces *equeue.Queue
	globalFDs       map[int]*api.FDDescriptor
	defaultDrive    api.DriveInterface

	threadsMu sync.RWMutex
	threads   []*threadctx.Context

	yetToStart *latch
	yetToStop  *latch
	wg         sync.WaitGroup

	cfg    control.Config
	ctrl   api.Control
	log    logrus.FieldLogger
	errPol api.ErrorPolicy
}

// New builds an idle Manager in StateStart.
func New(cfg control.Config, ctrl api.Control, log logrus.FieldLogger, errPol api.ErrorPolicy) *Manager {
	m := &Manager{
		state:           StateStart,
		interfaces:      equeue.New(),
		driveInterfaces: equeue.New(),
		globalFDs:       make(map[int]*api.FDDescriptor),
		yetToStart:      newLatch(0),
		yetToStop:       newLatch(0),
		cfg:             cfg,
		ctrl:            ctrl,
		log:             log,
		errPol:          errPol,
	}
	m.stateCond = sync.NewCond(&m.stateMu)
	return m
}

// Control returns the ambient control-plane collaborator (config,
// metrics, debug probes) this manager was constructed with.
func (m *Manager) Control() api.Control { return m.ctrl }

// State reports the manager's current lifecycle state.
func (m *Manager) State() State {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state
}

// Start begins bring-up (spec §4.F): sets expected = inbuilt + custom,
// installs the default general interface, and moves to
// waiting-for-interfaces.
func (m *Manager) Start(expectedCustomIfaces, numThreads int, defaultMsgHandler func(api.ControlMessage)) error {
	m.stateMu.Lock()
	if m.state != StateStart {
		m.stateMu.Unlock()
		return api.ErrAlreadyRunning
	}
	m.numThreads = numThreads
	m.defaultMsgHandler = defaultMsgHandler
	m.expectedInterfaces = 1 + expectedCustomIfaces
	m.yetToStart.reset(numThreads)
	m.state = StateWaitingForInterfaces
	m.stateCond.Broadcast()
	m.stateMu.Unlock()

	return m.registerInterface(newGeneralInterface(), false)
}

// AddInterface registers a general-purpose interface (spec §4.F).
func (m *Manager) AddInterface(iface api.Interface) error {
	return m.registerInterface(iface, false)
}

// AddDriveInterface registers a drive interface and, when makeDefault
// is set, marks it as the manager's default drive interface for
// callers that don't hold their own reference.
func (m *Manager) AddDriveInterface(iface api.DriveInterface, makeDefault bool) error {
	if err := m.registerInterface(iface, true); err != nil {
		return err
	}
	if makeDefault {
		m.mu.Lock()
		m.defaultDrive = iface
		m.mu.Unlock()
	}
	return nil
}

// DefaultDriveInterface returns the interface registered with
// makeDefault, or nil if none was.
func (m *Manager) DefaultDriveInterface() api.DriveInterface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultDrive
}

func (m *Manager) registerInterface(iface api.Interface, isDrive bool) error {
	m.stateMu.Lock()
	if m.state != StateWaitingForInterfaces {
		m.stateMu.Unlock()
		m.errPol.ReportFatal("add_interface", api.ErrInvalidArgument)
		return api.ErrInvalidArgument
	}
	m.stateMu.Unlock()

	m.mu.Lock()
	m.interfaces.Add(iface)
	if isDrive {
		m.driveInterfaces.Add(iface)
	}
	m.registeredInterfaces++
	reached := m.registeredInterfaces == m.expectedInterfaces
	m.mu.Unlock()

	if !reached {
		return nil
	}

	var spawn bool
	m.stateMu.Lock()
	if m.state == StateWaitingForInterfaces {
		if m.numThreads > 0 {
			m.state = StateWaitingForThreads
			spawn = true
		} else {
			m.state = StateRunning
		}
		m.stateCond.Broadcast()
	}
	m.stateMu.Unlock()

	if spawn {
		m.spawnThreads()
	}
	return nil
}

func (m *Manager) spawnThreads() {
	m.threadsMu.Lock()
	m.threads = make([]*threadctx.Context, m.numThreads)
	for i := 0; i < m.numThreads; i++ {
		tm := control.NewThreadMetrics()
		m.threads[i] = threadctx.New(i, m.cfg.MessageQueueCapacity, true, tm, m.log, m.errPol)
	}
	threads := append([]*threadctx.Context(nil), m.threads...)
	m.threadsMu.Unlock()

	m.wg.Add(len(threads))
	for _, t := range threads {
		t := t
		go func() {
			defer m.wg.Done()
			if err := t.Run(m, nil, nil); err != nil {
				m.errPol.ReportFatal("thread_run", err)
			}
		}()
	}
}

func (m *Manager) waitUntilRunning() error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	for m.state != StateRunning {
		if m.state == StateStopping || m.state == StateStopped {
			return api.ErrNotRunning
		}
		m.stateCond.Wait()
	}
	return nil
}

func (m *Manager) threadAt(n int) (*threadctx.Context, error) {
	m.threadsMu.RLock()
	defer m.threadsMu.RUnlock()
	if n < 0 || n >= len(m.threads) {
		return nil, api.ErrThreadNotFound
	}
	return m.threads[n], nil
}

func (m *Manager) threadsSnapshot() []*threadctx.Context {
	m.threadsMu.RLock()
	defer m.threadsMu.RUnlock()
	return append([]*threadctx.Context(nil), m.threads...)
}

// AddFD registers a file descriptor. Global FDs require running (the
// caller blocks until that state is reached, per spec §4.F); per-thread
// FDs target threadNum directly and may be added before running.
func (m *Manager) AddFD(iface api.Interface, fd int, cb api.ReadinessCallback, events api.EventMask, priority int, cookie any, isPerThread bool, threadNum int) (*api.FDDescriptor, error) {
	if isPerThread {
		t, err := m.threadAt(threadNum)
		if err != nil {
			return nil, err
		}
		d := api.NewFDDescriptor(fd, iface, cb, events, priority, cookie, false)
		if err := t.AddFD(d); err != nil {
			return nil, err
		}
		return d, nil
	}

	if err := m.waitUntilRunning(); err != nil {
		return nil, err
	}
	d := api.NewFDDescriptor(fd, iface, cb, events, priority, cookie, true)
	m.mu.Lock()
	if _, exists := m.globalFDs[fd]; exists {
		m.mu.Unlock()
		return nil, api.ErrFDExists
	}
	m.globalFDs[fd] = d
	m.mu.Unlock()

	for _, t := range m.threadsSnapshot() {
		if t.IsIOThread() && t.IsFDAddable(d) {
			_ = t.AddFD(d)
		}
	}
	return d, nil
}

// RemoveFD uninstalls a descriptor. threadNum is ignored for global
// descriptors; for per-thread descriptors it selects the owning
// thread's context.
func (m *Manager) RemoveFD(d *api.FDDescriptor, threadNum int) error {
	if d.Global {
		m.mu.Lock()
		if _, exists := m.globalFDs[d.FD]; !exists {
			m.mu.Unlock()
			return api.ErrFDNotFound
		}
		delete(m.globalFDs, d.FD)
		m.mu.Unlock()

		for _, t := range m.threadsSnapshot() {
			_ = t.RemoveFD(d)
		}
		return nil
	}

	t, err := m.threadAt(threadNum)
	if err != nil {
		return err
	}
	return t.RemoveFD(d)
}

// SendMsg delivers msg to thread threadNum, or to every I/O thread
// when threadNum is -1. It returns the count successfully enqueued
// (spec §4.F: "return the count successfully enqueued").
func (m *Manager) SendMsg(threadNum int, msg api.ControlMessage) int {
	delivered := 0
	for _, t := range m.threadsSnapshot() {
		if threadNum != -1 && t.ThreadNum() != threadNum {
			continue
		}
		if !t.IsIOThread() {
			continue
		}
		if err := t.PutMsg(msg); err == nil {
			if msg.Kind == api.MsgReschedule {
				t.Metrics().RescheduleOut.Add(1)
			}
			delivered++
		}
	}
	return delivered
}

// sendToLeastBusyThread picks the I/O thread with the smallest
// operation counter and retries if it reports zero delivered, since
// the thread may have transitioned between selection and send.
func (m *Manager) sendToLeastBusyThread(msg api.ControlMessage) int {
	for attempt := 0; attempt < 3; attempt++ {
		threads := m.threadsSnapshot()
		var best *threadctx.Context
		var bestCount uint64
		for _, t := range threads {
			if !t.IsIOThread() {
				continue
			}
			c := t.OpCount()
			if best == nil || c < bestCount {
				best, bestCount = t, c
			}
		}
		if best == nil {
			return 0
		}
		if n := m.SendMsg(best.ThreadNum(), msg); n > 0 {
			return n
		}
	}
	return 0
}

// FDReschedule moves a readiness invocation for d to the least busy
// I/O thread (spec §4.F, delegating to sendToLeastBusyThread).
func (m *Manager) FDReschedule(d *api.FDDescriptor, events api.EventMask) int {
	return m.sendToLeastBusyThread(api.NewRescheduleMessage(d, events))
}

// RunInIOThread executes closure on the least busy I/O thread.
func (m *Manager) RunInIOThread(closure func()) int {
	return m.sendToLeastBusyThread(api.NewRunClosureMessage(closure))
}

// ForeachFDInfo visits every globally registered FD descriptor.
// Visitors must not block.
func (m *Manager) ForeachFDInfo(cb func(d *api.FDDescriptor)) {
	m.mu.RLock()
	fds := make([]*api.FDDescriptor, 0, len(m.globalFDs))
	for _, d := range m.globalFDs {
		fds = append(fds, d)
	}
	m.mu.RUnlock()
	for _, d := range fds {
		cb(d)
	}
}

// ForeachInterface visits every registered interface in registration
// order. Visitors must not block.
func (m *Manager) ForeachInterface(cb func(iface api.Interface)) {
	m.mu.RLock()
	ifaces := m.interfacesSnapshotLocked()
	m.mu.RUnlock()
	for _, iface := range ifaces {
		cb(iface)
	}
}

func (m *Manager) interfacesSnapshotLocked() []api.Interface {
	n := m.interfaces.Length()
	out := make([]api.Interface, n)
	for i := 0; i < n; i++ {
		out[i] = m.interfaces.Get(i).(api.Interface)
	}
	return out
}

// Metrics aggregates every worker thread's gauge block into one flat
// map (supplements the spec's per-thread metrics surface for the
// control adapter).
func (m *Manager) Metrics() map[string]any {
	out := make(map[string]any)
	for _, t := range m.threadsSnapshot() {
		for k, v := range t.Metrics().Snapshot(t.ThreadNum()) {
			out[k] = v
		}
	}
	return out
}

// Stop moves to stopping, broadcasts Relinquish to every thread, waits
// for every thread to join, then moves to stopped (spec §4.F).
func (m *Manager) Stop() error {
	m.stateMu.Lock()
	if m.state == StateStopping || m.state == StateStopped {
		m.stateMu.Unlock()
		return api.ErrAlreadyStopped
	}
	m.state = StateStopping
	m.stateCond.Broadcast()
	m.stateMu.Unlock()

	n := len(m.threadsSnapshot())
	m.yetToStop.reset(n)

	m.SendMsg(-1, api.NewRelinquishMessage())

	m.yetToStop.wait()
	m.wg.Wait()

	m.mu.Lock()
	for fd := range m.globalFDs {
		delete(m.globalFDs, fd)
	}
	m.mu.Unlock()

	m.stateMu.Lock()
	m.state = StateStopped
	m.stateCond.Broadcast()
	m.stateMu.Unlock()
	return nil
}

// -- threadctx.ThreadHost --

func (m *Manager) Interfaces() []api.Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.interfacesSnapshotLocked()
}

func (m *Manager) OnThreadStarted(threadNum int) {
	m.yetToStart.countDown()
	m.stateMu.Lock()
	if m.state == StateWaitingForThreads && m.yetToStart.remaining() == 0 {
		m.state = StateRunning
		m.stateCond.Broadcast()
	}
	m.stateMu.Unlock()
}

func (m *Manager) OnThreadStopped(threadNum int) {
	m.yetToStop.countDown()
}

func (m *Manager) DefaultMessageHandler(msg api.ControlMessage) {
	if m.defaultMsgHandler != nil {
		m.defaultMsgHandler(msg)
	}
}
