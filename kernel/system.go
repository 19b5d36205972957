// Package kernel implements the four coupled primitives of a single-CPU,
// strict-priority preemptive thread scheduler with priority donation: the
// ready queue and thread state machine, the scheduler dispatch loop, the
// semaphore/lock/condition-variable synchronization primitives, and the
// tick-driven sleep list. They live in one package because their data is
// cyclic by construction — a thread waiting on a lock references the lock,
// the lock references its holder, and the holder's donor list references
// the waiter back.
package kernel

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/han0133/pintos-jungle-log/internal/ilist"
	"github.com/han0133/pintos-jungle-log/internal/intr"
	"github.com/han0133/pintos-jungle-log/internal/klog"
)

// Scheduling constants, named exactly as spec.md §6 names them.
const (
	PriMin           = 0
	PriDefault       = 31
	PriMax           = 63
	TimeSlice        = 4
	MaxDonationDepth = 8
)

// TimerFreq is the build-time timer frequency. The reference kernel enforces
// 19 <= TIMER_FREQ <= 1000 with a compile-time #error; Go has no constant
// range diagnostics, so the bound is checked in init() instead (see
// SPEC_FULL.md's ambient-stack/configuration section).
var TimerFreq = 1000

func init() {
	if TimerFreq < 19 || TimerFreq > 1000 {
		panic("kernel: TimerFreq out of range [19, 1000]")
	}
}

// ErrOutOfMemory is the one resource-exhaustion sentinel spec.md names
// (thread_create's failure mode). Every other operation either succeeds or
// the kernel aborts (panics) on a contract violation, per spec.md §7.
type ErrOutOfMemory struct{}

func (ErrOutOfMemory) Error() string { return "kernel: out of thread storage" }

// Status is a thread's position in the state machine of spec.md §4.3.
type Status int

const (
	StatusRunning Status = iota
	StatusReady
	StatusBlocked
	StatusDying
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusReady:
		return "READY"
	case StatusBlocked:
		return "BLOCKED"
	case StatusDying:
		return "DYING"
	default:
		return "UNKNOWN"
	}
}

// gil ("giant interrupt lock") gives disable()/restore() real cross-goroutine
// exclusion on top of the pure flag semantics internal/intr provides. It is
// released only while a thread's goroutine is parked waiting to be
// redispatched (see reschedule in sched.go) and reacquired the instant that
// thread resumes, so at most one flow of control ever touches kernel state
// at a time — the Go-native stand-in for "single CPU, one interrupt gate".
var gil sync.Mutex

// disable is the internal counterpart of intr.Disable: every public kernel
// entry point calls it exactly once and routes all nested work through
// "Locked" helpers that assume it is already held, the way biscuit routes
// Fd_insert through fd_insert_inner while holding Fdl (proc/proc.go).
func disable() intr.Level {
	gil.Lock()
	return intr.Disable()
}

func restore(level intr.Level) {
	intr.Restore(level)
	gil.Unlock()
}

var (
	readyQueue  = ilist.New[*Thread]()
	reapQueue   deque.Deque[*Thread]
	currentThr  *Thread
	idleThr     *Thread
	initialThr  *Thread
	nextTidVal  int
	tidLock     *Lock
	mlfqs       bool
	BootID      string
	threadTicks uint
	preemptDue  bool

	// threadTable is a registry of every thread ever created, for
	// introspection only (internal/monitor, cmd/kstat) — it plays the role
	// biscuit's Ptable hashtable plays for processes (proc/proc.go), except
	// nothing here is ever evicted from it, since this kernel has no
	// equivalent of reusing a tid.
	threadTable = map[int]*Thread{}

	// startupTasks are optional subsystems (internal/monitor's websocket
	// server, say) that want to come up concurrently with the idle thread
	// during SystemStart rather than block it. Registered before SystemStart
	// runs; kernel itself never populates this.
	startupTasks []func(context.Context) error
)

// RegisterStartupTask adds f to the set SystemStart runs concurrently (via
// errgroup) alongside bringing up the idle thread. Must be called before
// SystemStart. f runs on its own goroutine and is not a kernel thread — it
// must not call any kernel operation that assumes a current thread identity
// (Yield, Sleep, Sema/Lock/CondVar, SetPriority, ...); reading TakeSnapshot
// or StatsSnapshot is fine.
func RegisterStartupTask(f func(context.Context) error) {
	startupTasks = append(startupTasks, f)
}

func readyLess(a, b *Thread) bool { return a.priority > b.priority }
func donorLess(a, b *Thread) bool { return a.priority > b.priority }
func sleepLess(a, b *Thread) bool { return a.wakeupTick < b.wakeupTick }

// condSlotLess ranks by the parked waiter's priority, highest first, the way
// Sema's own waiters.Sort(readyLess) does. A slot can reach this compare
// before its thread has actually called sema.Down() — CondVar.Wait pushes
// the slot onto cv.waiters, then releases the associated lock, and a
// higher-priority thread can run Signal in that gap before the slot's
// semaphore has any waiter to read a priority from. Front() is nil for such
// a slot; treat it as lowest rank instead of dereferencing it.
func condSlotLess(a, b *condSlot) bool {
	af := a.sema.waiters.Front()
	bf := b.sema.waiters.Front()
	if af == nil {
		return false
	}
	if bf == nil {
		return true
	}
	return af.Owner().priority > bf.Owner().priority
}

// SystemInit turns the calling goroutine into the initial thread ("main",
// priority PRI_DEFAULT, status RUNNING). It must be called exactly once,
// before any other kernel operation.
func SystemInit() {
	BootID = uuid.NewString()
	klog.SetBootID(BootID)

	t := &Thread{
		tid:          0,
		name:         "main",
		status:       StatusRunning,
		priority:     PriDefault,
		basePriority: PriDefault,
		donors:       ilist.New[*Thread](),
		resume:       make(chan struct{}, 1),
	}
	t.queueNode = ilist.NewNode(t)
	t.donationNode = ilist.NewNode(t)
	nextTidVal = 1
	initialThr = t
	currentThr = t
	tidLock = &Lock{}
	tidLock.Init()
	threadTable[t.tid] = t

	klog.Infof("system_init: boot %s, initial thread tid=%d", BootID, t.tid)
}

// SystemStart creates the idle thread, enables interrupts, and blocks the
// calling (initial) thread until the idle thread signals that it has
// finished initializing. Any tasks registered with RegisterStartupTask run
// concurrently with that wait via errgroup, and their errors (if any) are
// returned once both the idle thread and every task have reported in.
func SystemStart() error {
	idleStarted := &Sema{}
	idleStarted.Init(0)

	_, err := Create("idle", PriMin, func(arg any) {
		s := arg.(*Sema)
		idleThr = Current()
		s.Up()
		for {
			level := disable()
			blockLocked()
			restore(level)
		}
	}, idleStarted)
	if err != nil {
		panic("kernel: failed to create idle thread")
	}

	g, ctx := errgroup.WithContext(context.Background())
	for _, task := range startupTasks {
		task := task
		g.Go(func() error { return task(ctx) })
	}

	intr.Restore(intr.Enabled)
	klog.Infof("system_start: interrupts enabled")
	idleStarted.Down()

	if idleThr == nil {
		panic("kernel: idle thread did not initialize")
	}

	return g.Wait()
}

// MLFQSEnabled reports whether the (unimplemented) multi-level feedback
// queue mode is active. Spec.md keeps this as a flag only; its math is out
// of scope. Carried for interface parity with the reference, which panics on
// thread_set_priority while real MLFQS math is running.
func MLFQSEnabled() bool { return mlfqs }

// SetMLFQS flips the inert MLFQS flag.
func SetMLFQS(on bool) { mlfqs = on }
