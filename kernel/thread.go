package kernel

import (
	"fmt"
	"sort"

	"github.com/han0133/pintos-jungle-log/internal/ilist"
	"github.com/han0133/pintos-jungle-log/internal/klog"
)

// Thread is the kernel's control block for one schedulable flow of control.
// Its link fields are raw handles, not owning pointers: a Thread does not
// keep the Lock it's blocked on alive, and a List does not keep a Thread
// alive either. Lifetime is tracked structurally, by queue membership, the
// way spec.md §9 describes it and biscuit's Proc_t tracks fds by table
// membership rather than reference counting (proc/proc.go).
type Thread struct {
	tid          int
	name         string
	status       Status
	priority     int // effective priority, base plus any donation
	basePriority int

	donors       *ilist.List[*Thread]   // threads donating to this one, sorted by donorLess
	donationNode *ilist.Node[*Thread]   // this thread's membership in someone else's donors list
	queueNode    *ilist.Node[*Thread]   // membership in exactly one of: readyQueue, a Sema's waiters, sleepList
	waitingLock  *Lock                  // non-nil while blocked acquiring a Lock; used to walk the donation chain

	wakeupTick uint64 // valid only while queued on sleepList

	entry func(arg any)
	arg   any
	resume chan struct{}
}

// Tid returns t's thread id.
func (t *Thread) Tid() int { return t.tid }

// Name returns t's name.
func (t *Thread) Name() string { return t.name }

// Status returns t's current scheduling state.
func (t *Thread) Status() Status { return t.status }

// Priority returns t's current effective priority (base priority plus any
// donation).
func (t *Thread) Priority() int { return t.priority }

// BasePriority returns t's priority floor, unaffected by donation.
func (t *Thread) BasePriority() int { return t.basePriority }

func registerThread(t *Thread) {
	level := disable()
	threadTable[t.tid] = t
	restore(level)
}

// ForEachThread calls f once for every thread the system has ever created
// (ready, blocked, running, or dying, including threads already reaped),
// ordered by tid,
// matching the reference kernel's thread_foreach contract ("must be called
// with interrupts disabled" becomes "f runs while f is briefly holding the
// giant lock" here). f must not call back into the kernel.
func ForEachThread(f func(*Thread)) {
	level := disable()
	tids := make([]int, 0, len(threadTable))
	for tid := range threadTable {
		tids = append(tids, tid)
	}
	sort.Ints(tids)
	for _, tid := range tids {
		f(threadTable[tid])
	}
	restore(level)
}

func nextTid() int {
	tidLock.Acquire()
	defer tidLock.Release()
	id := nextTidVal
	nextTidVal++
	return id
}

// Create allocates a new thread, gives it a fresh tid, and makes it READY.
// The thread's own goroutine parks immediately, waiting to be dispatched by
// the scheduler; entry does not run until this thread is first chosen to
// run. Create returns ErrOutOfMemory if priority is out of [PriMin, PriMax].
func Create(name string, priority int, entry func(arg any), arg any) (*Thread, error) {
	if priority < PriMin || priority > PriMax {
		return nil, ErrOutOfMemory{}
	}

	t := &Thread{
		tid:          nextTid(),
		name:         name,
		status:       StatusBlocked,
		priority:     priority,
		basePriority: priority,
		donors:       ilist.New[*Thread](),
		entry:        entry,
		arg:          arg,
		resume:       make(chan struct{}, 1),
	}
	t.queueNode = ilist.NewNode(t)
	t.donationNode = ilist.NewNode(t)
	registerThread(t)

	go func() {
		<-t.resume
		t.entry(t.arg)
		Exit()
	}()

	klog.Debugf("thread_create: tid=%d name=%q priority=%d", t.tid, t.name, t.priority)

	level := disable()
	unblockLocked(t)
	preemptIfOutrankedLocked()
	restore(level)

	return t, nil
}

// unblockLocked moves t from BLOCKED to READY, ordered into the ready queue
// by descending effective priority. It does not preempt; the caller decides
// whether to check preemptIfOutrankedLocked.
func unblockLocked(t *Thread) {
	if t.status != StatusBlocked {
		panic(fmt.Sprintf("kernel: unblock of thread %d in state %s, want BLOCKED", t.tid, t.status))
	}
	t.status = StatusReady
	readyQueue.InsertOrdered(t.queueNode, readyLess)
}

// Unblock is the public form of unblockLocked: it disables interrupts
// itself, so it may be called from any context except one that already
// holds the giant lock (an ISR-side critical section should call
// unblockLocked directly).
func Unblock(t *Thread) {
	level := disable()
	unblockLocked(t)
	restore(level)
}

// blockLocked transitions the calling thread from RUNNING to BLOCKED and
// reschedules. The caller must have already disabled interrupts; it
// returns with interrupts still disabled at the caller's level, since it
// never itself restores — that is symmetric with sema_down/lock_acquire in
// the reference kernel, which block with interrupts already off and restore
// only once, on their own way out.
func blockLocked() {
	currentThr.status = StatusBlocked
	reschedule()
}

// Yield moves the calling thread from RUNNING to READY (re-inserted by
// priority) and reschedules, giving up the CPU even though it remains
// runnable.
func Yield() {
	level := disable()
	yieldLocked()
	restore(level)
}

func yieldLocked() {
	if currentThr == idleThr {
		reschedule()
		return
	}
	currentThr.status = StatusReady
	readyQueue.InsertOrdered(currentThr.queueNode, readyLess)
	reschedule()
}

// Exit finalizes the calling thread: DYING, unreachable from any wait
// queue, and reschedules one last time. reschedule hands the CPU to the
// next thread and, seeing the outgoing thread is DYING, releases the giant
// lock instead of parking it — so Exit returns normally here, and its
// caller (the per-thread goroutine wrapper in Create) simply falls off the
// end of its function, which is how this thread's goroutine actually
// terminates.
func Exit() {
	disable()
	klog.Debugf("thread_exit: tid=%d name=%q", currentThr.tid, currentThr.name)
	currentThr.status = StatusDying
	reschedule()
}

// SetPriority changes the calling thread's base priority. If donation is
// currently raising its effective priority above newPriority, the change
// takes effect only once the donation is released (recalcPriorityLocked
// enforces max(base, donors) on every donation-list change). Preempts if
// the new priority no longer outranks the ready queue's front.
func SetPriority(newPriority int) {
	if newPriority < PriMin || newPriority > PriMax {
		panic("kernel: priority out of range")
	}
	level := disable()
	currentThr.basePriority = newPriority
	recalcPriorityLocked(currentThr)
	preemptIfOutrankedLocked()
	restore(level)
}

// GetPriority returns the calling thread's current effective priority.
func GetPriority() int {
	level := disable()
	defer restore(level)
	return currentThr.priority
}

// Current returns the calling goroutine's thread control block.
func Current() *Thread {
	level := disable()
	defer restore(level)
	return currentThr
}

// recalcPriorityLocked restores t's effective priority to the maximum of its
// base priority and its highest-priority donor, per spec.md §4.6's
// donor-list recomputation (walking donors rather than trusting a possibly
// stale cached front, since donors is only re-sorted on insertion/removal).
func recalcPriorityLocked(t *Thread) {
	best := t.basePriority
	t.donors.Iterate(func(n *ilist.Node[*Thread]) {
		if d := n.Owner().priority; d > best {
			best = d
		}
	})
	t.priority = best
}

// preemptIfOutrankedLocked yields the running thread if the ready queue's
// front strictly outranks it. Called after any event that might have made a
// higher-priority thread ready: create, unblock's callers, set_priority.
func preemptIfOutrankedLocked() {
	front := readyQueue.Front()
	if front == nil {
		return
	}
	if front.Owner().priority > currentThr.priority {
		yieldLocked()
	}
}
