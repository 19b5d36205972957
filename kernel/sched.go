package kernel

import "github.com/han0133/pintos-jungle-log/internal/klog"

// reschedule picks the next thread to run and switches to it. It must be
// called with the giant lock held (i.e. from inside a disable()'d section)
// and with currentThr's status already updated to its post-switch value
// (READY, BLOCKED, or DYING) by the caller.
//
// The actual "context switch" is a channel handoff between goroutines
// rather than a register-save trampoline — the low-level mechanics spec.md
// §1 calls out as an external collaborator's job. What this function
// reproduces faithfully is the scheduling *decision* and the invariant that
// exactly one thread's goroutine is ever runnable at a time: the giant lock
// is released the instant a thread's goroutine parks, and reacquired the
// instant it is resumed, so unrelated flows (the timer tick, another
// thread already dispatched) can make progress while this one waits.
func reschedule() {
	drainReapQueueLocked()

	prev := currentThr
	next := pickNextLocked()

	next.status = StatusRunning
	threadTicks = 0
	currentThr = next

	if next == prev {
		return
	}

	dying := prev.status == StatusDying
	if dying && prev != initialThr {
		reapQueue.PushBack(prev)
	}

	klog.Debugf("schedule: %s(%d) -> %s(%d)", prev.name, prev.tid, next.name, next.tid)

	next.resume <- struct{}{}

	if dying {
		// prev's goroutine is unwinding out of Exit and will terminate; it
		// must not wait on a channel nobody will ever signal again, and it
		// must not hold the giant lock while it does so.
		gil.Unlock()
		return
	}

	gil.Unlock()
	<-prev.resume
	gil.Lock()
}

// pickNextLocked pops the highest-priority ready thread, or the idle thread
// if none is ready.
func pickNextLocked() *Thread {
	n := readyQueue.PopFront()
	if n == nil {
		return idleThr
	}
	return n.Owner()
}

// drainReapQueueLocked drops the entry function and argument held by threads
// that finished running on a previous reschedule; the Thread records
// themselves stay in threadTable for introspection. The reference kernel
// frees the dying thread's page from inside the *next* thread's call to
// schedule(), because
// a thread cannot free its own stack while still executing on it; a Go
// thread's "stack" is just its goroutine, which has already exited by the
// time it reaches the reap queue, but the destruction is still deferred
// this way to keep the two kernels' control flow parallel.
func drainReapQueueLocked() {
	for reapQueue.Len() > 0 {
		t := reapQueue.PopFront()
		t.entry = nil
		t.arg = nil
	}
}

// Tick is the timer ISR entry point: advance the tick counter, charge the
// running thread's CPU-time bucket, count off the time slice, and wake any
// thread whose sleep has expired. It does not itself force a context switch
// on the running thread — Go cannot preempt a running goroutine from the
// outside — so time-slice expiry only takes effect the next time the
// running thread calls CheckPreempt (see sleep.go and CheckPreempt below).
func Tick() {
	level := disable()
	ticks++
	chargeTickLocked(currentThr)

	threadTicks++
	if threadTicks >= TimeSlice {
		preemptDue = true
	}

	drainSleepListLocked()
	restore(level)
}

// CheckPreempt is the cooperative checkpoint a long-running thread body
// calls to honor a pending timer-driven yield request (the Go-native stand
// in for "the timer ISR requests a yield on return"). Priority-driven
// preemption (create, unblock, set_priority) does not need this — it acts
// immediately, from the caller's own flow, via preemptIfOutrankedLocked.
func CheckPreempt() {
	level := disable()
	if preemptDue && currentThr != idleThr {
		preemptDue = false
		yieldLocked()
	}
	restore(level)
}
