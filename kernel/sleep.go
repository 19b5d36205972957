package kernel

import "github.com/han0133/pintos-jungle-log/internal/ilist"

var (
	ticks     uint64
	sleepList = ilist.New[*Thread]()
)

// Ticks returns the number of timer ticks since system_init.
func Ticks() uint64 {
	level := disable()
	defer restore(level)
	return ticks
}

// Elapsed returns the number of ticks that have passed since start.
func Elapsed(start uint64) uint64 {
	return Ticks() - start
}

// Sleep blocks the calling thread until at least duration timer ticks have
// elapsed, ordered into the sleep list by ascending wakeup tick the same way
// the reference kernel's timer_sleep inserts by compare_tick. duration == 0
// is a no-op, matching timer_sleep's guard against negative/zero durations.
func Sleep(duration uint64) {
	if duration == 0 {
		return
	}
	level := disable()
	currentThr.wakeupTick = ticks + duration
	currentThr.status = StatusBlocked
	sleepList.InsertOrdered(currentThr.queueNode, sleepLess)
	reschedule()
	restore(level)
}

// drainSleepListLocked wakes every thread at the front of sleepList whose
// wakeup tick has arrived, stopping at the first one that hasn't — valid
// because the list stays ordered by ascending wakeup tick.
func drainSleepListLocked() {
	for {
		front := sleepList.Front()
		if front == nil || front.Owner().wakeupTick > ticks {
			return
		}
		n := sleepList.PopFront()
		unblockLocked(n.Owner())
	}
}
