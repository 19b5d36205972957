package kernel

import "github.com/han0133/pintos-jungle-log/internal/ilist"

// Sema is a counting semaphore. Waiters queue in priority order on block,
// and are re-sorted before being popped on up, so a waiter whose priority
// rose via donation while it waited is still woken in the right order —
// the reference kernel's sema_up calls list_sort immediately before
// list_pop_front for the same reason (threads/synch.c).
type Sema struct {
	value   uint
	waiters *ilist.List[*Thread]
}

// Init sets s to the given initial value with an empty waiter list.
func (s *Sema) Init(value uint) {
	s.value = value
	s.waiters = ilist.New[*Thread]()
}

// Down waits until s.value is positive, then atomically decrements it.
func (s *Sema) Down() {
	level := disable()
	downLocked(s)
	restore(level)
}

// downLocked is Down's body, for callers (Lock.Acquire) that already hold
// the giant lock and must not re-disable through a nested Down call.
func downLocked(s *Sema) {
	for s.value == 0 {
		currentThr.status = StatusBlocked
		s.waiters.InsertOrdered(currentThr.queueNode, readyLess)
		reschedule()
	}
	s.value--
}

// TryDown decrements s.value and returns true without blocking if it is
// currently positive; otherwise it returns false and leaves s unchanged.
func (s *Sema) TryDown() bool {
	level := disable()
	defer restore(level)
	return tryDownLocked(s)
}

func tryDownLocked(s *Sema) bool {
	if s.value == 0 {
		return false
	}
	s.value--
	return true
}

// Up increments s.value and, if a thread was waiting, wakes the
// highest-priority one, then checks for priority preemption.
func (s *Sema) Up() {
	level := disable()
	upLocked(s)
	restore(level)
}

// upLocked is Up's body, for callers that already hold the giant lock.
func upLocked(s *Sema) {
	s.value++
	if !s.waiters.Empty() {
		s.waiters.Sort(readyLess)
		n := s.waiters.PopFront()
		unblockLocked(n.Owner())
		preemptIfOutrankedLocked()
	}
}
