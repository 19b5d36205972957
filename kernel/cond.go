package kernel

import "github.com/han0133/pintos-jungle-log/internal/ilist"

// condSlot is one thread's parking spot on a CondVar's waiter list: a
// private binary semaphore the waiting thread blocks on, paired with the
// list node that gives it a place in cv.waiters. It plays the role of
// struct semaphore_elem in the reference kernel's synch.c.
type condSlot struct {
	sema *Sema
	node *ilist.Node[*condSlot]
}

// CondVar is a Mesa-style condition variable: Signal/Broadcast wake waiters
// but do not hand them the associated lock, so a woken thread must re-check
// its predicate after Wait returns, exactly as spec.md §4.7 requires.
type CondVar struct {
	waiters *ilist.List[*condSlot]
}

// Init prepares cv for use.
func (cv *CondVar) Init() {
	cv.waiters = ilist.New[*condSlot]()
}

// Wait atomically releases l and blocks the calling thread until signaled,
// then re-acquires l before returning. l must be held by the calling
// thread.
//
// The wait slot is appended, not priority-inserted: a slot just being
// created has no parked waiter yet for condSlotLess to read a priority
// from, so ordering is established lazily, immediately before a pop, by
// Signal/Broadcast re-sorting the whole list. A slot whose thread has not
// yet parked on its semaphore (Signal can run between l.Release and
// slot.sema.Down below) ranks lowest in that sort; see condSlotLess.
func (cv *CondVar) Wait(l *Lock) {
	if !l.HeldByCurrentThread() {
		panic("kernel: cond_wait called without holding the associated lock")
	}
	slot := &condSlot{sema: &Sema{}}
	slot.sema.Init(0)
	slot.node = ilist.NewNode(slot)

	level := disable()
	cv.waiters.PushBack(slot.node)
	restore(level)

	l.Release()
	slot.sema.Down()
	l.Acquire()
}

// Signal wakes the highest-priority waiter, if any. l must be held by the
// calling thread (the lock Signal's caller is expected to hold while
// touching state the condition protects), matching the reference kernel's
// cond_signal contract, though this implementation does not itself inspect
// l beyond that precondition.
func (cv *CondVar) Signal(l *Lock) {
	if !l.HeldByCurrentThread() {
		panic("kernel: cond_signal called without holding the associated lock")
	}
	level := disable()
	if !cv.waiters.Empty() {
		cv.waiters.Sort(condSlotLess)
		n := cv.waiters.PopFront()
		upLocked(n.Owner().sema)
	}
	restore(level)
}

// Broadcast wakes every current waiter, highest priority first.
func (cv *CondVar) Broadcast(l *Lock) {
	for !cv.waiters.Empty() {
		cv.Signal(l)
	}
}
