package kernel

import (
	"fmt"

	"github.com/han0133/pintos-jungle-log/internal/ilist"
)

// Lock is a non-recursive mutex with priority donation: a thread blocked
// acquiring a held lock donates its effective priority to the holder, and
// transitively up the chain of locks the holder is itself blocked on, up to
// MaxDonationDepth hops — the same bound and walk as the reference kernel's
// donate_priority (threads/synch.c).
type Lock struct {
	holder *Thread
	sema   Sema
}

// Init prepares l for use.
func (l *Lock) Init() {
	l.holder = nil
	l.sema.Init(1)
}

// Acquire blocks until l is free, then takes it. Acquiring a lock the
// calling thread already holds is a programmer error and panics, matching
// the reference kernel's non-recursive lock contract.
func (l *Lock) Acquire() {
	level := disable()
	if l.holder == currentThr {
		restore(level)
		panic(fmt.Sprintf("kernel: thread %d re-acquiring a lock it already holds", currentThr.tid))
	}

	if l.holder != nil {
		currentThr.waitingLock = l
		l.holder.donors.InsertOrdered(currentThr.donationNode, donorLess)
		donatePriorityLocked(currentThr, MaxDonationDepth)
	}

	downLocked(&l.sema)

	currentThr.waitingLock = nil
	l.holder = currentThr
	restore(level)
}

// TryAcquire takes l without blocking if it is free, returning true; it
// never donates, matching the reference kernel's lock_try_acquire.
func (l *Lock) TryAcquire() bool {
	level := disable()
	defer restore(level)
	if l.holder == currentThr {
		return false
	}
	if !tryDownLocked(&l.sema) {
		return false
	}
	l.holder = currentThr
	return true
}

// Release gives up l. Any donations owed specifically for l are withdrawn,
// the releasing thread's effective priority is recomputed from its
// remaining donors, and the next waiter (if any) is woken.
func (l *Lock) Release() {
	level := disable()
	if l.holder != currentThr {
		restore(level)
		panic("kernel: release of lock not held by calling thread")
	}
	removeDonationsForLocked(currentThr, l)
	recalcPriorityLocked(currentThr)
	l.holder = nil
	upLocked(&l.sema)
	restore(level)
}

// HeldByCurrentThread reports whether the calling thread holds l.
func (l *Lock) HeldByCurrentThread() bool {
	level := disable()
	defer restore(level)
	return l.holder == currentThr
}

// donatePriorityLocked walks donor's chain of waited-on locks, raising each
// holder's effective priority to donor's original priority wherever it
// outranks that holder, for up to depth hops. A holder that already outranks
// donor just has its raise skipped — the walk still continues past it to
// whatever lock that holder is itself waiting on, so a higher-priority
// intermediate holder can never shield the rest of the chain from donation.
// Matches the reference kernel's donate_priority, which holds the original
// donor's priority fixed in a loop variable and gates continuation solely on
// waiting_lock being non-nil, never on whether this hop's raise happened.
// A raised holder that is READY is re-inserted into the ready queue so the
// queue stays in priority order.
func donatePriorityLocked(donor *Thread, depth int) {
	priority := donor.priority
	holder := donor.waitingLock.holder
	for hops := 0; holder != nil && hops < depth; hops++ {
		if priority > holder.priority {
			holder.priority = priority
			if holder.status == StatusReady {
				readyQueue.Remove(holder.queueNode)
				readyQueue.InsertOrdered(holder.queueNode, readyLess)
			}
		}
		if holder.waitingLock == nil {
			return
		}
		holder = holder.waitingLock.holder
	}
}

// removeDonationsForLocked strips from owner's donor list every thread that
// is donating specifically on account of this lock (i.e. whose waitingLock
// is l) — the reference kernel's remove_donations, which walks
// holder->donators comparing donor->lock.
//
// A donor blocked on l still has waitingLock == l here, because Acquire
// clears a thread's waitingLock only after that thread has taken the lock.
// Donors waiting on other locks owner holds stay on the list.
func removeDonationsForLocked(owner *Thread, l *Lock) {
	var stale []*Thread
	owner.donors.Iterate(func(n *ilist.Node[*Thread]) {
		d := n.Owner()
		if d.waitingLock == l {
			stale = append(stale, d)
		}
	})
	for _, d := range stale {
		owner.donors.Remove(d.donationNode)
	}
}
