package kernel

import "testing"

// TestCondSignalWakesHighestPriorityAndRechecksPredicate exercises Mesa
// semantics end to end: two threads wait on the same predicate guarded by a
// lock, Signal wakes the highest-priority one first, and each waiter
// re-checks (rather than assumes) the predicate on return from Wait, the way
// spec.md requires and the reference kernel's condvar users always loop
// instead of a bare if.
func TestCondSignalWakesHighestPriorityAndRechecksPredicate(t *testing.T) {
	var lock Lock
	lock.Init()
	var cv CondVar
	cv.Init()

	ready := false
	var order []string
	bothWaiting := &Sema{}
	bothWaiting.Init(0)

	spawnWaiter := func(name string, prio int) {
		if _, err := Create(name, prio, func(any) {
			lock.Acquire()
			bothWaiting.Up()
			for !ready {
				cv.Wait(&lock)
			}
			order = append(order, name)
			lock.Release()
		}, nil); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	spawnWaiter("low", PriDefault+1)
	spawnWaiter("high", PriDefault+2)

	bothWaiting.Down()
	bothWaiting.Down()

	lock.Acquire()
	ready = true
	cv.Signal(&lock)
	lock.Release()

	if len(order) != 1 || order[0] != "high" {
		t.Fatalf("order after first Signal = %v, want [high]", order)
	}

	lock.Acquire()
	cv.Signal(&lock)
	lock.Release()

	if len(order) != 2 || order[1] != "low" {
		t.Fatalf("order after second Signal = %v, want [high low]", order)
	}
}

// TestCondBroadcastWakesEveryWaiter checks that Broadcast drains the whole
// waiter list instead of stopping after one, highest priority first.
func TestCondBroadcastWakesEveryWaiter(t *testing.T) {
	var lock Lock
	lock.Init()
	var cv CondVar
	cv.Init()

	ready := false
	var order []string
	allWaiting := &Sema{}
	allWaiting.Init(0)

	spawnWaiter := func(name string, prio int) {
		if _, err := Create(name, prio, func(any) {
			lock.Acquire()
			allWaiting.Up()
			for !ready {
				cv.Wait(&lock)
			}
			order = append(order, name)
			lock.Release()
		}, nil); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	spawnWaiter("a", PriDefault+1)
	spawnWaiter("b", PriDefault+2)
	spawnWaiter("c", PriDefault+3)

	allWaiting.Down()
	allWaiting.Down()
	allWaiting.Down()

	lock.Acquire()
	ready = true
	cv.Broadcast(&lock)
	lock.Release()

	if len(order) != 3 || order[0] != "c" || order[1] != "b" || order[2] != "a" {
		t.Fatalf("broadcast order = %v, want [c b a]", order)
	}
}
