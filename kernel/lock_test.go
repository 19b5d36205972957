package kernel

import "testing"

// TestNestedPriorityDonation reproduces the three-thread donation chain
// scenario from spec.md §8: low holds lock A, medium blocks on A (donating
// to low), high blocks on a different lock B held by medium (donating to
// medium, which propagates one more hop to low). Both low and medium should
// observe high's priority once the chain settles.
func TestNestedPriorityDonation(t *testing.T) {
	var lockA, lockB Lock
	lockA.Init()
	lockB.Init()

	lowHoldsA := &Sema{}
	lowHoldsA.Init(0)
	medHoldsB := &Sema{}
	medHoldsB.Init(0)
	lowParksForever := &Sema{}
	lowParksForever.Init(0)

	low, err := Create("donor-low", PriDefault-2, func(any) {
		lockA.Acquire()
		lowHoldsA.Up()
		lowParksForever.Down() // blocks forever (never Up'd), holding A for the rest of the test
	}, nil)
	if err != nil {
		t.Fatalf("Create(low): %v", err)
	}
	// main is the only thing that can make "low" run: block on its signal,
	// which dispatches low as the only ready thread of any priority.
	lowHoldsA.Down()

	med, err := Create("donor-med", PriDefault-1, func(any) {
		lockB.Acquire()
		medHoldsB.Up()
		lockA.Acquire() // blocks on low, donating
	}, nil)
	if err != nil {
		t.Fatalf("Create(med): %v", err)
	}
	medHoldsB.Down()

	if low.Priority() != PriDefault-2 {
		t.Fatalf("low priority = %d before any donation, want %d", low.Priority(), PriDefault-2)
	}

	if _, err := Create("donor-high", PriDefault+1, func(any) {
		lockB.Acquire() // blocks on med, donating; chain reaches low
	}, nil); err != nil {
		t.Fatalf("Create(high): %v", err)
	}

	if med.Priority() != PriDefault+1 {
		t.Fatalf("med priority after donation = %d, want %d", med.Priority(), PriDefault+1)
	}
	if low.Priority() != PriDefault+1 {
		t.Fatalf("low priority after nested donation = %d, want %d", low.Priority(), PriDefault+1)
	}
}

// TestLockReleaseRestoresOriginalPriority checks that releasing a
// contended lock withdraws the donation it was responsible for.
func TestLockReleaseRestoresOriginalPriority(t *testing.T) {
	var lock Lock
	lock.Init()

	holderAcquired := &Sema{}
	holderAcquired.Init(0)
	releaseNow := &Sema{}
	releaseNow.Init(0)
	released := &Sema{}
	released.Init(0)

	holder, err := Create("restore-holder", PriDefault-3, func(any) {
		lock.Acquire()
		holderAcquired.Up()
		releaseNow.Down()
		lock.Release()
		released.Up()
	}, nil)
	if err != nil {
		t.Fatalf("Create(holder): %v", err)
	}
	holderAcquired.Down()

	if _, err := Create("restore-waiter", PriDefault+2, func(any) {
		lock.Acquire()
		lock.Release()
	}, nil); err != nil {
		t.Fatalf("Create(waiter): %v", err)
	}

	if holder.Priority() != PriDefault+2 {
		t.Fatalf("holder priority after donation = %d, want %d", holder.Priority(), PriDefault+2)
	}

	releaseNow.Up()
	released.Down()

	if holder.Priority() != PriDefault-3 {
		t.Fatalf("holder priority after release = %d, want original %d", holder.Priority(), PriDefault-3)
	}
}
