package kernel

import (
	"os"
	"testing"
	"time"
)

// TestMain boots the scheduler once for the whole test binary: SystemInit
// turns this goroutine into the initial thread, and every subsequent
// (sequentially run) test function executes as that same thread, the way a
// single booted kernel only ever gets one system_init call.
func TestMain(m *testing.M) {
	SystemInit()
	if err := SystemStart(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// waitFor polls cond, yielding between checks, until it's true or the deadline
// passes, for tests that must observe a spawned thread's effect without a
// direct join primitive (this scheduler has none — threads are reaped, not
// awaited).
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", timeout)
		}
		Yield()
	}
}
