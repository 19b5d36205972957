// Package intr stands in for the single x86 interrupt-enable flag that the
// reference kernel uses to gain atomicity against the timer ISR. There is no
// real interrupt gate in a goroutine-based simulation, so the gate is a
// package-level Level flag guarded by a mutex that is held only while the
// flag is read or written.
package intr

import "sync"

// Level is the saved interrupt state returned by Disable and consumed by
// Restore, mirroring the reference kernel's enum intr_level.
type Level bool

const (
	Enabled  Level = true
	Disabled Level = false
)

var (
	mu  sync.Mutex
	cur Level = Enabled
)

// AreEnabled reports whether interrupts are currently enabled.
func AreEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return bool(cur)
}

// Disable turns interrupts off and returns the level that was in effect
// beforehand, for a later Restore. Reentrant: disabling while already
// disabled just returns Disabled again.
func Disable() Level {
	mu.Lock()
	prior := cur
	cur = Disabled
	mu.Unlock()
	return prior
}

// Restore sets the interrupt level back to one saved by Disable. Restoring
// Disabled is a no-op, matching the reference's reentrant disable.
func Restore(level Level) {
	mu.Lock()
	cur = level
	mu.Unlock()
}

// Barrier forbids the compiler from reordering memory accesses across it.
// Go's memory model does not permit the kind of instruction-level reordering
// the reference kernel's calibration loop guards against, so this is a
// documentation-only marker rather than a real fence; it exists so call
// sites read the same as the reference's busy-wait loops.
func Barrier() {}
