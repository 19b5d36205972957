package kernel

import (
	"bytes"
	"strings"
	"testing"
)

func TestStatsSnapshotChargesKernelTicks(t *testing.T) {
	before := StatsSnapshot()
	Tick()
	Tick()
	after := StatsSnapshot()
	if after.KernelTicks != before.KernelTicks+2 {
		t.Fatalf("KernelTicks = %d, want %d", after.KernelTicks, before.KernelTicks+2)
	}
	if after.IdleTicks != before.IdleTicks {
		t.Fatalf("IdleTicks changed from %d to %d while main was running", before.IdleTicks, after.IdleTicks)
	}
}

func TestTakeSnapshotIncludesCurrentThread(t *testing.T) {
	snap := TakeSnapshot()
	if snap.BootID != BootID {
		t.Fatalf("snapshot boot id = %q, want %q", snap.BootID, BootID)
	}

	me := Current()
	var found *ThreadInfo
	for i := range snap.Threads {
		if snap.Threads[i].Tid == me.Tid() {
			found = &snap.Threads[i]
		}
	}
	if found == nil {
		t.Fatalf("snapshot did not include tid %d", me.Tid())
	}
	if found.Status != "RUNNING" {
		t.Fatalf("current thread status in snapshot = %q, want RUNNING", found.Status)
	}
	if found.Priority != me.Priority() {
		t.Fatalf("snapshot priority = %d, want %d", found.Priority, me.Priority())
	}
}

func TestPrintStatsWritesBreakdown(t *testing.T) {
	var buf bytes.Buffer
	PrintStats(&buf)
	out := buf.String()
	if !strings.Contains(out, "idle ticks") || !strings.Contains(out, "kernel ticks") {
		t.Fatalf("PrintStats output missing expected fields: %q", out)
	}
}

func TestForEachThreadVisitsCurrentThread(t *testing.T) {
	me := Current()
	var saw bool
	ForEachThread(func(th *Thread) {
		if th.Tid() == me.Tid() {
			saw = true
		}
	})
	if !saw {
		t.Fatalf("ForEachThread did not visit tid %d", me.Tid())
	}
}
