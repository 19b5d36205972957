package intr

import "testing"

func TestDisableRestore(t *testing.T) {
	if !AreEnabled() {
		t.Fatalf("expected enabled at start")
	}
	prior := Disable()
	if prior != Enabled {
		t.Fatalf("expected prior level Enabled, got %v", prior)
	}
	if AreEnabled() {
		t.Fatalf("expected disabled after Disable")
	}
	Restore(prior)
	if !AreEnabled() {
		t.Fatalf("expected enabled after Restore")
	}
}

func TestNestedDisableIsNoopOnRestore(t *testing.T) {
	Disable()
	inner := Disable()
	if inner != Disabled {
		t.Fatalf("expected nested disable to observe Disabled, got %v", inner)
	}
	Restore(inner)
	if AreEnabled() {
		t.Fatalf("restoring Disabled must be a no-op")
	}
	Restore(Enabled)
	if !AreEnabled() {
		t.Fatalf("expected enabled after final restore")
	}
}
