package intc

import (
	"sync/atomic"
	"testing"
)

func TestManualNotifierFire(t *testing.T) {
	n := NewManualNotifier()

	var count atomic.Int32
	n.Install(7, func() { count.Add(1) })

	if !n.Fire(7) {
		t.Error("Fire returned false for installed domain")
	}
	if !n.Fire(7) {
		t.Error("Fire returned false on second call")
	}
	if got := count.Load(); got != 2 {
		t.Errorf("handler ran %d times, want 2", got)
	}
}

func TestManualNotifierFireUnknownDomain(t *testing.T) {
	n := NewManualNotifier()
	if n.Fire(1) {
		t.Error("Fire returned true with no handler installed")
	}
}

func TestManualNotifierRemove(t *testing.T) {
	n := NewManualNotifier()

	var count atomic.Int32
	n.Install(7, func() { count.Add(1) })
	n.Remove(7)

	if n.Fire(7) {
		t.Error("Fire returned true after Remove")
	}
	if got := count.Load(); got != 0 {
		t.Errorf("handler ran %d times after Remove, want 0", got)
	}
}

func TestManualNotifierReinstallReplaces(t *testing.T) {
	n := NewManualNotifier()

	var first, second atomic.Int32
	n.Install(2, func() { first.Add(1) })
	n.Install(2, func() { second.Add(1) })

	n.Fire(2)
	if first.Load() != 0 || second.Load() != 1 {
		t.Errorf("reinstall did not replace handler: first=%d second=%d", first.Load(), second.Load())
	}
}
