//go:build linux

package intc

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEventfdNotifierKick(t *testing.T) {
	n := NewEventfdNotifier()

	fired := make(chan struct{}, 16)
	n.Install(1, func() { fired <- struct{}{} })
	defer n.Remove(1)

	if err := n.Kick(1); err != nil {
		t.Fatalf("Kick failed: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler not invoked after Kick")
	}
}

func TestEventfdNotifierCoalesces(t *testing.T) {
	n := NewEventfdNotifier()

	var count atomic.Int32
	block := make(chan struct{})
	n.Install(1, func() {
		count.Add(1)
		<-block
	})
	defer n.Remove(1)

	// Several kicks while the reader is busy collapse into the eventfd
	// counter; the handler runs again at most once per read.
	if err := n.Kick(1); err != nil {
		t.Fatalf("Kick failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := n.Kick(1); err != nil {
			t.Fatalf("Kick failed: %v", err)
		}
	}
	close(block)

	deadline := time.After(time.Second)
	for count.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("handler invoked %d times, want at least 2", count.Load())
		case <-time.After(time.Millisecond):
		}
	}
	if got := count.Load(); got > 6 {
		t.Errorf("handler invoked %d times for 6 kicks", got)
	}
}

func TestEventfdNotifierRemoveStopsReader(t *testing.T) {
	n := NewEventfdNotifier()

	var count atomic.Int32
	n.Install(1, func() { count.Add(1) })
	n.Remove(1)

	if err := n.Kick(1); err == nil {
		t.Error("Kick succeeded after Remove")
	}
	time.Sleep(10 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("handler ran %d times after Remove", got)
	}
}

func TestEventfdNotifierRemoveWaitsForHandler(t *testing.T) {
	n := NewEventfdNotifier()

	entered := make(chan struct{})
	gate := make(chan struct{})
	n.Install(1, func() {
		close(entered)
		<-gate
	})

	if err := n.Kick(1); err != nil {
		t.Fatalf("Kick failed: %v", err)
	}
	<-entered

	removed := make(chan struct{})
	go func() {
		n.Remove(1)
		close(removed)
	}()

	// Remove must wait out the running handler, not just tear down the
	// fd; otherwise an invocation could land after Pause thinks the
	// domain is quiet.
	select {
	case <-removed:
		t.Fatal("Remove returned while the handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("Remove did not return after the handler finished")
	}
}

func TestEventfdNotifierFd(t *testing.T) {
	n := NewEventfdNotifier()
	if fd := n.Fd(1); fd != -1 {
		t.Errorf("Fd for uninstalled domain = %d, want -1", fd)
	}
	n.Install(1, func() {})
	defer n.Remove(1)
	if fd := n.Fd(1); fd < 0 {
		t.Errorf("Fd for installed domain = %d, want >= 0", fd)
	}
}
