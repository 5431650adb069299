//go:build linux

package intc

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// EventfdNotifier surfaces kernel-delivered interrupt signals to the
// dispatcher through one eventfd per domain. The interrupt controller
// side (or a test) writes to the fd; a reader goroutine turns each
// wakeup into a handler invocation. eventfd counters coalesce writes
// between reads, matching the hint-not-count notification contract.
type EventfdNotifier struct {
	mu    sync.Mutex
	fds   map[uint32]int
	stops map[uint32]chan struct{}
	dones map[uint32]chan struct{}
}

// NewEventfdNotifier creates an eventfd-backed notifier.
func NewEventfdNotifier() *EventfdNotifier {
	return &EventfdNotifier{
		fds:   make(map[uint32]int),
		stops: make(map[uint32]chan struct{}),
		dones: make(map[uint32]chan struct{}),
	}
}

// Install creates the domain's eventfd and starts a reader goroutine
// that invokes fn on every wakeup. A previous installation for the
// domain is torn down first.
func (n *EventfdNotifier) Install(domain uint32, fn func()) {
	n.Remove(domain)

	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		// No fd, no notifications; the resume-time kick still drains
		// whatever is already queued.
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	n.mu.Lock()
	n.fds[domain] = fd
	n.stops[domain] = stop
	n.dones[domain] = done
	n.mu.Unlock()

	go func() {
		defer close(done)
		buf := make([]byte, 8)
		for {
			_, err := unix.Read(fd, buf)
			if err == unix.EINTR {
				continue
			}
			select {
			case <-stop:
				return
			default:
			}
			if err != nil {
				return
			}
			fn()
		}
	}()
}

// Remove tears down the domain's eventfd and waits for its reader
// goroutine to exit, so no handler invocation is running or will start
// after Remove returns. The fd is closed only after the reader is gone;
// closing it earlier would race the reader's next read against a
// possibly reused descriptor number.
func (n *EventfdNotifier) Remove(domain uint32) {
	n.mu.Lock()
	fd, ok := n.fds[domain]
	stop := n.stops[domain]
	done := n.dones[domain]
	delete(n.fds, domain)
	delete(n.stops, domain)
	delete(n.dones, domain)
	n.mu.Unlock()

	if !ok {
		return
	}
	close(stop)
	// Wake the reader so it observes stop. A closed fd alone would
	// leave a blocked read hanging on some kernels.
	kick(fd)
	<-done
	unix.Close(fd)
}

// Kick signals the domain's eventfd, simulating an interrupt delivery.
// Returns an error when the domain has no installed notifier.
func (n *EventfdNotifier) Kick(domain uint32) error {
	n.mu.Lock()
	fd, ok := n.fds[domain]
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("remio: no eventfd installed for domain %d", domain)
	}
	return kick(fd)
}

// Fd exposes the domain's eventfd so the interrupt-controller side can
// be wired to it. Returns -1 when none is installed.
func (n *EventfdNotifier) Fd(domain uint32) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if fd, ok := n.fds[domain]; ok {
		return fd
	}
	return -1
}

func kick(fd int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(fd, buf[:])
	return err
}
