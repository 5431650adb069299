// Package intc provides notification sources for the dispatcher: the
// interrupt-style signal that tells a domain's worker "at least one
// request is pending". Handlers installed here are hints, never counts,
// and are invoked without blocking guarantees beyond the handler's own.
package intc

import "sync"

// ManualNotifier is an in-process notification source. The lifecycle
// controller installs per-domain handlers; whatever simulates the
// interrupt controller calls Fire. Used by tests and by remiod's
// simulated hypervisor.
type ManualNotifier struct {
	mu       sync.RWMutex
	handlers map[uint32]func()
}

// NewManualNotifier creates an empty notifier.
func NewManualNotifier() *ManualNotifier {
	return &ManualNotifier{handlers: make(map[uint32]func())}
}

// Install registers the handler for the domain, replacing any previous
// one.
func (n *ManualNotifier) Install(domain uint32, fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[domain] = fn
}

// Remove uninstalls the domain's handler. It waits out any handler
// invocation already in flight; after Remove returns, no further
// invocation starts.
func (n *ManualNotifier) Remove(domain uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.handlers, domain)
}

// Fire invokes the domain's installed handler, if any, on the caller's
// goroutine. Returns false when no handler is installed. The handler
// runs under the read lock; handlers must not block.
func (n *ManualNotifier) Fire(domain uint32) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	fn, ok := n.handlers[domain]
	if !ok {
		return false
	}
	fn()
	return true
}
