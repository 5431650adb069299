// Package registry maps guest I/O addresses to the emulated-device
// clients that own them, one registry per dispatch domain.
//
// Routing lookups during a drain pass are frequent and concurrent;
// registration changes are rare. A reader/writer lock keeps lookups
// cheap while making register/unregister linearizable with respect to
// routing: a request routed after Register returns sees the new client,
// and a request routed after Unregister returns never reaches the
// removed one.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ehrlich-b/go-remio/internal/interfaces"
)

// AddrRange is a half-open guest address interval [Start, End).
type AddrRange struct {
	Start uint64
	End   uint64
}

// Contains reports whether addr falls inside the range.
func (r AddrRange) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Overlaps reports whether the two ranges share any address.
func (r AddrRange) Overlaps(o AddrRange) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r AddrRange) String() string {
	return fmt.Sprintf("[0x%x,0x%x)", r.Start, r.End)
}

// Registry holds the address range to client mapping for one domain.
type Registry struct {
	domain uint32

	mu      sync.RWMutex
	clients []*Client
	closed  bool
}

// New creates an empty registry for the given domain.
func New(domain uint32) *Registry {
	return &Registry{domain: domain}
}

// Domain returns the dispatch domain the registry belongs to.
func (r *Registry) Domain() uint32 { return r.domain }

// Register adds a client claiming the given address range. At most one
// client may claim any address, so a range overlapping an existing
// registration is rejected.
func (r *Registry) Register(name string, rng AddrRange) (*Client, error) {
	if rng.End <= rng.Start {
		return nil, fmt.Errorf("remio: empty address range %s", rng)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("remio: registry for domain %d is closed", r.domain)
	}
	for _, c := range r.clients {
		if c.rng.Overlaps(rng) {
			return nil, fmt.Errorf("remio: range %s overlaps client %q %s", rng, c.name, c.rng)
		}
	}

	c := newClient(name, rng)
	r.clients = append(r.clients, c)
	return c, nil
}

// Unregister removes the client with the given registration token and
// closes it. Requests already queued on the client remain poppable.
func (r *Registry) Unregister(token uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.clients {
		if c.token == token {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			c.close()
			return nil
		}
	}
	return fmt.Errorf("remio: no client with token %s in domain %d", token, r.domain)
}

// Route delivers the request to the client owning its address. Lookup
// and push happen under the read lock, so an Unregister cannot close
// the client between them; a request either lands on a still-open queue
// or is reported unroutable, never both and never neither. The returned
// name identifies the accepting client. False means no registered
// client claims the address and the caller drops the request.
func (r *Registry) Route(req interfaces.Request) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if c.rng.Contains(req.Addr) {
			if !c.Push(req) {
				return "", false
			}
			return c.name, true
		}
	}
	return "", false
}

// Find returns the client owning the request's address. The second
// return is false when no registered client claims it; such a request
// is unroutable and the caller drops it. The returned handle is a
// snapshot: the client may be unregistered by the time it is used, so
// the dispatch path routes through Route instead.
func (r *Registry) Find(req interfaces.Request) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if c.rng.Contains(req.Addr) {
			return c, true
		}
	}
	return nil, false
}

// Clients returns a snapshot of the registered clients.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, len(r.clients))
	copy(out, r.clients)
	return out
}

// Close removes and closes every client. Further Register calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := r.clients
	r.clients = nil
	r.closed = true
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
