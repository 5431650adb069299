// Package interfaces defines the contracts between the dispatch core and
// its collaborators: the hypercall transport that retrieves pending I/O
// requests from the hypervisor, and the interrupt subsystem that signals
// their arrival. Implementations live elsewhere; this package keeps the
// internal packages decoupled from each other.
package interfaces

import "errors"

// Op identifies the kind of a virtual I/O transaction.
type Op uint8

const (
	// OpAsk requests the next pending I/O transaction from the remote I/O
	// system. The poll path always issues OpAsk; the hypervisor fills in
	// the real operation on return.
	OpAsk Op = iota
	OpRead
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpAsk:
		return "ask"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Request is one virtual I/O transaction handed out by the hypervisor.
// It is a value type and never mutated after construction.
type Request struct {
	Domain    uint32 // owning dispatch domain
	Op        Op
	Addr      uint64
	Value     uint64
	RequestID uint64 // hypervisor-assigned correlation id
}

// AskReply is the outcome of one successful hypercall round trip.
// Pending is the hypervisor's own estimate of how many requests remain
// queued for the domain after this one. It is racy by construction and
// serves only as a continue/stop hint for the drain loop.
type AskReply struct {
	Req     Request
	Pending int
}

// ErrNoPending is returned by Transport.Ask when the hypervisor has no
// queued request for the domain. It terminates a drain pass normally.
var ErrNoPending = errors.New("remio: no pending request")

// Transport performs the remote I/O hypercall round trip.
//
// Ask retrieves and consumes the next pending request for the domain.
// A successful call removes the request from the hypervisor's queue, so
// calls are not idempotent. Ask blocks for the duration of the round
// trip and must never be called from notification context.
//
// Errors other than ErrNoPending indicate a transport or domain level
// fault; the caller stops the current drain pass but the domain remains
// usable.
type Transport interface {
	Ask(domain uint32) (AskReply, error)
}

// Notifier is the interrupt-style signal source indicating that at least
// one request is pending for a domain. The installed callback is a hint,
// not a count, and must return without blocking.
type Notifier interface {
	Install(domain uint32, fn func())
	Remove(domain uint32)
}

// Observer receives dispatch events for metrics collection. All methods
// may be called concurrently and must not block.
type Observer interface {
	// ObserveDispatch is called for each request routed to a client.
	ObserveDispatch(domain uint32)

	// ObserveDrop is called when no registered client claims a request.
	ObserveDrop(domain uint32)

	// ObserveFault is called when a hypercall round trip fails.
	ObserveFault(domain uint32)

	// ObserveDrainPass is called after each completed drain pass with the
	// number of requests polled and the pass duration.
	ObserveDrainPass(domain uint32, polled int, latencyNs uint64)

	// ObserveCoalesced is called when a notification arrives while a
	// drain pass is already pending for the domain.
	ObserveCoalesced(domain uint32)
}
