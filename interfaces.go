package remio

import (
	"github.com/ehrlich-b/go-remio/internal/interfaces"
	"github.com/ehrlich-b/go-remio/internal/registry"
)

// Re-export the collaborator contracts for the public API.

// Op identifies the kind of a virtual I/O transaction.
type Op = interfaces.Op

const (
	OpAsk   = interfaces.OpAsk
	OpRead  = interfaces.OpRead
	OpWrite = interfaces.OpWrite
)

// Request is one virtual I/O transaction handed out by the hypervisor.
type Request = interfaces.Request

// AskReply is the outcome of one successful hypercall round trip.
type AskReply = interfaces.AskReply

// Transport performs the remote I/O hypercall round trip.
type Transport = interfaces.Transport

// Notifier is the interrupt-style signal source for pending requests.
type Notifier = interfaces.Notifier

// Registry maps guest I/O addresses to clients for one domain.
type Registry = registry.Registry

// Client is an emulated-device endpoint: an ordered request queue plus
// a blocking-wait primitive for its consumer thread.
type Client = registry.Client

// AddrRange is a half-open guest address interval [Start, End).
type AddrRange = registry.AddrRange

// ErrClientClosed is returned by Client.Pop after the client is
// unregistered or its domain destroyed.
var ErrClientClosed = registry.ErrClientClosed
