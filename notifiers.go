package remio

import "github.com/ehrlich-b/go-remio/internal/intc"

// ManualNotifier is an in-process notification source driven by Fire.
type ManualNotifier = intc.ManualNotifier

// NewManualNotifier creates an empty ManualNotifier.
func NewManualNotifier() *ManualNotifier {
	return intc.NewManualNotifier()
}

// EventfdNotifier surfaces kernel interrupt signals through one eventfd
// per domain. Only functional on Linux.
type EventfdNotifier = intc.EventfdNotifier

// NewEventfdNotifier creates an eventfd-backed notifier.
func NewEventfdNotifier() *EventfdNotifier {
	return intc.NewEventfdNotifier()
}

// Compile-time interface checks
var (
	_ Notifier = (*ManualNotifier)(nil)
	_ Notifier = (*EventfdNotifier)(nil)
)
