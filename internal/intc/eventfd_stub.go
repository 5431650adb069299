//go:build !linux

package intc

import "errors"

// EventfdNotifier requires Linux eventfd support. On other platforms it
// installs nothing; use ManualNotifier instead.
type EventfdNotifier struct{}

// NewEventfdNotifier returns a notifier whose installs are no-ops.
func NewEventfdNotifier() *EventfdNotifier {
	return &EventfdNotifier{}
}

func (n *EventfdNotifier) Install(domain uint32, fn func()) {}

func (n *EventfdNotifier) Remove(domain uint32) {}

// Kick always fails off Linux.
func (n *EventfdNotifier) Kick(domain uint32) error {
	return errors.New("remio: eventfd notifier requires linux")
}

// Fd always returns -1 off Linux.
func (n *EventfdNotifier) Fd(domain uint32) int { return -1 }
