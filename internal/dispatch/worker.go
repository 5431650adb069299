// Package dispatch runs one worker per dispatch domain. A worker owns
// the domain's drain loop: triggered by a notification, it repeatedly
// asks the hypervisor for pending requests and routes each one to the
// client claiming its address, stopping when the hypervisor reports
// nothing left or the transport faults.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/ehrlich-b/go-remio/internal/interfaces"
	"github.com/ehrlich-b/go-remio/internal/registry"
)

// Logger is the subset of logging used on the dispatch path.
type Logger interface {
	Printf(format string, args ...any)
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Config carries the collaborators a worker needs.
type Config struct {
	Domain    uint32
	Transport interfaces.Transport
	Registry  *registry.Registry
	Logger    Logger
	Observer  interfaces.Observer
}

// Worker is the schedulable unit for one domain. All drain passes run
// on a single goroutine, so within a domain at most one pass is active
// at a time; triggers arriving during a pass coalesce into at most one
// further pass.
type Worker struct {
	domain uint32
	tr     interfaces.Transport
	reg    *registry.Registry
	logger Logger
	obs    interfaces.Observer

	// trigger holds at most one queued drain pass. A non-blocking send
	// is the whole notification protocol: safe from interrupt-style
	// context, lossless because the drain loop re-polls until empty.
	trigger chan struct{}

	// barrier serializes quiesce requests through the run loop
	barrier chan chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker for the domain. Call Start to begin
// servicing triggers.
func NewWorker(ctx context.Context, cfg Config) *Worker {
	ctx, cancel := context.WithCancel(ctx)
	return &Worker{
		domain:  cfg.Domain,
		tr:      cfg.Transport,
		reg:     cfg.Registry,
		logger:  cfg.Logger,
		obs:     cfg.Observer,
		trigger: make(chan struct{}, 1),
		barrier: make(chan chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start launches the worker's run loop.
func (w *Worker) Start() {
	go w.run()
}

// Trigger schedules a drain pass if none is already pending. It never
// blocks and is safe to call from notification context. The return
// value reports whether a new pass was scheduled; false means the
// trigger coalesced with one already queued.
func (w *Worker) Trigger() bool {
	select {
	case w.trigger <- struct{}{}:
		return true
	default:
		if w.obs != nil {
			w.obs.ObserveCoalesced(w.domain)
		}
		return false
	}
}

// Quiesce blocks until any in-flight drain pass has finished and any
// queued trigger has been consumed and drained. It must not be called
// from the drain path itself. After Quiesce returns, no pass runs until
// the next Trigger.
func (w *Worker) Quiesce(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.barrier <- ack:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop quiesces the worker and shuts down its run loop. The worker is
// unusable afterwards.
func (w *Worker) Stop(ctx context.Context) error {
	if err := w.Quiesce(ctx); err != nil {
		return err
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.trigger:
			w.drain()
		case ack := <-w.barrier:
			// A trigger queued before the barrier still owes a pass;
			// run it before acknowledging quiescence.
			select {
			case <-w.trigger:
				w.drain()
			default:
			}
			close(ack)
		}
	}
}

// drain empties the hypervisor's pending queue for the domain. The
// pending count returned with each request is only a hint to skip the
// final empty round trip; termination rests on ErrNoPending or a fault.
func (w *Worker) drain() {
	start := time.Now()
	polled := 0

	for {
		reply, err := w.tr.Ask(w.domain)
		if err != nil {
			if !errors.Is(err, interfaces.ErrNoPending) {
				if w.obs != nil {
					w.obs.ObserveFault(w.domain)
				}
				if w.logger != nil {
					w.logger.Warnf("domain %d: drain pass aborted: %v", w.domain, err)
				}
			}
			break
		}
		polled++

		name, ok := w.reg.Route(reply.Req)
		if !ok {
			if w.obs != nil {
				w.obs.ObserveDrop(w.domain)
			}
			if w.logger != nil {
				w.logger.Warnf("domain %d: no client claims addr 0x%x, request %d dropped",
					w.domain, reply.Req.Addr, reply.Req.RequestID)
			}
			// The request is consumed and unroutable; keep polling, the
			// channel itself reports when the backlog is gone.
			continue
		}

		if w.obs != nil {
			w.obs.ObserveDispatch(w.domain)
		}
		if w.logger != nil {
			w.logger.Debugf("domain %d: routed request %d (op=%s addr=0x%x) to %q, %d pending",
				w.domain, reply.Req.RequestID, reply.Req.Op, reply.Req.Addr, name, reply.Pending)
		}

		if reply.Pending <= 0 {
			break
		}
	}

	if w.obs != nil {
		w.obs.ObserveDrainPass(w.domain, polled, uint64(time.Since(start).Nanoseconds()))
	}
}
