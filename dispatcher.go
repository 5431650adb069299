// Package remio implements the host-side I/O dispatch engine for a
// remote-I/O hypervisor: it moves virtual I/O requests issued by guest
// domains into the emulated-device client that owns them.
//
// One Dispatcher manages all attached dispatch domains. Each domain
// owns a client registry and a single worker; an interrupt-style
// notification schedules a drain pass on the worker, which polls the
// hypercall transport until the backlog is empty and routes every
// retrieved request to the client claiming its address.
//
// Example:
//
//	disp, _ := remio.New(remio.Params{Transport: tr, Notifier: nt})
//	dom, _ := disp.Attach(3)
//	client, _ := dom.Registry().Register("virtio-blk", remio.AddrRange{Start: 0x1000, End: 0x2000})
//	dom.Resume()
//	req, _ := client.Pop(ctx) // consumer thread
package remio

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ehrlich-b/go-remio/internal/constants"
	"github.com/ehrlich-b/go-remio/internal/dispatch"
	"github.com/ehrlich-b/go-remio/internal/logging"
	"github.com/ehrlich-b/go-remio/internal/registry"
)

// DomainState is the lifecycle state of an attached domain.
type DomainState int32

const (
	// StateReady means the domain is attached but not listening for
	// notifications.
	StateReady DomainState = iota
	// StateActive means the notification callback is installed and
	// drain passes run on demand.
	StateActive
	// StatePaused means the callback is removed and the worker is
	// quiesced; no pushes happen until Resume.
	StatePaused
	// StateDestroyed means the worker binding has been released. The
	// domain is unusable.
	StateDestroyed
)

func (s DomainState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Params configures a Dispatcher.
type Params struct {
	// Transport performs the hypercall round trip. Required.
	Transport Transport

	// Notifier delivers pending-request signals. Required.
	Notifier Notifier

	// MaxDomains bounds valid domain ids (default DefaultMaxDomains).
	MaxDomains int

	// Logger for dispatch events (default: the package default logger).
	Logger *logging.Logger

	// Observer for metrics collection (default: records to the
	// dispatcher's own Metrics).
	Observer Observer
}

// Dispatcher owns every attached domain's worker binding and the
// pause/resume/destroy protocol over them.
type Dispatcher struct {
	transport  Transport
	notifier   Notifier
	maxDomains int
	logger     *logging.Logger
	metrics    *Metrics
	observer   Observer

	mu      sync.Mutex
	domains map[uint32]*Domain
	closed  bool
}

// New creates a Dispatcher. No domain state is allocated until Attach.
func New(params Params) (*Dispatcher, error) {
	if params.Transport == nil {
		return nil, NewError("new", ErrCodeProtocolViolation, "transport is required")
	}
	if params.Notifier == nil {
		return nil, NewError("new", ErrCodeProtocolViolation, "notifier is required")
	}

	maxDomains := params.MaxDomains
	if maxDomains <= 0 {
		maxDomains = constants.DefaultMaxDomains
	}

	logger := params.Logger
	if logger == nil {
		logger = logging.Default()
	}

	metrics := NewMetrics()
	observer := params.Observer
	if observer == nil {
		observer = NewMetricsObserver(metrics)
	}

	return &Dispatcher{
		transport:  params.Transport,
		notifier:   params.Notifier,
		maxDomains: maxDomains,
		logger:     logger,
		metrics:    metrics,
		observer:   observer,
		domains:    make(map[uint32]*Domain),
	}, nil
}

// Domain is one attached dispatch domain: a client registry plus the
// worker binding that drains its requests.
type Domain struct {
	id     uint32
	disp   *Dispatcher
	reg    *registry.Registry
	worker *dispatch.Worker
	logger *logging.Logger

	// mu serializes lifecycle transitions; state is read separately by
	// the non-blocking notify path.
	mu    sync.Mutex
	state atomic.Int32
}

// Attach allocates the worker binding for a domain id and leaves it in
// StateReady. Call Resume to start listening for notifications.
func (d *Dispatcher) Attach(id uint32) (*Domain, error) {
	if int(id) >= d.maxDomains {
		return nil, NewDomainError("attach", id, ErrCodeProtocolViolation, "domain id out of range")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, NewDomainError("attach", id, ErrCodeShuttingDown, "dispatcher closed")
	}
	if _, ok := d.domains[id]; ok {
		return nil, NewDomainError("attach", id, ErrCodeDomainBusy, "domain already attached")
	}
	if len(d.domains) >= d.maxDomains {
		return nil, NewDomainError("attach", id, ErrCodeResourceExhausted, "domain table full")
	}

	dom := &Domain{
		id:     id,
		disp:   d,
		reg:    registry.New(id),
		logger: d.logger.WithDomain(id),
	}
	dom.worker = dispatch.NewWorker(context.Background(), dispatch.Config{
		Domain:    id,
		Transport: d.transport,
		Registry:  dom.reg,
		Logger:    dom.logger,
		Observer:  d.observer,
	})
	dom.worker.Start()
	dom.state.Store(int32(StateReady))

	d.domains[id] = dom
	dom.logger.Info("domain attached")
	return dom, nil
}

// Domain returns the attached domain with the given id.
func (d *Dispatcher) Domain(id uint32) (*Domain, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dom, ok := d.domains[id]
	return dom, ok
}

// Metrics returns the dispatcher's metrics.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// MetricsSnapshot returns a point-in-time snapshot of the metrics.
func (d *Dispatcher) MetricsSnapshot() MetricsSnapshot {
	return d.metrics.Snapshot()
}

// DomainInfo describes an attached domain for introspection.
type DomainInfo struct {
	ID      uint32 `json:"id"`
	State   string `json:"state"`
	Clients int    `json:"clients"`
}

// Domains returns a snapshot of all attached domains.
func (d *Dispatcher) Domains() []DomainInfo {
	d.mu.Lock()
	doms := make([]*Domain, 0, len(d.domains))
	for _, dom := range d.domains {
		doms = append(doms, dom)
	}
	d.mu.Unlock()

	out := make([]DomainInfo, 0, len(doms))
	for _, dom := range doms {
		out = append(out, DomainInfo{
			ID:      dom.id,
			State:   dom.State().String(),
			Clients: len(dom.reg.Clients()),
		})
	}
	return out
}

// Close pauses and destroys every attached domain. Further lifecycle
// calls fail with ErrCodeShuttingDown. Idempotent.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	doms := make([]*Domain, 0, len(d.domains))
	for _, dom := range d.domains {
		doms = append(doms, dom)
	}
	d.mu.Unlock()

	var firstErr error
	for _, dom := range doms {
		if err := dom.Destroy(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.metrics.Stop()
	d.logger.Info("dispatcher closed", "domains", len(doms))
	return firstErr
}

func (d *Dispatcher) detach(id uint32) {
	d.mu.Lock()
	delete(d.domains, id)
	d.mu.Unlock()
}

// ID returns the domain id.
func (dom *Domain) ID() uint32 { return dom.id }

// State returns the domain's lifecycle state.
func (dom *Domain) State() DomainState {
	return DomainState(dom.state.Load())
}

// Registry exposes the domain's client registry for the device-model
// owner to populate.
func (dom *Domain) Registry() *registry.Registry { return dom.reg }

// Resume installs the domain's notification callback and schedules one
// drain pass immediately, covering requests that arrived while the
// domain was not listening. Valid from StateReady or StatePaused.
func (dom *Domain) Resume() error {
	dom.mu.Lock()
	defer dom.mu.Unlock()

	switch dom.State() {
	case StateReady, StatePaused:
	case StateActive:
		return nil
	default:
		return NewDomainError("resume", dom.id, ErrCodeProtocolViolation, "domain destroyed")
	}

	dom.disp.notifier.Install(dom.id, dom.Notify)
	dom.state.Store(int32(StateActive))
	dom.worker.Trigger()
	dom.logger.Debug("domain resumed")
	return nil
}

// Notify schedules a drain pass if none is already pending. It never
// blocks and is safe to call from notification context; it is also the
// callback Resume installs on the notifier. Notifications for a domain
// that is not active are dropped; the resume-time kick picks up
// whatever they announced.
func (dom *Domain) Notify() {
	if dom.State() != StateActive {
		return
	}
	dom.worker.Trigger()
}

// Pause removes the notification callback, then blocks until any
// in-flight or queued drain pass completes. After Pause returns, no
// push reaches any client of this domain until Resume.
//
// Pause must not be called from a consumer that the drain loop could be
// blocked pushing to; it is a control-plane operation.
func (dom *Domain) Pause(ctx context.Context) error {
	dom.mu.Lock()
	defer dom.mu.Unlock()
	return dom.pauseLocked(ctx)
}

func (dom *Domain) pauseLocked(ctx context.Context) error {
	switch dom.State() {
	case StatePaused, StateReady:
		// Nothing is listening; still quiesce to cover a stray trigger.
	case StateActive:
	default:
		return NewDomainError("pause", dom.id, ErrCodeProtocolViolation, "domain destroyed")
	}

	// Stop accepting notifications before waiting out the worker, or a
	// late callback could queue a pass behind the barrier.
	dom.state.Store(int32(StatePaused))
	dom.disp.notifier.Remove(dom.id)

	if err := dom.worker.Quiesce(ctx); err != nil {
		return WrapError("pause", ErrCodeQuiesceTimeout, err)
	}
	dom.logger.Debug("domain paused")
	return nil
}

// Destroy pauses the domain, releases its worker binding, and closes
// its registry and clients. The domain is unusable afterwards.
// Idempotent.
func (dom *Domain) Destroy(ctx context.Context) error {
	dom.mu.Lock()
	defer dom.mu.Unlock()

	if dom.State() == StateDestroyed {
		return nil
	}

	if err := dom.pauseLocked(ctx); err != nil {
		return err
	}
	if err := dom.worker.Stop(ctx); err != nil {
		return WrapError("destroy", ErrCodeQuiesceTimeout, err)
	}
	dom.reg.Close()
	dom.state.Store(int32(StateDestroyed))
	dom.disp.detach(dom.id)
	dom.logger.Info("domain destroyed")
	return nil
}
