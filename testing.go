package remio

import (
	"sync"
)

// MockTransport simulates the hypervisor side of the remote I/O
// protocol: a per-domain FIFO of pending requests drained by Ask. It is
// safe for concurrent use and useful both in tests and as the backing
// transport for remiod's demo workload.
type MockTransport struct {
	mu     sync.Mutex
	queues map[uint32][]Request
	faults map[uint32]error

	// Method call tracking
	askCalls map[uint32]int
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		queues:   make(map[uint32][]Request),
		faults:   make(map[uint32]error),
		askCalls: make(map[uint32]int),
	}
}

// Enqueue appends requests to the domain's pending queue. It does not
// notify anyone; pair it with a Notifier kick the way the hypervisor
// pairs queue updates with an interrupt.
func (m *MockTransport) Enqueue(domain uint32, reqs ...Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[domain] = append(m.queues[domain], reqs...)
}

// FailNext makes the next Ask for the domain return err instead of a
// request. Subsequent calls behave normally again.
func (m *MockTransport) FailNext(domain uint32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[domain] = err
}

// Ask implements Transport. Each successful call consumes the head of
// the domain's queue; Pending reports how many requests remain behind
// it, mirroring the hypervisor's backlog estimate.
func (m *MockTransport) Ask(domain uint32) (AskReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.askCalls[domain]++

	if err, ok := m.faults[domain]; ok {
		delete(m.faults, domain)
		return AskReply{}, err
	}

	q := m.queues[domain]
	if len(q) == 0 {
		return AskReply{}, ErrNoPending
	}

	req := q[0]
	m.queues[domain] = q[1:]
	return AskReply{Req: req, Pending: len(q) - 1}, nil
}

// AskCalls returns how many times Ask was called for the domain.
func (m *MockTransport) AskCalls(domain uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.askCalls[domain]
}

// PendingCount returns the number of requests still queued for the
// domain.
func (m *MockTransport) PendingCount(domain uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[domain])
}

// Compile-time interface check
var _ Transport = (*MockTransport)(nil)
