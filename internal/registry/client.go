package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ehrlich-b/go-remio/internal/interfaces"
)

// ErrClientClosed is returned by Pop when the client has been
// unregistered or its registry torn down.
var ErrClientClosed = errors.New("remio: client closed")

// Client is an emulated-device endpoint: an ordered queue of requests
// plus a wakeup primitive for its consumer thread.
//
// The dispatch worker pushes, the device model's consumer pops. Pushes
// and pops may interleave freely; entries are delivered in insertion
// order and are never dropped once accepted by Push.
type Client struct {
	name  string
	token uuid.UUID
	rng   AddrRange

	mu     sync.Mutex
	queue  []interfaces.Request
	closed bool

	// notify carries at most one wakeup token. Push always leaves a
	// token behind, so a consumer that starts waiting after the push
	// still observes the non-empty queue. No missed wakeups.
	notify chan struct{}

	// done unblocks every waiter at once on close
	done chan struct{}
}

func newClient(name string, rng AddrRange) *Client {
	return &Client{
		name:   name,
		token:  uuid.New(),
		rng:    rng,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Name returns the name the client registered under.
func (c *Client) Name() string { return c.name }

// Token returns the registration token assigned by the registry.
func (c *Client) Token() uuid.UUID { return c.token }

// Range returns the address range the client claims.
func (c *Client) Range() AddrRange { return c.rng }

// Push appends a request to the queue tail and wakes a waiting
// consumer, if any. It never blocks on the consumer; it only takes the
// queue's internal lock. The return reports acceptance: a push on a
// closed client is rejected so the caller can account for the request
// instead of losing it silently.
func (c *Client) Push(req interfaces.Request) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, req)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return true
}

// Pop removes and returns the request at the queue head, blocking until
// one is available, the context is done, or the client is closed.
func (c *Client) Pop(ctx context.Context) (interfaces.Request, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			req := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return req, nil
		}
		if c.closed {
			c.mu.Unlock()
			return interfaces.Request{}, ErrClientClosed
		}
		c.mu.Unlock()

		select {
		case <-c.notify:
		case <-c.done:
		case <-ctx.Done():
			return interfaces.Request{}, ctx.Err()
		}
	}
}

// TryPop removes and returns the request at the queue head without
// blocking. The second return is false when the queue is empty.
func (c *Client) TryPop() (interfaces.Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return interfaces.Request{}, false
	}
	req := c.queue[0]
	c.queue = c.queue[1:]
	return req, true
}

// Len returns the number of queued requests.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// close marks the client closed and wakes all waiting consumers so
// they can observe the closure. Queued requests remain poppable.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
}
