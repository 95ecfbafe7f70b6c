// Package irq provides a software interrupt controller for hosts where edge
// callbacks arrive on their own goroutine.
//
// It gives the main context the same primitive a microcontroller does:
// mask delivery, touch state shared with handlers, restore the previous
// mask. Handlers raised while delivery is masked are latched and run as soon
// as it is unmasked, so no event is dropped.
package irq

import "sync"

// State is the delivery state saved by Disable.
type State uint8

const (
	Enabled State = iota
	Masked
)

// Controller serializes interrupt handlers against main-context critical
// sections.
//
// Disable/Restore must only be called from the single main context; nested
// regions on that context are supported. Raise may be called from any
// goroutine.
type Controller struct {
	mu      sync.Mutex
	state   State
	pending []func()
}

// New returns a Controller with delivery enabled.
func New() *Controller {
	return &Controller{}
}

// Disable masks handler delivery and returns the state to pass to Restore.
// Once Disable returns, no handler is running and none will start until the
// state is restored to Enabled.
func (c *Controller) Disable() State {
	c.mu.Lock()
	prev := c.state
	c.state = Masked
	c.mu.Unlock()
	return prev
}

// Restore returns delivery to a state saved by Disable. Restoring Enabled
// runs any handlers latched while masked, in the order they were raised.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = s
	if s != Enabled {
		return
	}
	for len(c.pending) > 0 {
		h := c.pending[0]
		c.pending[0] = nil
		c.pending = c.pending[1:]
		h()
	}
	c.pending = nil
}

// Raise delivers an interrupt. The handler runs immediately if delivery is
// enabled, otherwise it is latched until Restore. Handlers must be short and
// must not call back into the Controller.
//
// The latch queue is unbounded: it holds one entry per edge raised while
// masked and is emptied by the Restore that unmasks. Callers keep masked
// regions short so it stays small.
func (c *Controller) Raise(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Enabled {
		c.pending = append(c.pending, handler)
		return
	}
	handler()
}

// Pending returns the number of latched handlers.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
