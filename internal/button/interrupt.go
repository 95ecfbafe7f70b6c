package button

import (
	"fmt"

	"github.com/sweeney/big-red-button/internal/gpio"
	"github.com/sweeney/big-red-button/internal/logic"
)

// InterruptButton counts edges delivered through an interrupt controller.
//
// OnEdge runs in interrupt context. Everything else runs in the main
// context and reads the counter only inside a Disable/Restore region.
type InterruptButton struct {
	noCopy noCopy
	indicator

	in      gpio.Input
	ints    Interrupts
	pending logic.Counter
}

var _ Button = (*InterruptButton)(nil)

// NewInterrupt configures the light and button pins and arms edge
// detection on cfg.Edge. Each edge is delivered to OnEdge through ints.
// On error no lines are left requested.
func NewInterrupt(chip gpio.Chip, ints Interrupts, cfg Config) (*InterruptButton, error) {
	if !cfg.Edge.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEdge, cfg.Edge)
	}

	light, err := requestLight(chip, cfg.LightPin)
	if err != nil {
		return nil, err
	}

	b := &InterruptButton{
		indicator: light,
		ints:      ints,
	}

	in, err := chip.Watch(cfg.ButtonPin, gpio.PullUp, cfg.Edge, func() {
		ints.Raise(b.OnEdge)
	})
	if err != nil {
		light.out.Close()
		return nil, fmt.Errorf("button pin: %w", err)
	}
	b.in = in

	return b, nil
}

// OnEdge records one edge. It is the interrupt handler and does not block.
func (b *InterruptButton) OnEdge() {
	b.pending.Add()
}

// ConsumePush reports whether at least one edge arrived since the last
// call, and clears the count.
func (b *InterruptButton) ConsumePush() bool {
	return b.TakePushes() > 0
}

// TakePushes returns the number of edges since the last call and clears
// the count. An edge raised during the call is either included or kept
// for the next call.
func (b *InterruptButton) TakePushes() int {
	s := b.ints.Disable()
	defer b.ints.Restore(s)

	if b.pending.Pending() == 0 {
		return 0
	}
	return b.pending.Take()
}

// IsPushed is ConsumePush.
func (b *InterruptButton) IsPushed() bool {
	return b.ConsumePush()
}

// Close releases the lines. Edges already latched by the controller may
// still be delivered to OnEdge.
func (b *InterruptButton) Close() error {
	return closeLines(b.in, b.out)
}
