// Package button implements a single push-button with an indicator light.
//
// A button is either polled (PollingButton) or interrupt driven
// (InterruptButton). The mode is the type, so the API of one mode cannot be
// called on the other.
package button

import (
	"errors"
	"fmt"

	"github.com/sweeney/big-red-button/internal/gpio"
	"github.com/sweeney/big-red-button/internal/irq"
)

// ErrInvalidEdge is returned when an interrupt button is built with an edge
// polarity other than gpio.RisingEdge or gpio.FallingEdge.
var ErrInvalidEdge = errors.New("button: invalid edge polarity")

// Button is what both modes offer the application.
type Button interface {
	// IsPushed reports the button. For a PollingButton this is the debounced
	// state; for an InterruptButton it consumes pending presses.
	IsPushed() bool

	// SetLight drives the indicator light.
	SetLight(on bool)

	// Light returns the last level written by SetLight.
	Light() bool

	// Close releases the lines. Pins keep their configuration.
	Close() error
}

// Interrupts is the critical-section and dispatch primitive an
// InterruptButton needs. *irq.Controller implements it.
type Interrupts interface {
	Disable() irq.State
	Restore(irq.State)
	Raise(handler func())
}

// Config selects the pins and wiring of a button.
type Config struct {
	ButtonPin int
	LightPin  int

	// ActiveLow inverts the raw button level: the button pulls the line to
	// ground when pushed. Polling mode only.
	ActiveLow bool

	// Edge is the transition counted as a push. Interrupt mode only.
	Edge gpio.Edge
}

// noCopy makes go vet's copylocks check flag copies of a button, which
// would alias its pins.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// indicator is the light driver shared by both modes.
type indicator struct {
	out gpio.Output
	on  bool
}

// SetLight drives the light. Last write wins.
func (l *indicator) SetLight(on bool) {
	l.out.Set(on)
	l.on = on
}

// Light returns the last level written by SetLight.
func (l *indicator) Light() bool {
	return l.on
}

// requestLight configures the light pin as a strongly driven output.
func requestLight(chip gpio.Chip, pin int) (indicator, error) {
	out, err := chip.Output(pin, gpio.DriveStrong)
	if err != nil {
		return indicator{}, fmt.Errorf("light pin: %w", err)
	}
	return indicator{out: out}, nil
}

func closeLines(in gpio.Input, out gpio.Output) error {
	var errs []error
	if in != nil {
		if err := in.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if out != nil {
		if err := out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pin: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
