package button

import (
	"fmt"

	"github.com/sweeney/big-red-button/internal/gpio"
	"github.com/sweeney/big-red-button/internal/logic"
)

// PollingButton debounces the button by sampling it once per Tick.
// Tick and IsPushed must be called from one goroutine.
type PollingButton struct {
	noCopy noCopy
	indicator

	in        gpio.Input
	activeLow bool
	filter    logic.Debouncer
}

var _ Button = (*PollingButton)(nil)

// NewPolling configures the light and button pins and returns a polled
// button. On error no lines are left requested.
func NewPolling(chip gpio.Chip, cfg Config) (*PollingButton, error) {
	light, err := requestLight(chip, cfg.LightPin)
	if err != nil {
		return nil, err
	}

	in, err := chip.Input(cfg.ButtonPin, gpio.PullUp)
	if err != nil {
		light.out.Close()
		return nil, fmt.Errorf("button pin: %w", err)
	}

	return &PollingButton{
		indicator: light,
		in:        in,
		activeLow: cfg.ActiveLow,
	}, nil
}

// Tick samples the button once and advances the debounce filter.
// It returns true when the debounced state changed.
func (b *PollingButton) Tick() bool {
	raw := b.in.Get() != b.activeLow
	_, changed := b.filter.Sample(raw)
	return changed
}

// IsPushed returns the debounced state as of the last Tick.
func (b *PollingButton) IsPushed() bool {
	return b.filter.Stable()
}

// History returns the raw samples held by the filter, newest in bit 0.
func (b *PollingButton) History() uint8 {
	return b.filter.History()
}

// Close releases the lines.
func (b *PollingButton) Close() error {
	return closeLines(b.in, b.out)
}
