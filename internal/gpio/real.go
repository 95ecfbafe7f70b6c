//go:build linux

package gpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// RealChip hands out lines from actual hardware using Linux GPIO character device.
type RealChip struct {
	chip *gpiocdev.Chip
}

// NewRealChip opens the named GPIO chip (e.g. "gpiochip0").
// consumer labels the requested lines in gpioinfo.
func NewRealChip(name, consumer string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip}, nil
}

// Input requests pin as an input.
func (c *RealChip) Input(pin int, pull Pull) (Input, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, biasOption(pull))
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &realInput{line: line, pin: pin}, nil
}

// Output requests pin as an output, initially low.
func (c *RealChip) Output(pin int, drive Drive) (Output, error) {
	var driveOpt gpiocdev.LineReqOption = gpiocdev.AsPushPull
	if drive == DriveOpenDrain {
		driveOpt = gpiocdev.AsOpenDrain
	}

	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0), driveOpt)
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &realOutput{line: line, pin: pin}, nil
}

// Watch requests pin as an input with edge detection. gpiocdev delivers
// events on its own goroutine, one at a time.
func (c *RealChip) Watch(pin int, pull Pull, edge Edge, handler func()) (Input, error) {
	var edgeOpt gpiocdev.LineReqOption = gpiocdev.WithRisingEdge
	if edge == FallingEdge {
		edgeOpt = gpiocdev.WithFallingEdge
	}

	line, err := c.chip.RequestLine(pin,
		gpiocdev.AsInput,
		biasOption(pull),
		edgeOpt,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { handler() }),
	)
	if err != nil {
		return nil, fmt.Errorf("request %s edge on pin %d: %w", edge, pin, err)
	}
	return &realInput{line: line, pin: pin}, nil
}

// Close releases the chip. Lines already handed out stay valid until closed.
func (c *RealChip) Close() error {
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

func biasOption(pull Pull) gpiocdev.LineReqOption {
	switch pull {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	}
	return gpiocdev.WithBiasDisabled
}

// realInput treats a failed read as the last good level; pin I/O is not
// allowed to fail at the button's level.
type realInput struct {
	line *gpiocdev.Line
	pin  int
	last bool
}

func (i *realInput) Get() bool {
	v, err := i.line.Value()
	if err != nil {
		log.Printf("gpio: read pin %d: %v", i.pin, err)
		return i.last
	}
	i.last = v != 0
	return i.last
}

// Close releases the line without reconfiguring it.
func (i *realInput) Close() error {
	if err := i.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", i.pin, err)
	}
	return nil
}

type realOutput struct {
	line *gpiocdev.Line
	pin  int
}

func (o *realOutput) Set(on bool) {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		log.Printf("gpio: write pin %d: %v", o.pin, err)
	}
}

// Close releases the line without reconfiguring it.
func (o *realOutput) Close() error {
	if err := o.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", o.pin, err)
	}
	return nil
}
