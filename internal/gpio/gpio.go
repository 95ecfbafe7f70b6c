// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Input is a line configured as an input.
type Input interface {
	// Get returns the logical level of the line (true = high).
	Get() bool

	// Close releases the line. The pin keeps its configuration.
	Close() error
}

// Output is a line configured as an output.
type Output interface {
	// Set drives the line to the given level (true = high).
	Set(on bool)

	// Close releases the line. The pin keeps its configuration.
	Close() error
}

// Chip hands out configured lines.
type Chip interface {
	// Input requests pin as an input with the given bias.
	Input(pin int, pull Pull) (Input, error)

	// Output requests pin as an output, initially low.
	Output(pin int, drive Drive) (Output, error)

	// Watch requests pin as an input and calls handler once per edge of the
	// given polarity. The handler is called from a goroutine owned by the
	// chip and must not block.
	Watch(pin int, pull Pull, edge Edge, handler func()) (Input, error)

	// Close releases the chip.
	Close() error
}

// Pull is the input bias.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Drive is the output drive mode.
type Drive uint8

const (
	// DriveStrong actively drives both levels (push-pull).
	DriveStrong Drive = iota
	// DriveOpenDrain only sinks current; high is left to a pull-up.
	DriveOpenDrain
)

// Edge selects which transition raises an edge event.
type Edge uint8

const (
	RisingEdge Edge = iota
	FallingEdge
)

// Valid reports whether e is one of the defined polarities.
func (e Edge) Valid() bool {
	return e == RisingEdge || e == FallingEdge
}

func (e Edge) String() string {
	switch e {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	}
	return "invalid"
}

// Pin defaults (BCM numbering)
const (
	DefaultPinButton = 17
	DefaultPinLight  = 27
)

// DefaultChip is the GPIO character device on Raspberry Pi boards.
const DefaultChip = "gpiochip0"
