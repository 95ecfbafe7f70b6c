//go:build !linux

package gpio

import "errors"

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// NewRealChip returns an error on non-Linux platforms.
func NewRealChip(name, consumer string) (*RealChip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Input is not implemented on non-Linux platforms.
func (c *RealChip) Input(pin int, pull Pull) (Input, error) {
	return nil, errors.New("gpio: not supported")
}

// Output is not implemented on non-Linux platforms.
func (c *RealChip) Output(pin int, drive Drive) (Output, error) {
	return nil, errors.New("gpio: not supported")
}

// Watch is not implemented on non-Linux platforms.
func (c *RealChip) Watch(pin int, pull Pull, edge Edge, handler func()) (Input, error) {
	return nil, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *RealChip) Close() error {
	return nil
}
