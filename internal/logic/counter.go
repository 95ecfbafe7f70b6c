package logic

import "math"

// Counter accumulates edge events until they are taken.
// The count saturates rather than wrapping, so a flood of edges can never
// read back as zero.
// Not safe for concurrent use; the caller synchronizes.
type Counter struct {
	pending uint8
}

// Add records one edge.
func (c *Counter) Add() {
	if c.pending < math.MaxUint8 {
		c.pending++
	}
}

// Pending returns the number of edges recorded since the last Take.
func (c *Counter) Pending() int {
	return int(c.pending)
}

// Take returns the pending count and resets it to zero.
func (c *Counter) Take() int {
	n := c.pending
	c.pending = 0
	return int(n)
}
