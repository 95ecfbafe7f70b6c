package logic

// HistoryDepth is the number of consecutive identical raw samples required
// before the debounced state changes.
const HistoryDepth = 8

const (
	historySettledHigh uint8 = 1<<HistoryDepth - 1
	historySettledLow  uint8 = 0
)

// Debouncer is a shift-register debounce filter.
// Each sample is shifted into bit 0 of an 8-bit history. The stable state
// only changes once the whole history agrees, so a bouncing contact keeps
// the previous stable state.
//
// The zero value is ready to use and reports released.
type Debouncer struct {
	history uint8
	stable  bool
}

// Sample shifts raw into the history and returns the stable state and
// whether this sample changed it.
func (d *Debouncer) Sample(raw bool) (stable bool, changed bool) {
	d.history <<= 1
	if raw {
		d.history |= 1
	}

	prev := d.stable
	switch d.history {
	case historySettledHigh:
		d.stable = true
	case historySettledLow:
		d.stable = false
	}
	return d.stable, d.stable != prev
}

// Stable returns the last debounced state. It does not sample anything.
func (d *Debouncer) Stable() bool {
	return d.stable
}

// History returns the raw sample history, most recent sample in bit 0.
func (d *Debouncer) History() uint8 {
	return d.history
}
