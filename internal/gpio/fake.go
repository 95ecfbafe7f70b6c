package gpio

import (
	"fmt"
	"sync"
)

// FakeChip is a test double that returns scripted input levels and records
// output writes. It is safe for concurrent use so tests can fire edges from
// another goroutine.
type FakeChip struct {
	// InputError, OutputError and WatchError, if set, are returned by the
	// matching request method. Set them before handing the chip out.
	InputError  error
	OutputError error
	WatchError  error

	mu       sync.Mutex
	samples  map[int][]bool
	index    map[int]int
	writes   map[int][]bool
	handlers map[int]func()
	requests []string
	released map[int]bool
	closed   bool
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		samples:  make(map[int][]bool),
		index:    make(map[int]int),
		writes:   make(map[int][]bool),
		handlers: make(map[int]func()),
		released: make(map[int]bool),
	}
}

// Script appends levels returned by successive Get calls on pin.
// Once the script is exhausted the last level repeats; an unscripted pin
// reads low.
func (f *FakeChip) Script(pin int, levels ...bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[pin] = append(f.samples[pin], levels...)
}

// Fire delivers one edge to the handler watching pin, on the caller's
// goroutine. It returns false if nothing watches pin.
func (f *FakeChip) Fire(pin int) bool {
	f.mu.Lock()
	h, ok := f.handlers[pin]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h()
	return true
}

// Writes returns every level written to pin, oldest first.
func (f *FakeChip) Writes(pin int) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes[pin]...)
}

// Level returns the last level written to pin (low if never written).
func (f *FakeChip) Level(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.writes[pin]
	if len(w) == 0 {
		return false
	}
	return w[len(w)-1]
}

// Requests returns a description of each successful line request, in order.
func (f *FakeChip) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Released reports whether the line for pin was closed.
func (f *FakeChip) Released(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released[pin]
}

// Closed reports whether Close was called.
func (f *FakeChip) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Input requests pin as an input.
func (f *FakeChip) Input(pin int, pull Pull) (Input, error) {
	if f.InputError != nil {
		return nil, f.InputError
	}
	f.record(fmt.Sprintf("input %d pull=%d", pin, pull))
	return &fakeLine{chip: f, pin: pin}, nil
}

// Output requests pin as an output. The initial low level is recorded as a
// write.
func (f *FakeChip) Output(pin int, drive Drive) (Output, error) {
	if f.OutputError != nil {
		return nil, f.OutputError
	}
	f.record(fmt.Sprintf("output %d drive=%d", pin, drive))
	l := &fakeLine{chip: f, pin: pin}
	l.Set(false)
	return l, nil
}

// Watch requests pin as an input and remembers handler for Fire.
func (f *FakeChip) Watch(pin int, pull Pull, edge Edge, handler func()) (Input, error) {
	if f.WatchError != nil {
		return nil, f.WatchError
	}
	f.record(fmt.Sprintf("watch %d pull=%d edge=%s", pin, pull, edge))
	f.mu.Lock()
	f.handlers[pin] = handler
	f.mu.Unlock()
	return &fakeLine{chip: f, pin: pin}, nil
}

// Close marks the chip as closed.
func (f *FakeChip) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *FakeChip) record(req string) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
}

// fakeLine is both the Input and the Output handed out by FakeChip.
type fakeLine struct {
	chip *FakeChip
	pin  int
}

func (l *fakeLine) Get() bool {
	f := l.chip
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.samples[l.pin]
	if len(s) == 0 {
		return false
	}
	// index counts consumed samples, so levels scripted after the script
	// ran dry are still served in order.
	i := f.index[l.pin]
	if i >= len(s) {
		return s[len(s)-1]
	}
	f.index[l.pin] = i + 1
	return s[i]
}

func (l *fakeLine) Set(on bool) {
	f := l.chip
	f.mu.Lock()
	f.writes[l.pin] = append(f.writes[l.pin], on)
	f.mu.Unlock()
}

func (l *fakeLine) Close() error {
	f := l.chip
	f.mu.Lock()
	f.released[l.pin] = true
	delete(f.handlers, l.pin)
	f.mu.Unlock()
	return nil
}
