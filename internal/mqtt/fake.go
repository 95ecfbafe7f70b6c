package mqtt

import (
	"github.com/sweeney/big-red-button/internal/logic"
)

// FakePublisher records what would have been sent to the broker and plays
// the broker's side of the light command subscription.
//
// It is not synchronized: tests read the recorded slices only after the
// goroutine publishing to it has stopped.
type FakePublisher struct {
	Events   []logic.Event // button events, in publish order
	Payloads [][]byte      // wire form of Events

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError and PublishSystemError, when set, fail the matching
	// call and nothing is recorded.
	PublishError       error
	PublishSystemError error

	Connected bool // returned by IsConnected
	Closed    bool

	lights chan bool
}

var (
	_ Publisher        = (*FakePublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
	_ LightSource      = (*FakePublisher)(nil)
)

// NewFakePublisher returns a FakePublisher whose light command queue holds
// as many commands as the real subscription does.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{lights: make(chan bool, lightQueue)}
}

func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// SendLight queues a command as if it had arrived on TopicLightSet.
func (f *FakePublisher) SendLight(on bool) {
	f.lights <- on
}

func (f *FakePublisher) LightCommands() <-chan bool { return f.lights }

func (f *FakePublisher) IsConnected() bool { return f.Connected }

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
