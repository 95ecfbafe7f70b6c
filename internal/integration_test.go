package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/big-red-button/internal/button"
	"github.com/sweeney/big-red-button/internal/gpio"
	"github.com/sweeney/big-red-button/internal/irq"
	"github.com/sweeney/big-red-button/internal/logic"
	"github.com/sweeney/big-red-button/internal/mqtt"
	"github.com/sweeney/big-red-button/internal/status"
)

const (
	pinButton = 17
	pinLight  = 27
)

// run expands a run-length description into raw line levels.
func run(n int, high bool) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = high
	}
	return out
}

// TestIntegrationPollingFullFlow tests the complete flow from GPIO to MQTT using fakes.
func TestIntegrationPollingFullFlow(t *testing.T) {
	// Active-low wiring: the line reads low while the button is held.
	var levels []bool
	levels = append(levels, run(8, true)...)                                // released baseline
	levels = append(levels, false, true, false, false, true, false, false) // contact bounce
	levels = append(levels, run(8, false)...)                               // held
	levels = append(levels, true, false, true, true)                        // release bounce
	levels = append(levels, run(8, true)...)                                // released

	chip := gpio.NewFakeChip()
	chip.Script(pinButton, levels...)
	b, err := button.NewPolling(chip, button.Config{ButtonPin: pinButton, LightPin: pinLight, ActiveLow: true})
	if err != nil {
		t.Fatalf("NewPolling: %v", err)
	}
	defer b.Close()

	publisher := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(startTime)
	pollInterval := 5 * time.Millisecond

	// Simulate the main loop
	for i := range levels {
		now := startTime.Add(time.Duration(i) * pollInterval)
		if b.Tick() {
			b.SetLight(b.IsPushed())
		}
		if event := detector.Observe(b.IsPushed(), now); event != nil {
			if err := publisher.Publish(*event); err != nil {
				t.Fatalf("sample %d: publish error: %v", i, err)
			}
		}
	}

	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(publisher.Events), publisher.Events)
	}

	expected := []struct {
		event string
		state string
		at    time.Duration
	}{
		// The bounce ends with two lows, so eight in a row completes at index 20.
		{"PUSHED", "PUSHED", 20 * pollInterval},
		// Likewise the release bounce ends with two highs: index 32.
		{"RELEASED", "RELEASED", 32 * pollInterval},
	}
	for i, exp := range expected {
		var payload mqtt.Payload
		if err := json.Unmarshal(publisher.Payloads[i], &payload); err != nil {
			t.Fatalf("event %d: invalid JSON: %v", i, err)
		}
		if payload.Button.Event != exp.event {
			t.Errorf("event %d: expected event %s, got %s", i, exp.event, payload.Button.Event)
		}
		if payload.Button.State != exp.state {
			t.Errorf("event %d: expected state %s, got %s", i, exp.state, payload.Button.State)
		}
		if payload.Button.Presses != 0 {
			t.Errorf("event %d: polling events carry no press count, got %d", i, payload.Button.Presses)
		}
		if !publisher.Events[i].Timestamp.Equal(startTime.Add(exp.at)) {
			t.Errorf("event %d: expected timestamp %v, got %v", i, startTime.Add(exp.at), publisher.Events[i].Timestamp)
		}
	}

	counts := detector.EventCountsSnapshot()
	if counts.Pushed != 1 || counts.Released != 1 {
		t.Errorf("counts: got %+v", counts)
	}

	// Initial low from the request, on while held, off again.
	writes := chip.Writes(pinLight)
	if len(writes) != 3 || writes[0] || !writes[1] || writes[2] {
		t.Errorf("light writes: got %v, want [false true false]", writes)
	}
}

// TestIntegrationInterruptFullFlow drives edges through the interrupt
// controller, including edges raised while the main context has interrupts
// masked, and checks every edge reaches MQTT exactly once.
func TestIntegrationInterruptFullFlow(t *testing.T) {
	chip := gpio.NewFakeChip()
	ctl := irq.New()
	b, err := button.NewInterrupt(chip, ctl, button.Config{ButtonPin: pinButton, LightPin: pinLight, Edge: gpio.FallingEdge})
	if err != nil {
		t.Fatalf("NewInterrupt: %v", err)
	}
	defer b.Close()

	publisher := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(startTime)

	step := func(i int) {
		now := startTime.Add(time.Duration(i) * 5 * time.Millisecond)
		if event := detector.Press(b.TakePushes(), now); event != nil {
			if err := publisher.Publish(*event); err != nil {
				t.Fatalf("tick %d: publish error: %v", i, err)
			}
		}
	}

	step(0)
	chip.Fire(pinButton)
	chip.Fire(pinButton)
	step(1)

	// Edges arriving inside a critical section are latched, not lost.
	s := ctl.Disable()
	chip.Fire(pinButton)
	if n := ctl.Pending(); n != 1 {
		t.Errorf("expected 1 latched edge, got %d", n)
	}
	ctl.Restore(s)
	step(2)
	step(3)

	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(publisher.Events), publisher.Events)
	}
	wantPresses := []int{2, 1}
	for i, want := range wantPresses {
		var payload mqtt.Payload
		if err := json.Unmarshal(publisher.Payloads[i], &payload); err != nil {
			t.Fatalf("event %d: invalid JSON: %v", i, err)
		}
		if payload.Button.Event != "PRESSED" {
			t.Errorf("event %d: expected PRESSED, got %s", i, payload.Button.Event)
		}
		if payload.Button.Presses != want {
			t.Errorf("event %d: expected %d presses, got %d", i, want, payload.Button.Presses)
		}
	}

	if got := detector.EventCountsSnapshot().Presses; got != 3 {
		t.Errorf("Presses: got %d, want 3", got)
	}
}

// TestIntegrationInterruptSaturates checks a burst larger than the counter
// reports the saturated value rather than wrapping.
func TestIntegrationInterruptSaturates(t *testing.T) {
	chip := gpio.NewFakeChip()
	b, err := button.NewInterrupt(chip, irq.New(), button.Config{ButtonPin: pinButton, LightPin: pinLight, Edge: gpio.RisingEdge})
	if err != nil {
		t.Fatalf("NewInterrupt: %v", err)
	}
	defer b.Close()

	for i := 0; i < 300; i++ {
		chip.Fire(pinButton)
	}

	detector := logic.NewDetector(time.Now())
	event := detector.Press(b.TakePushes(), time.Now())
	if event == nil {
		t.Fatal("expected a PRESSED event")
	}
	if event.Presses != 255 {
		t.Errorf("Presses: got %d, want 255", event.Presses)
	}
	if b.ConsumePush() {
		t.Error("count should be cleared after the burst is taken")
	}
}

// TestIntegrationPublishErrorRecovery tests that publish errors don't stop processing.
func TestIntegrationPublishErrorRecovery(t *testing.T) {
	var levels []bool
	levels = append(levels, run(8, true)...)
	levels = append(levels, run(8, false)...)
	levels = append(levels, run(8, true)...)

	chip := gpio.NewFakeChip()
	chip.Script(pinButton, levels...)
	b, err := button.NewPolling(chip, button.Config{ButtonPin: pinButton, LightPin: pinLight, ActiveLow: true})
	if err != nil {
		t.Fatalf("NewPolling: %v", err)
	}
	defer b.Close()

	publisher := mqtt.NewFakePublisher()
	publisher.PublishError = errors.New("broker unavailable")
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(startTime)

	var errorCount int
	for i := range levels {
		b.Tick()
		if i == 16 {
			publisher.PublishError = nil
		}
		if event := detector.Observe(b.IsPushed(), startTime.Add(time.Duration(i)*5*time.Millisecond)); event != nil {
			if err := publisher.Publish(*event); err != nil {
				errorCount++
			}
		}
	}

	if errorCount != 1 {
		t.Errorf("expected 1 failed publish, got %d", errorCount)
	}
	if len(publisher.Events) != 1 || publisher.Events[0].Type != logic.EventReleased {
		t.Errorf("expected the RELEASED event after recovery, got %+v", publisher.Events)
	}
	if detector.EventCountsSnapshot().Pushed != 1 {
		t.Error("failed publishes must still be counted")
	}
}

// TestIntegrationHeartbeatSnapshot checks the heartbeat system event carries
// the tracker's view of the button.
func TestIntegrationHeartbeatSnapshot(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(startTime)
	tracker := status.NewTracker(startTime, status.Config{Mode: "interrupt", Edge: "falling", PinButton: pinButton, PinLight: pinLight})
	publisher := mqtt.NewFakePublisher()

	detector.Press(4, startTime.Add(time.Second))
	tracker.Update(detector.CurrentState(), detector.IsBaselined(), detector.EventCountsSnapshot())
	tracker.SetLight(true)

	now := startTime.Add(15 * time.Minute)
	hb := detector.CheckHeartbeat(now, 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	event := mqtt.SystemEvent{
		Timestamp:  hb.Timestamp,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
	}
	if err := publisher.PublishSystem(event); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	var sj status.Document
	if err := json.Unmarshal(publisher.SystemPayloads[0], &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", sj.Status.Event)
	}
	if sj.Status.Counts.Presses != 4 {
		t.Errorf("Counts.Presses: got %d, want 4", sj.Status.Counts.Presses)
	}
	if sj.Status.Light != "ON" {
		t.Errorf("Light: got %q, want ON", sj.Status.Light)
	}
	if sj.Status.Button != "UNKNOWN" {
		t.Errorf("Button: interrupt mode has no level, got %q", sj.Status.Button)
	}

	if detector.CheckHeartbeat(now.Add(time.Minute), 15*time.Minute) != nil {
		t.Error("heartbeat should not repeat before the interval elapses")
	}
}
