package logic

import "time"

// Detector turns debounced button observations into events and keeps the
// counters reported by heartbeats.
type Detector struct {
	state         State
	observed      int
	baselined     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a new event detector.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Observe takes the debounced state after a polling tick and returns the
// event for a transition, or nil.
//
// The first HistoryDepth observations only establish the baseline: until the
// filter has seen a full history its stable state is the power-on default,
// not the button.
func (d *Detector) Observe(pushed bool, now time.Time) *Event {
	s := StateOf(pushed)

	if !d.baselined {
		d.state = s
		d.observed++
		if d.observed >= HistoryDepth {
			d.baselined = true
		}
		return nil
	}

	if s == d.state {
		return nil
	}
	d.state = s

	e := &Event{
		Timestamp: now,
		State:     s,
	}
	if s == StatePushed {
		e.Type = EventPushed
		d.eventCounts.Pushed++
	} else {
		e.Type = EventReleased
		d.eventCounts.Released++
	}
	return e
}

// Press takes the number of edges consumed after an interrupt-mode tick and
// returns a PRESSED event when n > 0. Interrupt mode has no warm-up, so the
// first call establishes the baseline.
func (d *Detector) Press(n int, now time.Time) *Event {
	d.baselined = true
	if n <= 0 {
		return nil
	}

	d.eventCounts.Presses += n
	return &Event{
		Timestamp: now,
		Type:      EventPressed,
		State:     StatePushed,
		Presses:   n,
	}
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the last observed state. It is empty until the
// first observation, and always empty in interrupt mode where only presses
// are known.
func (d *Detector) CurrentState() State {
	return d.state
}

// EventCountsSnapshot returns a copy of the event counters.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.baselined {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
