// Package status provides a thread-safe status tracker for the button daemon.
// It is written by the run loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/big-red-button/internal/logic"
)

// NetworkInfo is the host network state published by pi-helper.
type NetworkInfo struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// Config is the daemon configuration as shown to operators.
type Config struct {
	Mode        string `json:"mode"`           // "poll" or "interrupt"
	Edge        string `json:"edge,omitempty"` // interrupt mode only
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	PinButton   int    `json:"pin_button"`
	PinLight    int    `json:"pin_light"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

// Snapshot is a point-in-time view of daemon state. It shares nothing with
// the Tracker it came from.
type Snapshot struct {
	State         logic.State
	Baselined     bool
	Light         bool
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the daemon state shown on the status page and in
// STARTUP/HEARTBEAT/SHUTDOWN payloads. The run loop writes, HTTP handlers read.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{StartTime: startTime, Config: cfg},
		now:  time.Now,
	}
}

func (t *Tracker) set(f func(*Snapshot)) {
	t.mu.Lock()
	f(&t.snap)
	t.mu.Unlock()
}

// Update records what the detector knows after a tick.
func (t *Tracker) Update(state logic.State, baselined bool, counts logic.EventCounts) {
	t.set(func(s *Snapshot) {
		s.State, s.Baselined, s.Counts = state, baselined, counts
	})
}

// SetLight records the indicator light level.
func (t *Tracker) SetLight(on bool) {
	t.set(func(s *Snapshot) { s.Light = on })
}

// SetMQTTConnected records the broker connection state.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.set(func(s *Snapshot) { s.MQTTConnected = connected })
}

// SetNetwork records the host network state. nil clears it.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	if info != nil {
		c := *info
		info = &c
	}
	t.set(func(s *Snapshot) { s.Network = info })
}

// Snapshot returns a copy of the daemon state stamped with the current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.Network != nil {
		n := *s.Network
		s.Network = &n
	}
	s.Now = t.now()
	return s
}
