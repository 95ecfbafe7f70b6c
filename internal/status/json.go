package status

import (
	"encoding/json"
	"time"
)

// Document is the JSON envelope served at /index.json and carried by
// STARTUP, HEARTBEAT and SHUTDOWN system events.
type Document struct {
	Status Report `json:"status"`
}

// Report is the body of a Document. Event and Reason are only set when the
// report travels as a system event.
type Report struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Button        string       `json:"button"`
	Light         string       `json:"light"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          Broker       `json:"mqtt"`
	Counts        Counts       `json:"event_counts"`
	Network       *NetworkInfo `json:"network,omitempty"`
	Config        Config       `json:"config"`
}

// Broker is the MQTT side of a Report.
type Broker struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// Counts mirrors logic.EventCounts with wire names.
type Counts struct {
	Pushed   int `json:"pushed"`
	Released int `json:"released"`
	Presses  int `json:"presses"`
}

// ButtonString returns the state for display; "UNKNOWN" before the first
// observation and in interrupt mode.
func ButtonString(snap Snapshot) string {
	if snap.State == "" {
		return "UNKNOWN"
	}
	return string(snap.State)
}

// LightString returns "ON" or "OFF".
func LightString(snap Snapshot) string {
	if snap.Light {
		return "ON"
	}
	return "OFF"
}

// NewReport renders snap for the wire.
func NewReport(snap Snapshot) Report {
	return Report{
		Button:        ButtonString(snap),
		Light:         LightString(snap),
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime() / time.Second),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          Broker{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        Counts(snap.Counts),
		Network:       snap.Network,
		Config:        snap.Config,
	}
}

// FormatJSON returns the indented status document for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Document{Status: NewReport(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact status document for a system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	r := NewReport(snap)
	r.Event, r.Reason = event, reason
	data, _ := json.Marshal(Document{Status: r})
	return data
}
