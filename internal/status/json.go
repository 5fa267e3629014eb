package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	State         string        `json:"state"`
	Requested     string        `json:"requested"`
	Moving        bool          `json:"moving"`
	LimitOpen     bool          `json:"limit_open"`
	LimitClosed   bool          `json:"limit_closed"`
	Heartbeat     HeartbeatJSON `json:"heartbeat"`
	Record        string        `json:"record"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Config        ConfigJSON    `json:"config"`
}

// HeartbeatJSON reports the watchdog state.
type HeartbeatJSON struct {
	SecondsRemaining int  `json:"seconds_remaining"`
	Triggered        bool `json:"triggered"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Device   string `json:"device"`
	Baud     int    `json:"baud"`
	TickMs   int64  `json:"tick_ms"`
	Broker   string `json:"broker,omitempty"`
	HTTPAddr string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	cs := snap.Control
	return StatusInner{
		State:       cs.Current.String(),
		Requested:   cs.Requested.String(),
		Moving:      cs.Flags.Moving,
		LimitOpen:   cs.Flags.LimitOpen,
		LimitClosed: cs.Flags.LimitClosed,
		Heartbeat: HeartbeatJSON{
			SecondsRemaining: int(cs.HeartbeatRemaining),
			Triggered:        cs.HeartbeatTriggered,
		},
		Record:        string(cs.StatusRecord()[:6]),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Device:   snap.Config.Device,
			Baud:     snap.Config.Baud,
			TickMs:   snap.Config.TickMs,
			Broker:   snap.Config.Broker,
			HTTPAddr: snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event field).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
