// Package mqtt provides telemetry publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/shutter-controller/internal/control"
)

// Topic is the MQTT topic for shutter state transition events.
const Topic = "observatory/shutter/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "observatory/shutter/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a shutter event to the broker.
	// Returns error if publishing fails (must not crash the daemon).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a shutter state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      control.EventType
	Snapshot  control.Snapshot
}

// SystemEvent represents a system lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the broker should retain the message
}

// Payload is the MQTT message payload for shutter events.
type Payload struct {
	Shutter ShutterPayload `json:"shutter"`
}

// ShutterPayload contains the event details.
type ShutterPayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	State     string        `json:"state"`
	Requested string        `json:"requested"`
	LimitOpen bool          `json:"limit_open"`
	LimitClsd bool          `json:"limit_closed"`
	Heartbeat HeartbeatInfo `json:"heartbeat"`
}

// HeartbeatInfo reports the watchdog state inside an event payload.
type HeartbeatInfo struct {
	SecondsRemaining int  `json:"seconds_remaining"`
	Triggered        bool `json:"triggered"`
}

// FormatPayload creates the JSON payload for a shutter event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Shutter: ShutterPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     event.Snapshot.Current.String(),
			Requested: event.Snapshot.Requested.String(),
			LimitOpen: event.Snapshot.Flags.LimitOpen,
			LimitClsd: event.Snapshot.Flags.LimitClosed,
			Heartbeat: HeartbeatInfo{
				SecondsRemaining: int(event.Snapshot.HeartbeatRemaining),
				Triggered:        event.Snapshot.HeartbeatTriggered,
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message payload for simple system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots built by the status package).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
