package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/shutter-controller/internal/control"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Device: "/dev/ttyUSB0", Baud: 9600, TickMs: 100, HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Device != "/dev/ttyUSB0" {
		t.Errorf("Config.Device: got %q", snap.Config.Device)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Control.Current != control.Stopped {
		t.Errorf("expected STOPPED initially, got %s", snap.Control.Current)
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(control.Snapshot{
		Requested:          control.Close,
		Current:            control.Close,
		Flags:              control.Flags{Moving: true},
		HeartbeatRemaining: 42,
	})

	snap := tr.Snapshot()
	if snap.Control.Current != control.Close {
		t.Errorf("Current: got %s, want CLOSE", snap.Control.Current)
	}
	if !snap.Control.Flags.Moving {
		t.Error("expected Moving=true")
	}
	if snap.Control.HeartbeatRemaining != 42 {
		t.Errorf("HeartbeatRemaining: got %d, want 42", snap.Control.HeartbeatRemaining)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(control.Snapshot{Current: control.Open})

	snap1 := tr.Snapshot()
	tr.Update(control.Snapshot{Current: control.Close})

	if snap1.Control.Current != control.Open {
		t.Error("snapshot should be a copy; Current was modified")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}
	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Control: control.Snapshot{
			Requested:          control.Close,
			Current:            control.Close,
			Flags:              control.Flags{Moving: true},
			HeartbeatTriggered: true,
		},
		StartTime:     start,
		Now:           start.Add(90 * time.Second),
		MQTTConnected: true,
		Config:        Config{Device: "/dev/ttyUSB0", Baud: 9600, TickMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.State != "CLOSE" {
		t.Errorf("State: got %q, want CLOSE", parsed.Status.State)
	}
	if !parsed.Status.Moving {
		t.Error("expected Moving=true")
	}
	if !parsed.Status.Heartbeat.Triggered {
		t.Error("expected Heartbeat.Triggered=true")
	}
	if parsed.Status.Record != "02,255" {
		t.Errorf("Record: got %q, want 02,255", parsed.Status.Record)
	}
	if parsed.Status.UptimeSeconds != 90 {
		t.Errorf("UptimeSeconds: got %d, want 90", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	// Event should be omitted for the web format.
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event, got %q", parsed.Status.Event)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "STARTUP" {
		t.Errorf("Event: got %q, want STARTUP", parsed.Status.Event)
	}
	if parsed.Status.State != "STOPPED" {
		t.Errorf("State: got %q, want STOPPED", parsed.Status.State)
	}
	if parsed.Status.Record != "00,000" {
		t.Errorf("Record: got %q, want 00,000", parsed.Status.Record)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(control.Snapshot{Current: control.Open})
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
