package internal

import (
	"testing"
	"time"

	"github.com/sweeney/shutter-controller/internal/control"
	"github.com/sweeney/shutter-controller/internal/gpio"
	"github.com/sweeney/shutter-controller/internal/mqtt"
	"github.com/sweeney/shutter-controller/internal/transport"
)

// rig wires a controller to a transport port and a fake publisher the way
// the daemon's run loop does, with time driven by explicit steps.
type rig struct {
	t    *testing.T
	ctl  *control.Controller
	conn *gpio.FakeConn
	port *transport.Port
	pub  *mqtt.FakePublisher
	now  time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	conn := gpio.NewFakeConn()
	ctl, err := control.New(conn)
	if err != nil {
		t.Fatalf("control.New: %v", err)
	}
	return &rig{
		t:    t,
		ctl:  ctl,
		conn: conn,
		port: transport.NewPort(),
		pub:  mqtt.NewFakePublisher(),
		now:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// step advances one 100 ms tick followed by a poll pass, publishing any
// events, exactly as the run loop interleaves them.
func (r *rig) step() {
	r.publish(r.ctl.Tick())
	r.publish(r.ctl.Poll(r.port))
	r.now = r.now.Add(control.TickInterval)
}

func (r *rig) steps(n int) {
	for i := 0; i < n; i++ {
		r.step()
	}
}

func (r *rig) publish(events []control.Event) {
	r.t.Helper()
	for _, e := range events {
		err := r.pub.Publish(mqtt.Event{Timestamp: r.now, Type: e.Type, Snapshot: e.Snapshot})
		if err != nil {
			r.t.Fatalf("publish: %v", err)
		}
	}
}

// send simulates the host writing a command byte to the serial line.
func (r *rig) send(b byte) {
	r.port.OnReceive(b)
}

// wire drains everything the controller has written to the serial line.
func (r *rig) wire() string {
	var out []byte
	for {
		b, ok := r.port.TransmitReady()
		if !ok {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

func (r *rig) eventTypes() []control.EventType {
	types := make([]control.EventType, len(r.pub.Events))
	for i, e := range r.pub.Events {
		types[i] = e.Type
	}
	return types
}

// TestIntegrationOpenToLimit drives a full host-commanded open: command byte
// in over the wire, motion, limit switch stop, and the status records that a
// host polling the line would observe along the way.
func TestIntegrationOpenToLimit(t *testing.T) {
	r := newRig(t)

	r.send(control.CmdOpen)
	r.steps(10)

	if got := r.wire(); got != "01,000\r\n" {
		t.Errorf("status after 1s of opening: got %q, want %q", got, "01,000\r\n")
	}
	snap := r.ctl.Snapshot()
	if snap.Current != control.Open || !snap.Flags.Moving {
		t.Fatalf("expected opening in progress, got %+v", snap)
	}

	// The shutter reaches the open end-stop.
	r.conn.Press(gpio.LimitOpen)
	r.steps(10)

	if got := r.wire(); got != "03,000\r\n" {
		t.Errorf("status at open limit: got %q, want %q", got, "03,000\r\n")
	}
	snap = r.ctl.Snapshot()
	if snap.Flags.Moving {
		t.Error("expected motion stopped at limit")
	}
	if r.conn.Output(gpio.DriveEnableA) || r.conn.Output(gpio.DriveEnableB) {
		t.Error("expected drive enables low at limit")
	}

	want := []control.EventType{control.EventOpening, control.EventStopped}
	got := r.eventTypes()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// TestIntegrationHeartbeatLifecycle walks the watchdog through arm, ping,
// expiry, forced close, and explicit clear, checking the wire and the
// published events at each stage.
func TestIntegrationHeartbeatLifecycle(t *testing.T) {
	r := newRig(t)

	// Arm for 3 seconds.
	r.send(0x03)
	r.steps(10)
	if got := r.wire(); got != "00,002\r\n" {
		t.Errorf("status after 1s armed: got %q, want %q", got, "00,002\r\n")
	}

	// Ping resets the countdown.
	r.send(0x03)
	r.steps(10)
	if got := r.wire(); got != "00,002\r\n" {
		t.Errorf("status after ping: got %q, want %q", got, "00,002\r\n")
	}

	// No more pings: two seconds later the watchdog fires and closes.
	r.steps(20)
	if got := r.wire(); got != "00,001\r\n02,255\r\n" {
		t.Errorf("status through trigger: got %q", got)
	}
	snap := r.ctl.Snapshot()
	if !snap.HeartbeatTriggered {
		t.Fatal("expected heartbeat triggered")
	}
	if snap.Current != control.Close {
		t.Errorf("expected forced close, got %s", snap.Current)
	}

	// Commands other than clear are ignored while triggered.
	r.send(control.CmdOpen)
	r.steps(1)
	if snap := r.ctl.Snapshot(); snap.Current != control.Close {
		t.Errorf("open honored while triggered: %s", snap.Current)
	}

	// Clear stops the motor and returns to normal operation. The stop is
	// applied on the tick after the command is polled.
	r.send(0x00)
	r.steps(2)
	snap = r.ctl.Snapshot()
	if snap.HeartbeatTriggered {
		t.Error("expected trigger cleared")
	}
	if snap.Flags.Moving {
		t.Error("expected motion stopped after clear")
	}

	types := r.eventTypes()
	wantSeq := []control.EventType{
		control.EventHeartbeatTriggered,
		control.EventClosing,
		control.EventHeartbeatCleared,
		control.EventStopped,
	}
	if len(types) != len(wantSeq) {
		t.Fatalf("expected events %v, got %v", wantSeq, types)
	}
	for i := range wantSeq {
		if types[i] != wantSeq[i] {
			t.Errorf("event %d: expected %s, got %s", i, wantSeq[i], types[i])
		}
	}
}

// TestIntegrationButtonJog covers the manual path: a held button moves the
// shutter, release stops it within the short governor window.
func TestIntegrationButtonJog(t *testing.T) {
	r := newRig(t)

	r.conn.Press(gpio.ButtonClose)
	r.steps(2) // latch tick + confirm tick
	snap := r.ctl.Snapshot()
	if snap.Current != control.Close || !snap.Flags.Moving {
		t.Fatalf("expected closing under button, got %+v", snap)
	}

	r.conn.Release(gpio.ButtonClose)
	r.steps(2)
	snap = r.ctl.Snapshot()
	if snap.Flags.Moving {
		t.Error("expected motion stopped after release")
	}

	types := r.eventTypes()
	want := []control.EventType{control.EventClosing, control.EventStopped}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
}

// TestIntegrationGarbageBytesIgnored feeds line noise around a valid command
// and verifies only the command has any effect.
func TestIntegrationGarbageBytesIgnored(t *testing.T) {
	r := newRig(t)

	for _, b := range []byte{0xF3, 0xFE, 0xF5, control.CmdStop, 0xF9} {
		r.send(b)
	}
	r.steps(10)

	if got := r.wire(); got != "00,000\r\n" {
		t.Errorf("status after noise: got %q, want %q", got, "00,000\r\n")
	}
	snap := r.ctl.Snapshot()
	if snap.Flags.Moving || snap.HeartbeatRemaining != 0 {
		t.Errorf("noise changed state: %+v", snap)
	}
	if len(r.pub.Events) != 0 {
		t.Errorf("expected no events, got %v", r.eventTypes())
	}
}
