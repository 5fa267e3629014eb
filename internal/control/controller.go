package control

import (
	"fmt"
	"sync"

	"github.com/sweeney/shutter-controller/internal/gpio"
)

// Controller is the authoritative owner of all control state. Cross-context
// access (the 10 Hz tick, the command poll loop, status consumers) is
// serialized by a single mutex scoped to the whole tick, so a multi-field
// update is never observed half-applied.
type Controller struct {
	mu   sync.Mutex
	pins gpio.Conn

	// requested is the host/button intent; current is what is physically
	// energized. They may transiently disagree during a reversal.
	requested Direction
	current   Direction

	flags Flags

	// moveTicks bounds continuous drive; the motor stops when it reaches 0.
	moveTicks uint16

	statusTicks uint8
	statusDue   bool

	// Seconds until the watchdog forces a close; 0 = disabled.
	heartbeatRemaining uint8

	// Sticky once the watchdog fires. Cleared only by the explicit
	// clear command.
	heartbeatTriggered bool
}

// BytePort is the transport surface the poll loop needs. Both operations are
// non-blocking so that nothing on the poll path can ever starve the tick.
type BytePort interface {
	TryRead() (byte, bool)
	TryWrite(data []byte) bool
}

// New creates a Controller and claims the pins. The drive outputs are
// configured (and driven low) before any input so the relays can never
// glitch on during startup.
func New(pins gpio.Conn) (*Controller, error) {
	for _, pin := range []gpio.Pin{gpio.DriveEnableA, gpio.DriveEnableB, gpio.DriveSelectA, gpio.DriveSelectB} {
		if err := pins.ConfigureOutput(pin); err != nil {
			return nil, fmt.Errorf("configure output: %w", err)
		}
		pins.Set(pin, false)
	}
	for _, pin := range []gpio.Pin{gpio.ButtonOpen, gpio.ButtonClose, gpio.LimitOpen, gpio.LimitClosed} {
		if err := pins.ConfigureInputPullup(pin); err != nil {
			return nil, fmt.Errorf("configure input: %w", err)
		}
	}
	return &Controller{pins: pins}, nil
}

// Tick advances the control engine by one 100 ms step: status cadence and
// heartbeat countdown, limit sampling, button debounce, stop conditions,
// reversal safety, and drive output application, in that order. It returns
// any state transition events for publishing.
func (c *Controller) Tick() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current
	hbFired := false

	if c.statusTicks++; c.statusTicks == ticksPerStatus {
		c.statusTicks = 0
		c.statusDue = true

		if !c.heartbeatTriggered && c.heartbeatRemaining != 0 {
			if c.heartbeatRemaining--; c.heartbeatRemaining == 0 {
				c.heartbeatTriggered = true
				c.requested = Close
				c.moveTicks = autoMoveTicks
				hbFired = true
			}
		}
	}

	// Limit switches read low when the shutter is at the end-stop.
	c.flags.LimitOpen = !c.pins.Read(gpio.LimitOpen)
	c.flags.LimitClosed = !c.pins.Read(gpio.LimitClosed)

	c.debounceButton(gpio.ButtonOpen, &c.flags.ButtonOpen, c.flags.LimitOpen, Open)
	c.debounceButton(gpio.ButtonClose, &c.flags.ButtonClose, c.flags.LimitClosed, Close)

	// Stop conditions come first: the active direction's limit switch, or
	// the movement governor expiring. The open limit is evaluated before
	// the closed limit; if both assert simultaneously that order decides.
	stop := (c.current == Open && c.flags.LimitOpen) ||
		(c.current == Close && c.flags.LimitClosed)
	if !stop && c.moveTicks > 0 {
		if c.moveTicks--; c.moveTicks == 0 {
			stop = true
		}
	}
	if stop {
		c.deenergize()
		c.current = Stopped
		c.requested = Stopped
		c.moveTicks = 0
	}

	if c.current != Stopped && c.requested != c.current {
		// Direction change requested while energized: coast for at least
		// one full tick before the new direction is applied.
		c.deenergize()
		c.current = Stopped
	} else if c.requested == Open {
		c.pins.Set(gpio.DriveSelectA, true)
		c.pins.Set(gpio.DriveSelectB, false)
		c.pins.Set(gpio.DriveEnableA, true)
		c.pins.Set(gpio.DriveEnableB, true)
		c.current = Open
	} else if c.requested == Close {
		c.pins.Set(gpio.DriveSelectA, false)
		c.pins.Set(gpio.DriveSelectB, true)
		c.pins.Set(gpio.DriveEnableA, true)
		c.pins.Set(gpio.DriveEnableB, true)
		c.current = Close
	}

	c.flags.Moving = c.current != Stopped

	var events []Event
	if hbFired {
		events = append(events, Event{Type: EventHeartbeatTriggered, Snapshot: c.snapshotLocked()})
	}
	if c.current != prev {
		events = append(events, Event{Type: directionEvent(c.current), Snapshot: c.snapshotLocked()})
	}
	return events
}

// debounceButton confirms a press only when the latch was already set on the
// previous tick (two consecutive active samples, a 200 ms window). While
// held, the short move timeout is re-armed every tick; release drops the
// request immediately. Presses are ignored once the matching limit switch
// is asserted.
func (c *Controller) debounceButton(pin gpio.Pin, latch *bool, atLimit bool, dir Direction) {
	if !c.pins.Read(pin) {
		if *latch && !atLimit {
			c.requested = dir
			c.moveTicks = buttonMoveTicks
		} else {
			*latch = true
		}
		return
	}
	if *latch {
		c.requested = Stopped
	}
	*latch = false
}

func (c *Controller) deenergize() {
	c.pins.Set(gpio.DriveEnableA, false)
	c.pins.Set(gpio.DriveEnableB, false)
}

func directionEvent(d Direction) EventType {
	switch d {
	case Open:
		return EventOpening
	case Close:
		return EventClosing
	default:
		return EventStopped
	}
}

// HandleCommand interprets one protocol byte. Unknown and reserved bytes
// are silently ignored; while the heartbeat has triggered every command
// except the explicit clear is a no-op.
func (c *Controller) HandleCommand(b byte) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch b {
	case CmdOpen:
		if !c.heartbeatTriggered {
			c.requested = Open
			c.moveTicks = autoMoveTicks
		}

	case CmdClose:
		if !c.heartbeatTriggered {
			c.requested = Close
			c.moveTicks = autoMoveTicks
		}

	case CmdStop:
		if !c.heartbeatTriggered {
			c.requested = Stopped
		}

	case CmdClearHeartbeat:
		wasTriggered := c.heartbeatTriggered
		c.heartbeatTriggered = false
		c.heartbeatRemaining = 0
		c.requested = Stopped
		if wasTriggered {
			return []Event{{Type: EventHeartbeatCleared, Snapshot: c.snapshotLocked()}}
		}

	default:
		// 1..240 (re)arms the countdown; a triggered watchdog must be
		// cleared explicitly before pings are honored again.
		if !c.heartbeatTriggered && b <= MaxHeartbeatSeconds {
			c.heartbeatRemaining = b
		}
	}
	return nil
}

// Poll drains the inbound transport, applies commands, and emits the status
// record when the once-per-second status tick has fired. It is the main
// execution context: it only requests state; Tick applies it.
func (c *Controller) Poll(port BytePort) []Event {
	var events []Event
	for {
		b, ok := port.TryRead()
		if !ok {
			break
		}
		events = append(events, c.HandleCommand(b)...)
	}

	if record, due := c.TakeStatus(); due {
		// All-or-nothing: when the host side is not draining the line, the
		// stale record is discarded whole rather than blocking the poll loop
		// or leaving a partial record to mis-frame the stream. The next
		// status boundary produces a fresh one.
		port.TryWrite(record)
	}
	return events
}

// TakeStatus returns the 8-byte status record if a status tick has fired
// since the last call, consuming the due flag. The snapshot is taken under
// the controller lock so the record is always internally consistent.
func (c *Controller) TakeStatus() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.statusDue {
		return nil, false
	}
	c.statusDue = false
	return c.snapshotLocked().StatusRecord(), true
}

// Snapshot returns a point-in-time copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Requested:          c.requested,
		Current:            c.current,
		Flags:              c.flags,
		MoveTicksRemaining: c.moveTicks,
		HeartbeatRemaining: c.heartbeatRemaining,
		HeartbeatTriggered: c.heartbeatTriggered,
	}
}

// StatusRecord formats the fixed-width serial status reply: a two-digit
// state code and a three-digit heartbeat value, CRLF terminated.
func (s Snapshot) StatusRecord() []byte {
	return []byte(fmt.Sprintf("%02d,%03d\r\n", s.StateCode(), s.HeartbeatByte()))
}
