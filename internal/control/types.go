// Package control contains the shutter control engine: the motor direction
// state machine, movement timeout governor, heartbeat watchdog, button
// debouncing, and the single-byte host protocol. All control state lives in
// one Controller aggregate; the 10 Hz Tick is the sole mutator of the
// physical drive outputs.
package control

import "time"

// TickInterval is the period of the control tick that drives the state
// machine, samples the switches, and advances the countdowns.
const TickInterval = 100 * time.Millisecond

// Movement ceilings, in tick units.
const (
	// autoMoveTicks bounds a host-requested move: 65 seconds of continuous
	// drive before the governor forces a stop.
	autoMoveTicks = 650

	// buttonMoveTicks bounds a button-held move. Re-armed every tick while
	// the button stays pressed, so release stops the motor within 0.2 s.
	buttonMoveTicks = 2
)

// ticksPerStatus is the number of control ticks between status emissions
// (and heartbeat decrements): once per second at 10 Hz.
const ticksPerStatus = 10

// MaxHeartbeatSeconds is the largest accepted heartbeat arm value.
const MaxHeartbeatSeconds = 240

// Protocol command bytes. Values 1..240 arm the heartbeat; 241..254 are
// reserved and ignored.
const (
	CmdClearHeartbeat = 0x00
	CmdOpen           = 0xF1
	CmdClose          = 0xF2
	CmdStop           = 0xFF
)

// heartbeatTriggeredByte is reported in the status record while the
// watchdog has fired.
const heartbeatTriggeredByte = 255

// Direction is the motor drive direction.
type Direction uint8

const (
	Stopped Direction = iota
	Open
	Close
)

func (d Direction) String() string {
	switch d {
	case Open:
		return "OPEN"
	case Close:
		return "CLOSE"
	default:
		return "STOPPED"
	}
}

// Flags are the per-tick sensor and latch states. Limit and Moving flags are
// recomputed every tick from physical state; the button flags are debounce
// latches carried across ticks.
type Flags struct {
	LimitOpen   bool
	LimitClosed bool
	Moving      bool
	ButtonOpen  bool
	ButtonClose bool
}

// Status state codes emitted in the serial record. Moving takes precedence
// over the limit codes.
const (
	StateStopped     = 0
	StateOpening     = 1
	StateClosing     = 2
	StateAtOpenLimit = 3
	StateAtClosedLim = 4
)

// EventType identifies a control state transition worth reporting.
type EventType string

const (
	EventOpening            EventType = "OPENING"
	EventClosing            EventType = "CLOSING"
	EventStopped            EventType = "STOPPED"
	EventHeartbeatTriggered EventType = "HEARTBEAT_TRIGGERED"
	EventHeartbeatCleared   EventType = "HEARTBEAT_CLEARED"
)

// Event is a state transition to be published.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}

// Snapshot is a point-in-time copy of the controller state, safe to use
// after the controller lock is released.
type Snapshot struct {
	Requested          Direction
	Current            Direction
	Flags              Flags
	MoveTicksRemaining uint16
	HeartbeatRemaining uint8
	HeartbeatTriggered bool
}

// StateCode derives the two-digit status code from the snapshot.
func (s Snapshot) StateCode() int {
	switch {
	case s.Flags.Moving:
		return int(s.Current)
	case s.Flags.LimitOpen:
		return StateAtOpenLimit
	case s.Flags.LimitClosed:
		return StateAtClosedLim
	default:
		return StateStopped
	}
}

// HeartbeatByte is the three-digit status value: seconds remaining, or 255
// once the watchdog has triggered.
func (s Snapshot) HeartbeatByte() int {
	if s.HeartbeatTriggered {
		return heartbeatTriggeredByte
	}
	return int(s.HeartbeatRemaining)
}
