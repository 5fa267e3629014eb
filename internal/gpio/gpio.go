// Package gpio provides the pin capability interface for the shutter hardware.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Pin identifies one of the controller's digital lines by role.
type Pin int

const (
	// Inputs (active-low, pull-up biased).
	LimitOpen Pin = iota
	LimitClosed
	ButtonOpen
	ButtonClose

	// Outputs driving the motor relays.
	DriveEnableA
	DriveEnableB
	DriveSelectA
	DriveSelectB

	numPins
)

var pinNames = [numPins]string{
	"limit-open", "limit-closed", "button-open", "button-close",
	"drive-enable-a", "drive-enable-b", "drive-select-a", "drive-select-b",
}

func (p Pin) String() string {
	if p < 0 || p >= numPins {
		return "unknown"
	}
	return pinNames[p]
}

// Conn reads and drives the shutter's digital lines.
//
// Read and Set are single-sample operations with no debouncing below them;
// the control tick is responsible for filtering. Inputs read true when
// inactive (pull-up) and false when the switch or button is asserted.
type Conn interface {
	// ConfigureInputPullup requests the pin as a pull-up biased input.
	ConfigureInputPullup(pin Pin) error

	// ConfigureOutput requests the pin as an output, initially low.
	ConfigureOutput(pin Pin) error

	// Read returns the current level of an input pin.
	Read(pin Pin) bool

	// Set drives an output pin high or low.
	Set(pin Pin, high bool)

	// Close releases GPIO resources, de-energizing the drive outputs.
	Close() error
}

// DefaultPinNumbers maps pin roles to BCM numbers for the Pi relay board.
var DefaultPinNumbers = map[Pin]int{
	LimitOpen:    17,
	LimitClosed:  27,
	ButtonOpen:   23,
	ButtonClose:  24,
	DriveEnableA: 5,
	DriveEnableB: 6,
	DriveSelectA: 12,
	DriveSelectB: 13,
}
