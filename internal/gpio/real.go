//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// RealConn drives actual hardware using the Linux GPIO character device.
type RealConn struct {
	chip    *gpiocdev.Chip
	numbers map[Pin]int
	lines   map[Pin]*gpiocdev.Line
}

// NewRealConn opens the GPIO chip and prepares the role-to-BCM mapping.
// Pins are requested lazily by the Configure calls so that outputs can be
// claimed (and forced low) before any input.
func NewRealConn(numbers map[Pin]int) (*RealConn, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealConn{
		chip:    chip,
		numbers: numbers,
		lines:   make(map[Pin]*gpiocdev.Line),
	}, nil
}

// ConfigureInputPullup requests the pin as a pull-up biased input.
func (c *RealConn) ConfigureInputPullup(pin Pin) error {
	line, err := c.chip.RequestLine(c.numbers[pin], gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return fmt.Errorf("request %s (pin %d): %w", pin, c.numbers[pin], err)
	}
	c.lines[pin] = line
	return nil
}

// ConfigureOutput requests the pin as an output driven low.
func (c *RealConn) ConfigureOutput(pin Pin) error {
	line, err := c.chip.RequestLine(c.numbers[pin], gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request %s (pin %d): %w", pin, c.numbers[pin], err)
	}
	c.lines[pin] = line
	return nil
}

// Read returns the current level of an input pin.
// On a read failure it returns true (the inactive pull-up level) so that a
// transient kernel error never registers as a pressed button or hit limit.
func (c *RealConn) Read(pin Pin) bool {
	line, ok := c.lines[pin]
	if !ok {
		return true
	}
	v, err := line.Value()
	if err != nil {
		log.Printf("gpio: read %s: %v", pin, err)
		return true
	}
	return v != 0
}

// Set drives an output pin high or low.
func (c *RealConn) Set(pin Pin, high bool) {
	line, ok := c.lines[pin]
	if !ok {
		return
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		log.Printf("gpio: set %s: %v", pin, err)
	}
}

// Close drives the outputs low and releases all lines.
// The relays must never be left energized across a restart.
func (c *RealConn) Close() error {
	var errs []error
	for pin, line := range c.lines {
		if pin == DriveEnableA || pin == DriveEnableB {
			if err := line.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("lower %s: %w", pin, err))
			}
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", pin, err))
		}
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
