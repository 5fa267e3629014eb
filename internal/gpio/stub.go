//go:build !linux

package gpio

import "errors"

// RealConn is not available on non-Linux platforms.
type RealConn struct{}

// NewRealConn returns an error on non-Linux platforms.
func NewRealConn(numbers map[Pin]int) (*RealConn, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ConfigureInputPullup is not implemented on non-Linux platforms.
func (c *RealConn) ConfigureInputPullup(pin Pin) error {
	return errors.New("gpio: not supported")
}

// ConfigureOutput is not implemented on non-Linux platforms.
func (c *RealConn) ConfigureOutput(pin Pin) error {
	return errors.New("gpio: not supported")
}

// Read always returns the inactive level on non-Linux platforms.
func (c *RealConn) Read(pin Pin) bool { return true }

// Set is not implemented on non-Linux platforms.
func (c *RealConn) Set(pin Pin, high bool) {}

// Close is not implemented on non-Linux platforms.
func (c *RealConn) Close() error { return nil }
