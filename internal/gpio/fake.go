package gpio

// FakeConn is a test double holding settable input levels and recording
// output levels and configuration calls.
type FakeConn struct {
	// Inputs holds the level returned by Read for each input pin.
	// Missing pins read true (the inactive pull-up level).
	Inputs map[Pin]bool

	// Outputs holds the last level driven by Set for each output pin.
	Outputs map[Pin]bool

	// ConfiguredInputs and ConfiguredOutputs record Configure calls in order.
	ConfiguredInputs  []Pin
	ConfiguredOutputs []Pin

	// ConfigureError, if set, is returned by both Configure methods.
	ConfigureError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeConn creates a FakeConn with all inputs at the inactive level.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		Inputs:  make(map[Pin]bool),
		Outputs: make(map[Pin]bool),
	}
}

// ConfigureInputPullup records the request.
func (f *FakeConn) ConfigureInputPullup(pin Pin) error {
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.ConfiguredInputs = append(f.ConfiguredInputs, pin)
	return nil
}

// ConfigureOutput records the request.
func (f *FakeConn) ConfigureOutput(pin Pin) error {
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.ConfiguredOutputs = append(f.ConfiguredOutputs, pin)
	return nil
}

// Read returns the scripted level, defaulting to inactive (true).
func (f *FakeConn) Read(pin Pin) bool {
	level, ok := f.Inputs[pin]
	if !ok {
		return true
	}
	return level
}

// Set records the driven level.
func (f *FakeConn) Set(pin Pin, high bool) {
	f.Outputs[pin] = high
}

// Close marks the connection as closed.
func (f *FakeConn) Close() error {
	f.Closed = true
	return nil
}

// Press asserts an active-low input (button or limit switch).
func (f *FakeConn) Press(pin Pin) {
	f.Inputs[pin] = false
}

// Release returns an active-low input to its inactive level.
func (f *FakeConn) Release(pin Pin) {
	f.Inputs[pin] = true
}

// Output returns the last driven level for an output pin.
func (f *FakeConn) Output(pin Pin) bool {
	return f.Outputs[pin]
}
