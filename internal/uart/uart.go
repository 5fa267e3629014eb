// Package uart connects a transport.Port to a serial device. The real
// device is a go.bug.st/serial port; the pumps only see an io.Reader and
// io.Writer so tests can substitute in-memory pipes.
package uart

import (
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/sweeney/shutter-controller/internal/transport"
)

// Open opens the serial device in 8N1 at the given baud rate.
func Open(device string, baud int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return port, nil
}

// ReadPump copies bytes from the device into the port's inbound ring, one
// receive event per byte. It returns nil on EOF and the read error otherwise.
func ReadPump(r io.Reader, port *transport.Port) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			port.OnReceive(buf[i])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

// WritePump drains the port's outbound ring to the device. It returns nil
// once the port is closed and drained, and the write error otherwise.
func WritePump(port *transport.Port, w io.Writer) error {
	for {
		b, ok := port.AwaitTransmit()
		if !ok {
			return nil
		}
		if _, err := w.Write([]byte{b}); err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
	}
}
