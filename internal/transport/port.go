// Package transport provides the byte transport between the serial device
// events and the command poll loop: two fixed-capacity ring buffers with an
// event-style producer/consumer API mirroring a UART's receive-complete and
// transmit-ready interrupts.
package transport

import "sync"

// bufSize must be a power of two: the uint8 indices wrap implicitly on
// overflow, so no masking is needed.
const bufSize = 256

// ring is a fixed-capacity circular byte queue indexed by free-running
// uint8 counters.
type ring struct {
	buf   [bufSize]byte
	read  uint8
	write uint8
}

func (r *ring) empty() bool { return r.read == r.write }

// full reports whether a write would collide with unread data.
// One slot is kept free so that read==write always means empty.
func (r *ring) full() bool { return r.write == r.read-1 }

// Port is the bidirectional byte transport.
//
// The inbound ring is filled by OnReceive (one byte per receive event) and
// drained by the poll loop. The outbound ring is filled by Write and drained
// one byte per transmit-ready event. All methods are safe for concurrent use.
type Port struct {
	mu      sync.Mutex
	rxReady *sync.Cond // inbound data available
	txReady *sync.Cond // outbound data available
	txSpace *sync.Cond // outbound space available

	in        ring
	out       ring
	txEnabled bool
	closed    bool
}

// NewPort creates an empty Port.
func NewPort() *Port {
	p := &Port{}
	p.rxReady = sync.NewCond(&p.mu)
	p.txReady = sync.NewCond(&p.mu)
	p.txSpace = sync.NewCond(&p.mu)
	return p
}

// OnReceive appends one inbound byte. It is the receive-complete event
// handler and never blocks: if the poll loop has fallen more than a full
// buffer behind, the oldest unread byte is silently overwritten. This
// matches the original hardware behavior and is covered by tests rather
// than guarded against.
func (p *Port) OnReceive(b byte) {
	p.mu.Lock()
	p.in.buf[p.in.write] = b
	p.in.write++
	p.mu.Unlock()
	p.rxReady.Signal()
}

// CanRead reports whether an inbound byte is available without blocking.
func (p *Port) CanRead() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.in.empty()
}

// TryRead pops one inbound byte without blocking.
func (p *Port) TryRead() (byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.in.empty() {
		return 0, false
	}
	b := p.in.buf[p.in.read]
	p.in.read++
	return b, true
}

// Read pops one inbound byte, blocking until one arrives.
// Returns false if the port is closed before a byte is available.
func (p *Port) Read() (byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.in.empty() && !p.closed {
		p.rxReady.Wait()
	}
	if p.in.empty() {
		return 0, false
	}
	b := p.in.buf[p.in.read]
	p.in.read++
	return b, true
}

// Write appends one outbound byte, blocking while the buffer is full so
// that no byte is ever dropped on the write side. The transmit path is
// (re)enabled on every append.
func (p *Port) Write(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.out.full() && !p.closed {
		p.txSpace.Wait()
	}
	if p.closed {
		return
	}
	p.out.buf[p.out.write] = b
	p.out.write++
	p.txEnabled = true
	p.txReady.Signal()
}

// TryWrite appends a whole record without blocking: either every byte is
// accepted or, when the buffer lacks the space or the port is closed, none
// are. Callers emitting periodic data use this so a host that stops draining
// the line can never stall them; the record is simply discarded and a fresh
// one is produced on the next cycle.
func (p *Port) TryWrite(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	free := bufSize - 1 - int(p.out.write-p.out.read)
	if free < len(data) {
		return false
	}
	for _, b := range data {
		p.out.buf[p.out.write] = b
		p.out.write++
	}
	p.txEnabled = true
	p.txReady.Signal()
	return true
}

// TransmitReady is the transmit-ready event handler: it consumes at most one
// outbound byte and disables itself when the buffer empties. The second
// return value is false when transmission is disabled (nothing to send).
func (p *Port) TransmitReady() (byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.txEnabled || p.out.empty() {
		p.txEnabled = false
		return 0, false
	}
	b := p.out.buf[p.out.read]
	p.out.read++
	if p.out.empty() {
		p.txEnabled = false
	}
	p.txSpace.Signal()
	return b, true
}

// AwaitTransmit blocks until an outbound byte is available and pops it.
// Returns false when the port is closed and drained. It is the blocking
// form of TransmitReady used by the serial pump goroutine.
func (p *Port) AwaitTransmit() (byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.out.empty() && !p.closed {
		p.txReady.Wait()
	}
	if p.out.empty() {
		return 0, false
	}
	b := p.out.buf[p.out.read]
	p.out.read++
	if p.out.empty() {
		p.txEnabled = false
	}
	p.txSpace.Signal()
	return b, true
}

// TransmitPending reports whether outbound bytes are waiting.
func (p *Port) TransmitPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.out.empty()
}

// Close wakes all blocked callers. Blocked writes are abandoned; blocked
// reads drain any remaining buffered bytes first.
func (p *Port) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.rxReady.Broadcast()
	p.txReady.Broadcast()
	p.txSpace.Broadcast()
}
