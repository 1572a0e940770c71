package transport

import (
	"bytes"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialPort adapts an open go.bug.st/serial port to Transport. Opening the
// port (device path, baud rate, framing bits) is the caller's concern; the
// adapter only moves bytes and never closes the port.
type SerialPort struct {
	p serial.Port
}

func NewSerialPort(p serial.Port) *SerialPort {
	return &SerialPort{p: p}
}

func (t *SerialPort) Write(p []byte) error {
	for len(p) > 0 {
		n, err := t.p.Write(p)
		if err != nil {
			return fmt.Errorf("transport: serial write: %w", err)
		}
		p = p[n:]
	}
	return nil
}

func (t *SerialPort) Read(n int, timeout time.Duration) ([]byte, error) {
	dl := NewDeadline(timeout)
	out := make([]byte, 0, n)
	tmp := make([]byte, n)
	for len(out) < n {
		m, err := t.readSlice(tmp[:n-len(out)], dl)
		if err != nil {
			return nil, err
		}
		out = append(out, tmp[:m]...)
	}
	return out, nil
}

func (t *SerialPort) ReadUntil(delim []byte, timeout time.Duration) ([]byte, error) {
	dl := NewDeadline(timeout)
	var out []byte
	tmp := make([]byte, 1)
	for {
		if _, err := t.readSlice(tmp, dl); err != nil {
			return nil, err
		}
		out = append(out, tmp[0])
		if bytes.HasSuffix(out, delim) {
			return out, nil
		}
	}
}

func (t *SerialPort) ReadUntilTimeout(n int, timeout time.Duration) ([]byte, error) {
	dl := NewDeadline(timeout)
	out := make([]byte, 0, n)
	tmp := make([]byte, n)
	for len(out) < n {
		if err := t.setTimeout(dl); err != nil {
			return out, err
		}
		m, err := t.p.Read(tmp[:n-len(out)])
		if err != nil {
			return out, fmt.Errorf("transport: serial read: %w", err)
		}
		if m == 0 {
			// Read timeout expired with nothing pending.
			return out, nil
		}
		out = append(out, tmp[:m]...)
	}
	return out, nil
}

func (t *SerialPort) DiscardRead() error {
	return t.p.ResetInputBuffer()
}

// readSlice fills at least one byte of p under dl, mapping an expired read
// timeout to ErrTimeout.
func (t *SerialPort) readSlice(p []byte, dl Deadline) (int, error) {
	if err := t.setTimeout(dl); err != nil {
		return 0, err
	}
	m, err := t.p.Read(p)
	if err != nil {
		return 0, fmt.Errorf("transport: serial read: %w", err)
	}
	if m == 0 {
		return 0, fmt.Errorf("%w: serial read", ErrTimeout)
	}
	return m, nil
}

func (t *SerialPort) setTimeout(dl Deadline) error {
	r := dl.Remaining()
	if r == 0 {
		return t.p.SetReadTimeout(serial.NoTimeout)
	}
	return t.p.SetReadTimeout(r)
}
