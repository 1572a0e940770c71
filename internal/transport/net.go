package transport

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Conn adapts a net.Conn to Transport using read deadlines. Most bench
// instruments expose a raw TCP socket (port 23 or 5025) that behaves like
// their serial line. Conn never closes the underlying connection.
type Conn struct {
	c  net.Conn
	br *bufio.Reader
}

func NewConn(c net.Conn) *Conn {
	return &Conn{c: c, br: bufio.NewReader(c)}
}

func (t *Conn) Write(p []byte) error {
	if _, err := t.c.Write(p); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (t *Conn) Read(n int, timeout time.Duration) ([]byte, error) {
	if err := t.setDeadline(timeout); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.br, buf); err != nil {
		return nil, mapReadErr(err)
	}
	return buf, nil
}

func (t *Conn) ReadUntil(delim []byte, timeout time.Duration) ([]byte, error) {
	if err := t.setDeadline(timeout); err != nil {
		return nil, err
	}
	var out []byte
	for {
		b, err := t.br.ReadByte()
		if err != nil {
			return nil, mapReadErr(err)
		}
		out = append(out, b)
		if bytes.HasSuffix(out, delim) {
			return out, nil
		}
	}
}

func (t *Conn) ReadUntilTimeout(n int, timeout time.Duration) ([]byte, error) {
	if err := t.setDeadline(timeout); err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		b, err := t.br.ReadByte()
		if err != nil {
			mapped := mapReadErr(err)
			if errors.Is(mapped, ErrTimeout) {
				return out, nil
			}
			return out, mapped
		}
		out = append(out, b)
	}
	return out, nil
}

func (t *Conn) DiscardRead() error {
	// Drop what bufio holds, then drain the kernel buffer with a near-zero
	// deadline so the call returns as soon as no more input is pending.
	if _, err := t.br.Discard(t.br.Buffered()); err != nil {
		return err
	}
	if err := t.c.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return err
	}
	scratch := make([]byte, 512)
	for {
		n, err := t.c.Read(scratch)
		if err != nil || n == 0 {
			return nil
		}
	}
}

func (t *Conn) setDeadline(timeout time.Duration) error {
	if timeout <= 0 {
		return t.c.SetReadDeadline(time.Time{})
	}
	return t.c.SetReadDeadline(time.Now().Add(timeout))
}

func mapReadErr(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
