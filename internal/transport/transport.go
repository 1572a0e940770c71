// Package transport defines the byte-level boundary the protocol engines
// are built on. A Transport wraps one already-open serial port or network
// connection; callers retain ownership and are responsible for closing it.
package transport

import (
	"errors"
	"time"
)

var (
	ErrTimeout = errors.New("transport: read deadline exceeded")
	ErrClosed  = errors.New("transport: connection closed")
)

// Transport is the raw byte interface under the protocol engines. A timeout
// of zero or less means block indefinitely. Implementations are not required
// to be safe for concurrent use; the engines serialize access per instrument.
type Transport interface {
	// Write sends the whole of p.
	Write(p []byte) error

	// Read returns exactly n bytes, or an error matching ErrTimeout when the
	// deadline passes first.
	Read(n int, timeout time.Duration) ([]byte, error)

	// ReadUntil returns bytes up to and including delim, or an error matching
	// ErrTimeout when the deadline passes first.
	ReadUntil(delim []byte, timeout time.Duration) ([]byte, error)

	// ReadUntilTimeout returns up to n bytes, giving back whatever arrived
	// once the deadline passes. A short or empty result is not an error.
	ReadUntilTimeout(n int, timeout time.Duration) ([]byte, error)

	// DiscardRead drops any input already received but not yet read.
	DiscardRead() error
}
