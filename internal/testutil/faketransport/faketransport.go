// Package faketransport provides a scripted in-memory Transport for protocol
// engine tests.
package faketransport

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/optoforge/labcomm/internal/transport"
)

// Transport serves reads from a queue of scripted input and records writes.
// Deadlines are logical: a read that cannot be satisfied from queued input
// fails immediately with transport.ErrTimeout instead of sleeping out the
// caller's budget. ReadUntilTimeout polls briefly so a background decoder
// can pick up input queued after it started.
type Transport struct {
	mu       sync.Mutex
	pending  bytes.Buffer
	writes   bytes.Buffer
	readErr  error
	discards int
}

func New() *Transport {
	return &Transport{}
}

// Queue appends scripted input for subsequent reads.
func (t *Transport) Queue(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending.Write(p)
}

func (t *Transport) QueueString(s string) {
	t.Queue([]byte(s))
}

// FailReads makes every subsequent read fail with err.
func (t *Transport) FailReads(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
}

// Writes returns everything written so far.
func (t *Transport) Writes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.writes.Bytes()...)
}

// Discards returns how many times DiscardRead was called.
func (t *Transport) Discards() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discards
}

func (t *Transport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes.Write(p)
	return nil
}

func (t *Transport) Read(n int, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return nil, t.readErr
	}
	if t.pending.Len() < n {
		return nil, fmt.Errorf("%w: scripted input exhausted", transport.ErrTimeout)
	}
	buf := make([]byte, n)
	_, _ = t.pending.Read(buf)
	return buf, nil
}

func (t *Transport) ReadUntil(delim []byte, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return nil, t.readErr
	}
	idx := bytes.Index(t.pending.Bytes(), delim)
	if idx < 0 {
		return nil, fmt.Errorf("%w: scripted input exhausted", transport.ErrTimeout)
	}
	buf := make([]byte, idx+len(delim))
	_, _ = t.pending.Read(buf)
	return buf, nil
}

func (t *Transport) ReadUntilTimeout(n int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		t.mu.Lock()
		if t.readErr != nil {
			err := t.readErr
			t.mu.Unlock()
			return nil, err
		}
		if t.pending.Len() > 0 {
			m := min(n, t.pending.Len())
			buf := make([]byte, m)
			_, _ = t.pending.Read(buf)
			t.mu.Unlock()
			return buf, nil
		}
		t.mu.Unlock()
		if timeout <= 0 || !time.Now().Before(deadline) {
			return nil, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (t *Transport) DiscardRead() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending.Reset()
	t.discards++
	return nil
}
