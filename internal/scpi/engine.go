// Package scpi implements the line-oriented command/response engine used by
// text instruments: terminated ASCII commands, terminated replies, and
// IEEE-488.2 definite-length binary blocks.
package scpi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/optoforge/labcomm/internal/logging"
	"github.com/optoforge/labcomm/internal/observability"
	"github.com/optoforge/labcomm/internal/transport"
)

var (
	ErrEncoding    = errors.New("scpi: command not representable in ASCII")
	ErrBadResponse = errors.New("scpi: response terminator missing")
	ErrFormat      = errors.New("scpi: malformed binary block")
)

// Config carries the per-instrument line conventions.
type Config struct {
	WriteTerminator string
	ReadTerminator  string
	DefaultTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		WriteTerminator: "\n",
		ReadTerminator:  "\n",
		DefaultTimeout:  3 * time.Second,
	}
}

// Engine runs one transaction at a time over a Transport it does not own.
// It keeps no state between calls and requires external serialization per
// physical instrument.
type Engine struct {
	tr  transport.Transport
	cfg Config
	log zerolog.Logger
}

func NewEngine(tr transport.Transport, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.WriteTerminator == "" {
		cfg.WriteTerminator = def.WriteTerminator
	}
	if cfg.ReadTerminator == "" {
		cfg.ReadTerminator = def.ReadTerminator
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}
	return &Engine{tr: tr, cfg: cfg, log: logging.New("scpi")}
}

type options struct {
	timeout      time.Duration
	hasTimeout   bool
	discard      bool
	noTerminator bool
}

type Option func(*options)

// WithTimeout bounds one call instead of the configured default.
// d <= 0 means unbounded.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
		o.hasTimeout = true
	}
}

// WithDiscard drains any buffered input before the command is sent.
func WithDiscard() Option {
	return func(o *options) { o.discard = true }
}

// WithoutTerminator skips the trailing terminator after a binary block.
func WithoutTerminator() Option {
	return func(o *options) { o.noTerminator = true }
}

func (e *Engine) collect(opts []Option) options {
	o := options{timeout: e.cfg.DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Write sends cmd with the configured terminator appended.
func (e *Engine) Write(cmd string) error {
	if !isASCII(cmd) {
		return fmt.Errorf("%w: %q", ErrEncoding, cmd)
	}
	return e.tr.Write([]byte(cmd + e.cfg.WriteTerminator))
}

// Ask sends cmd and returns the reply with the read terminator stripped.
func (e *Engine) Ask(cmd string, opts ...Option) (string, error) {
	o := e.collect(opts)
	if o.discard {
		if err := e.tr.DiscardRead(); err != nil {
			return "", err
		}
	}
	if err := e.Write(cmd); err != nil {
		observability.RecordSCPIRequest("ask", "error")
		return "", err
	}
	raw, err := e.tr.ReadUntil([]byte(e.cfg.ReadTerminator), o.timeout)
	if err != nil {
		observability.RecordSCPIRequest("ask", "error")
		if errors.Is(err, transport.ErrTimeout) {
			return "", fmt.Errorf("scpi: no response to %q: %w", cmd, err)
		}
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	resp := strings.TrimSuffix(string(raw), e.cfg.ReadTerminator)
	if !isASCII(resp) {
		observability.RecordSCPIRequest("ask", "error")
		return "", fmt.Errorf("%w: non-ASCII response", ErrBadResponse)
	}
	observability.RecordSCPIRequest("ask", "ok")
	e.log.Debug().Str("cmd", cmd).Int("response_len", len(resp)).Msg("ask completed")
	return resp, nil
}

// ReadBinaryData reads one definite-length block: '#', one digit N giving
// the width of the decimal length field, N length digits, then that many raw
// payload bytes, then the read terminator unless WithoutTerminator was given.
func (e *Engine) ReadBinaryData(opts ...Option) ([]byte, error) {
	o := e.collect(opts)
	dl := transport.NewDeadline(o.timeout)

	hdr, err := e.tr.Read(2, dl.Remaining())
	if err != nil {
		observability.RecordSCPIRequest("read_binary", "error")
		return nil, fmt.Errorf("scpi: block header: %w", err)
	}
	if hdr[0] != '#' {
		observability.RecordSCPIRequest("read_binary", "error")
		return nil, fmt.Errorf("%w: expected '#', got %q", ErrFormat, hdr[0])
	}
	if hdr[1] < '1' || hdr[1] > '9' {
		observability.RecordSCPIRequest("read_binary", "error")
		return nil, fmt.Errorf("%w: invalid digit count %q", ErrFormat, hdr[1])
	}

	digits, err := e.tr.Read(int(hdr[1]-'0'), dl.Remaining())
	if err != nil {
		observability.RecordSCPIRequest("read_binary", "error")
		return nil, fmt.Errorf("scpi: block length field: %w", err)
	}
	length := 0
	for _, d := range digits {
		if d < '0' || d > '9' {
			observability.RecordSCPIRequest("read_binary", "error")
			return nil, fmt.Errorf("%w: non-digit in length field %q", ErrFormat, digits)
		}
		length = length*10 + int(d-'0')
	}

	payload, err := e.tr.Read(length, dl.Remaining())
	if err != nil {
		observability.RecordSCPIRequest("read_binary", "error")
		return nil, fmt.Errorf("scpi: block payload: %w", err)
	}

	if !o.noTerminator {
		term, err := e.tr.Read(len(e.cfg.ReadTerminator), dl.Remaining())
		if err != nil {
			observability.RecordSCPIRequest("read_binary", "error")
			return nil, fmt.Errorf("scpi: block terminator: %w", err)
		}
		if string(term) != e.cfg.ReadTerminator {
			observability.RecordSCPIRequest("read_binary", "error")
			return nil, fmt.Errorf("%w: bad block terminator %q", ErrFormat, term)
		}
	}
	observability.RecordSCPIRequest("read_binary", "ok")
	return payload, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
