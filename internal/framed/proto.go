package framed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/optoforge/labcomm/internal/logging"
	"github.com/optoforge/labcomm/internal/observability"
	"github.com/optoforge/labcomm/internal/transport"
)

// Config carries addressing and timeout defaults for one unit.
type Config struct {
	// Device is the destination stamped on outgoing messages.
	Device byte
	// Host is the source stamped on outgoing messages.
	Host byte
	// DefaultTimeout bounds Ask and WaitMessage when no explicit timeout
	// is given.
	DefaultTimeout time.Duration
	// PayloadTimeout is the supplementary budget for a long message's
	// payload once its header has arrived.
	PayloadTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Device:         AddrController,
		Host:           AddrHost,
		DefaultTimeout: 3 * time.Second,
		PayloadTimeout: 500 * time.Millisecond,
	}
}

// Protocol exchanges registered messages over a Transport it does not own.
// No state survives across calls; callers serialize access per unit.
type Protocol struct {
	tr  transport.Transport
	reg *Registry
	cfg Config
	log zerolog.Logger
}

// New builds a Protocol over tr. A nil reg selects DefaultRegistry.
func New(tr transport.Transport, reg *Registry, cfg Config) *Protocol {
	def := DefaultConfig()
	if reg == nil {
		reg = DefaultRegistry()
	}
	if cfg.Device == 0 {
		cfg.Device = def.Device
	}
	if cfg.Host == 0 {
		cfg.Host = def.Host
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}
	if cfg.PayloadTimeout == 0 {
		cfg.PayloadTimeout = def.PayloadTimeout
	}
	return &Protocol{tr: tr, reg: reg, cfg: cfg, log: logging.New("framed")}
}

// SendMessage encodes msg per its registered layout and writes it out.
func (p *Protocol) SendMessage(msg Message) error {
	l, ok := p.reg.Lookup(msg.ID)
	if !ok {
		return fmt.Errorf("%w: 0x%04x", ErrUnknownMessage, msg.ID)
	}
	buf, err := encode(msg, l, p.cfg.Device, p.cfg.Host)
	if err != nil {
		return err
	}
	if err := p.tr.Write(buf); err != nil {
		return err
	}
	observability.RecordFramedMessage("sent")
	return nil
}

// ReadMessage reads and decodes exactly one message. On a malformed or
// unknown message it discards pending input so the next read starts clean.
func (p *Protocol) ReadMessage(timeout time.Duration) (Message, error) {
	hdr, err := p.tr.Read(headerLen, timeout)
	if err != nil {
		return Message{}, fmt.Errorf("framed: header: %w", err)
	}
	id := binary.LittleEndian.Uint16(hdr[0:2])
	dest := hdr[4]

	var data []byte
	if dest&longFlag != 0 {
		// The header arrival consumed most of the caller's budget; the
		// payload gets its own short one.
		n := int(binary.LittleEndian.Uint16(hdr[2:4]))
		data, err = p.tr.Read(n, p.cfg.PayloadTimeout)
		if err != nil {
			_ = p.tr.DiscardRead()
			observability.RecordFramedDiscard("partial")
			return Message{}, fmt.Errorf("%w: message 0x%04x, %d byte payload: %v",
				ErrPartialMessage, id, n, err)
		}
	}

	l, ok := p.reg.Lookup(id)
	if !ok {
		_ = p.tr.DiscardRead()
		observability.RecordFramedDiscard("unknown")
		return Message{}, fmt.Errorf("%w: 0x%04x", ErrUnknownMessage, id)
	}
	if got := headerLen + len(data); got != l.TotalLen() {
		_ = p.tr.DiscardRead()
		observability.RecordFramedDiscard("length")
		return Message{}, fmt.Errorf("%w: message 0x%04x received %d bytes, registered %d",
			ErrLengthMismatch, id, got, l.TotalLen())
	}

	msg := Message{ID: id, Dest: dest &^ longFlag, Source: hdr[5]}
	if l.Long {
		msg.Data = data
	} else {
		msg.Param1 = hdr[2]
		msg.Param2 = hdr[3]
	}
	observability.RecordFramedMessage("received")
	return msg, nil
}

// WaitMessage reads until a message with the wanted id arrives. Well-formed
// messages with other ids are logged and dropped; malformed input surfaces
// as an error. The deadline yields an error matching transport.ErrTimeout.
func (p *Protocol) WaitMessage(id uint16, timeout time.Duration) (Message, error) {
	if timeout == 0 {
		timeout = p.cfg.DefaultTimeout
	}
	dl := transport.NewDeadline(timeout)
	for {
		msg, err := p.ReadMessage(dl.Remaining())
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				return Message{}, fmt.Errorf("framed: no 0x%04x within %v: %w", id, timeout, transport.ErrTimeout)
			}
			return Message{}, err
		}
		if msg.ID == id {
			return msg, nil
		}
		p.log.Debug().
			Uint16("want", id).
			Uint16("got", msg.ID).
			Msg("discarding unsolicited message")
		observability.RecordFramedDiscard("unsolicited")
		if dl.Expired() {
			return Message{}, fmt.Errorf("framed: no 0x%04x within %v: %w", id, timeout, transport.ErrTimeout)
		}
	}
}

// Ask sends req and waits for the first reply with replyID.
func (p *Protocol) Ask(req Message, replyID uint16) (Message, error) {
	if err := p.SendMessage(req); err != nil {
		return Message{}, err
	}
	return p.WaitMessage(replyID, p.cfg.DefaultTimeout)
}
