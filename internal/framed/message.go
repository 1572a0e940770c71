// Package framed implements the fixed-header binary message protocol spoken
// by motion controllers and similar units: a 6-byte header carrying a 16-bit
// message id, two parameter bytes or a payload length, and destination and
// source addresses. Bit 7 of the destination marks a long message whose
// payload follows the header.
package framed

import (
	"encoding/binary"
	"fmt"
)

const (
	headerLen = 6
	longFlag  = 0x80
)

// Well-known bus addresses.
const (
	AddrHost       byte = 0x01
	AddrController byte = 0x50
)

// Message is one decoded protocol message. Short messages carry Param1 and
// Param2; long messages carry Data and leave the params zero.
type Message struct {
	ID     uint16
	Param1 byte
	Param2 byte
	Dest   byte
	Source byte
	Data   []byte
}

// Layout is the registered shape of one message id. Every id has a fixed
// total encoded size: headerLen for short messages, headerLen+DataLen for
// long ones.
type Layout struct {
	Long    bool
	DataLen uint16
}

func (l Layout) TotalLen() int {
	return headerLen + int(l.DataLen)
}

// Registry maps message ids to their fixed layouts. Not safe for concurrent
// mutation; populate before use.
type Registry struct {
	layouts map[uint16]Layout
}

func NewRegistry() *Registry {
	return &Registry{layouts: make(map[uint16]Layout)}
}

func (r *Registry) Register(id uint16, l Layout) {
	r.layouts[id] = l
}

func (r *Registry) Lookup(id uint16) (Layout, bool) {
	l, ok := r.layouts[id]
	return l, ok
}

// encode renders msg per its layout, stamping dest and source.
func encode(msg Message, l Layout, dest, source byte) ([]byte, error) {
	buf := make([]byte, l.TotalLen())
	binary.LittleEndian.PutUint16(buf[0:2], msg.ID)
	if l.Long {
		if len(msg.Data) != int(l.DataLen) {
			return nil, fmt.Errorf("%w: message 0x%04x payload %d bytes, layout wants %d",
				ErrLengthMismatch, msg.ID, len(msg.Data), l.DataLen)
		}
		binary.LittleEndian.PutUint16(buf[2:4], l.DataLen)
		buf[4] = dest | longFlag
		copy(buf[headerLen:], msg.Data)
	} else {
		buf[2] = msg.Param1
		buf[3] = msg.Param2
		buf[4] = dest
	}
	buf[5] = source
	return buf, nil
}
