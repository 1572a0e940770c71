package framed

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEncodeShortMessage(t *testing.T) {
	l, ok := DefaultRegistry().Lookup(MsgModIdentify)
	assert.Assert(t, ok)

	buf, err := encode(Message{ID: MsgModIdentify, Param1: 0x01}, l, AddrController, AddrHost)
	assert.NilError(t, err)
	assert.DeepEqual(t, buf, []byte{0x23, 0x02, 0x01, 0x00, 0x50, 0x01})
}

func TestEncodeLongMessageSetsDestFlag(t *testing.T) {
	reg := DefaultRegistry()
	l, ok := reg.Lookup(MsgMotMoveAbsolute)
	assert.Assert(t, ok)

	data := []byte{0x01, 0x00, 0xE8, 0x03, 0x00, 0x00}
	buf, err := encode(Message{ID: MsgMotMoveAbsolute, Data: data}, l, AddrController, AddrHost)
	assert.NilError(t, err)
	assert.Equal(t, len(buf), l.TotalLen())
	assert.DeepEqual(t, buf[:6], []byte{0x53, 0x04, 0x06, 0x00, 0xD0, 0x01})
	assert.DeepEqual(t, buf[6:], data)
}

func TestEncodeLongMessageWrongPayloadLen(t *testing.T) {
	l := Layout{Long: true, DataLen: 6}
	_, err := encode(Message{ID: MsgMotMoveAbsolute, Data: []byte{1, 2, 3}}, l, AddrController, AddrHost)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(0x0100, Layout{Long: true, DataLen: 8})

	l, ok := reg.Lookup(0x0100)
	assert.Assert(t, ok)
	assert.Equal(t, l.TotalLen(), 14)

	_, ok = reg.Lookup(0x0101)
	assert.Assert(t, !ok)
}
