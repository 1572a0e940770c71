package framed

import (
	"encoding/binary"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/optoforge/labcomm/internal/testutil/faketransport"
	"github.com/optoforge/labcomm/internal/transport"
)

func newTestProtocol() (*Protocol, *faketransport.Transport) {
	ft := faketransport.New()
	return New(ft, nil, Config{DefaultTimeout: 50 * time.Millisecond, PayloadTimeout: 10 * time.Millisecond}), ft
}

// wireShort renders an incoming header-only message.
func wireShort(id uint16, p1, p2, dest, source byte) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:2], id)
	buf[2], buf[3], buf[4], buf[5] = p1, p2, dest, source
	return buf
}

// wireLong renders an incoming message with a declared payload length.
func wireLong(id uint16, declared uint16, dest, source byte, data []byte) []byte {
	buf := make([]byte, 6, 6+len(data))
	binary.LittleEndian.PutUint16(buf[0:2], id)
	binary.LittleEndian.PutUint16(buf[2:4], declared)
	buf[4] = dest | 0x80
	buf[5] = source
	return append(buf, data...)
}

func TestReadMessageShort(t *testing.T) {
	p, ft := newTestProtocol()
	ft.Queue(wireShort(MsgMotMoveHomed, 0x01, 0x00, AddrHost, AddrController))

	msg, err := p.ReadMessage(time.Second)
	assert.NilError(t, err)
	assert.Equal(t, msg.ID, MsgMotMoveHomed)
	assert.Equal(t, msg.Param1, byte(0x01))
	assert.Equal(t, msg.Param2, byte(0x00))
	assert.Equal(t, msg.Dest, AddrHost)
	assert.Equal(t, msg.Source, AddrController)
	assert.Assert(t, msg.Data == nil)
}

func TestReadMessageLong(t *testing.T) {
	p, ft := newTestProtocol()
	data := []byte{0x01, 0x00, 0xE8, 0x03, 0x00, 0x00}
	ft.Queue(wireLong(MsgMotGetPosCounter, 6, AddrHost, AddrController, data))

	msg, err := p.ReadMessage(time.Second)
	assert.NilError(t, err)
	assert.Equal(t, msg.ID, MsgMotGetPosCounter)
	assert.Equal(t, msg.Dest, AddrHost)
	assert.DeepEqual(t, msg.Data, data)
}

func TestReadMessageUnknownID(t *testing.T) {
	p, ft := newTestProtocol()
	ft.Queue(wireShort(0x7777, 0, 0, AddrHost, AddrController))

	_, err := p.ReadMessage(time.Second)
	assert.ErrorIs(t, err, ErrUnknownMessage)
	assert.Equal(t, ft.Discards(), 1)
}

func TestReadMessageLengthMismatch(t *testing.T) {
	t.Run("registered long arrives short", func(t *testing.T) {
		p, ft := newTestProtocol()
		ft.Queue(wireShort(MsgMotGetPosCounter, 0, 0, AddrHost, AddrController))

		_, err := p.ReadMessage(time.Second)
		assert.ErrorIs(t, err, ErrLengthMismatch)
		assert.Equal(t, ft.Discards(), 1)
	})

	t.Run("one byte short", func(t *testing.T) {
		p, ft := newTestProtocol()
		ft.Queue(wireLong(MsgMotGetPosCounter, 5, AddrHost, AddrController, []byte{1, 2, 3, 4, 5}))

		_, err := p.ReadMessage(time.Second)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("one byte long", func(t *testing.T) {
		p, ft := newTestProtocol()
		ft.Queue(wireLong(MsgMotGetPosCounter, 7, AddrHost, AddrController, []byte{1, 2, 3, 4, 5, 6, 7}))

		_, err := p.ReadMessage(time.Second)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestReadMessagePartialPayload(t *testing.T) {
	p, ft := newTestProtocol()
	ft.Queue(wireLong(MsgMotGetPosCounter, 6, AddrHost, AddrController, []byte{1, 2, 3}))

	_, err := p.ReadMessage(time.Second)
	assert.ErrorIs(t, err, ErrPartialMessage)
	assert.Equal(t, ft.Discards(), 1)
}

func TestSendMessage(t *testing.T) {
	p, ft := newTestProtocol()
	data := []byte{0x01, 0x00, 0x10, 0x27, 0x00, 0x00}
	err := p.SendMessage(Message{ID: MsgMotMoveAbsolute, Data: data})
	assert.NilError(t, err)

	want := append([]byte{0x53, 0x04, 0x06, 0x00, AddrController | 0x80, AddrHost}, data...)
	assert.DeepEqual(t, ft.Writes(), want)
}

func TestSendMessageUnknownID(t *testing.T) {
	p, _ := newTestProtocol()
	err := p.SendMessage(Message{ID: 0x7777})
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestWaitMessageSkipsUnsolicited(t *testing.T) {
	p, ft := newTestProtocol()
	ft.Queue(wireShort(MsgMotMoveHomed, 0, 0, AddrHost, AddrController))
	ft.Queue(wireLong(MsgMotGetStatusBits, 6, AddrHost, AddrController, []byte{1, 0, 0, 0, 0, 0}))
	ft.Queue(wireLong(MsgMotGetPosCounter, 6, AddrHost, AddrController, []byte{1, 0, 9, 9, 9, 9}))

	msg, err := p.WaitMessage(MsgMotGetPosCounter, time.Second)
	assert.NilError(t, err)
	assert.Equal(t, msg.ID, MsgMotGetPosCounter)
}

func TestWaitMessageTimesOut(t *testing.T) {
	p, ft := newTestProtocol()
	ft.Queue(wireShort(MsgMotMoveHomed, 0, 0, AddrHost, AddrController))

	_, err := p.WaitMessage(MsgMotGetPosCounter, 50*time.Millisecond)
	assert.ErrorIs(t, err, transport.ErrTimeout)
}

func TestAsk(t *testing.T) {
	p, ft := newTestProtocol()
	ft.Queue(wireLong(MsgMotGetPosCounter, 6, AddrHost, AddrController, []byte{1, 0, 0xE8, 0x03, 0, 0}))

	msg, err := p.Ask(Message{ID: MsgMotReqPosCounter, Param1: 0x01}, MsgMotGetPosCounter)
	assert.NilError(t, err)
	assert.Equal(t, msg.ID, MsgMotGetPosCounter)
	assert.DeepEqual(t, ft.Writes(), wireShort(MsgMotReqPosCounter, 0x01, 0x00, AddrController, AddrHost))
}
