package framed

// Stock message set for the motion controller family this package was
// written against. Drivers for other units register their own ids on a
// fresh Registry.
const (
	MsgModIdentify      uint16 = 0x0223
	MsgHwReqInfo        uint16 = 0x0005
	MsgHwGetInfo        uint16 = 0x0006
	MsgMotMoveHome      uint16 = 0x0443
	MsgMotMoveHomed     uint16 = 0x0444
	MsgMotMoveAbsolute  uint16 = 0x0453
	MsgMotMoveCompleted uint16 = 0x0464
	MsgMotMoveStop      uint16 = 0x0465
	MsgMotMoveStopped   uint16 = 0x0466
	MsgMotReqPosCounter uint16 = 0x0411
	MsgMotGetPosCounter uint16 = 0x0412
	MsgMotReqStatusBits uint16 = 0x0429
	MsgMotGetStatusBits uint16 = 0x042A
)

// DefaultRegistry returns the stock layouts: header-only requests plus the
// long replies that carry hardware info, positions and status words.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(MsgModIdentify, Layout{})
	r.Register(MsgHwReqInfo, Layout{})
	r.Register(MsgHwGetInfo, Layout{Long: true, DataLen: 84})
	r.Register(MsgMotMoveHome, Layout{})
	r.Register(MsgMotMoveHomed, Layout{})
	r.Register(MsgMotMoveAbsolute, Layout{Long: true, DataLen: 6})
	r.Register(MsgMotMoveCompleted, Layout{Long: true, DataLen: 14})
	r.Register(MsgMotMoveStop, Layout{})
	r.Register(MsgMotMoveStopped, Layout{Long: true, DataLen: 14})
	r.Register(MsgMotReqPosCounter, Layout{})
	r.Register(MsgMotGetPosCounter, Layout{Long: true, DataLen: 6})
	r.Register(MsgMotReqStatusBits, Layout{})
	r.Register(MsgMotGetStatusBits, Layout{Long: true, DataLen: 6})
	return r
}
