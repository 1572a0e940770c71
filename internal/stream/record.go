// Package stream decodes the byte-stuffed measurement stream some
// instruments emit continuously alongside their command channel. A dedicated
// worker unescapes the stream, recovers from corruption by resyncing on the
// next start marker, and queues fixed-size records for the consumer.
package stream

import (
	"encoding/binary"
	"math"
)

// RecordLen is the decoded payload size of one frame.
const RecordLen = 20

// Record is one decoded measurement. Little-endian on the wire:
// wavelength f64, power f32, status u32, index u32.
type Record struct {
	Wavelength float64
	Power      float32
	Status     uint32
	Index      uint32
}

func decodeRecord(p []byte) Record {
	return Record{
		Wavelength: math.Float64frombits(binary.LittleEndian.Uint64(p[0:8])),
		Power:      math.Float32frombits(binary.LittleEndian.Uint32(p[8:12])),
		Status:     binary.LittleEndian.Uint32(p[12:16]),
		Index:      binary.LittleEndian.Uint32(p[16:20]),
	}
}
