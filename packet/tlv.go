package packet

import "encoding/binary"

// MessageType identifies a TLV section within a frame payload. The values
// match the TI mmWave SDK output message types. Payload sections are not
// interpreted by this module; the constants are provided for consumers that
// walk the TLV list themselves.
type MessageType uint32

const (
	MsgDetectedPoints MessageType = iota + 1
	MsgRangeProfile
	MsgNoiseProfile
	MsgAzimuthStaticHeatMap
	MsgRangeDopplerHeatMap
	MsgStats
	MsgDetectedPointsSideInfo
	MsgAzimuthElevationStaticHeatMap
	MsgTemperatureStats
)

// TLVHeaderLen is the length of an encoded TLV section header in bytes.
const TLVHeaderLen = 8

// TLVHeader prefixes each type-length-value section of a frame payload:
// a message type followed by the section length in bytes, both
// little-endian uint32.
type TLVHeader struct {
	Type   MessageType
	Length uint32
}

// DecodeTLVHeader parses a TLV section header from the first TLVHeaderLen
// bytes of b. It reports false if b is too short.
func DecodeTLVHeader(b []byte) (TLVHeader, bool) {
	if len(b) < TLVHeaderLen {
		return TLVHeader{}, false
	}
	return TLVHeader{
		Type:   MessageType(binary.LittleEndian.Uint32(b[0:4])),
		Length: binary.LittleEndian.Uint32(b[4:8]),
	}, true
}
