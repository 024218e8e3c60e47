package mrt

import "encoding/binary"

// buildHeader constructs a 12-byte MRT common header.
func buildHeader(ts uint32, recType, subtype uint16, length uint32) []byte {
	h := make([]byte, headerLen)
	binary.BigEndian.PutUint32(h[0:4], ts)
	binary.BigEndian.PutUint16(h[4:6], recType)
	binary.BigEndian.PutUint16(h[6:8], subtype)
	binary.BigEndian.PutUint32(h[8:12], length)
	return h
}

// buildRecord concatenates a header (with length set from payload) and
// its payload.
func buildRecord(ts uint32, recType, subtype uint16, payload []byte) []byte {
	return append(buildHeader(ts, recType, subtype, uint32(len(payload))), payload...)
}

// buildAttr constructs a single path attribute TLV.
func buildAttr(flags, typeCode byte, data []byte) []byte {
	if len(data) > 255 {
		out := make([]byte, 4+len(data))
		out[0] = flags | attrExtendedLengthFlag
		out[1] = typeCode
		binary.BigEndian.PutUint16(out[2:4], uint16(len(data)))
		copy(out[4:], data)
		return out
	}
	out := make([]byte, 3+len(data))
	out[0] = flags
	out[1] = typeCode
	out[2] = byte(len(data))
	copy(out[3:], data)
	return out
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
