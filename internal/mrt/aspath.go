package mrt

import "encoding/binary"

// InflateASPath turns an AS_PATH attribute payload encoded with 2-byte
// ASNs into the 4-byte form by zero-extension (§4.3.1). The segment
// format is a sequence of {seg_type:u8, seg_len:u8, asn_count*2 bytes}.
// A two-pass algorithm is used: the size pass validates segment
// framing and computes the output length, the copy pass emits the
// inflated bytes. Grounded on the two-pass segment walk used for
// AS2/AS4 AS_PATH handling in the wider MRT/BGP parsing corpus.
func InflateASPath(data []byte) ([]byte, error) {
	outLen, err := aspathInflatedSize(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, outLen)
	oi := 0
	off := 0
	for off+2 <= len(data) {
		segType := data[off]
		segLen := int(data[off+1])
		off += 2

		out[oi] = segType
		out[oi+1] = byte(segLen)
		oi += 2

		for i := 0; i < segLen; i++ {
			hi := data[off]
			lo := data[off+1]
			off += 2
			out[oi] = 0
			out[oi+1] = 0
			out[oi+2] = hi
			out[oi+3] = lo
			oi += 4
		}
	}
	return out, nil
}

// aspathInflatedSize is the size pass: it validates that every segment
// is fully contained in data and computes the inflated output length
// without allocating it.
func aspathInflatedSize(data []byte) (int, error) {
	out := 0
	off := 0
	for off < len(data) {
		if off+2 > len(data) {
			return 0, errTruncated("aspath.inflate")
		}
		segLen := int(data[off+1])
		off += 2
		need := segLen * 2
		if off+need > len(data) {
			return 0, errTruncated("aspath.inflate")
		}
		off += need
		out += 2 + segLen*4
	}
	return out, nil
}

// DeflateASPath is the inverse of InflateASPath, restricted to AS_PATH
// payloads whose ASNs all fit in 16 bits; it exists purely to exercise
// the round-trip property in §8 ("aspath_inflate(aspath_deflate(x)) ==
// x"). It is not used by the decoder itself.
func DeflateASPath(data []byte) ([]byte, error) {
	off := 0
	for off < len(data) {
		if off+2 > len(data) {
			return nil, errTruncated("aspath.deflate")
		}
		segLen := int(data[off+1])
		off += 2
		if off+segLen*4 > len(data) {
			return nil, errTruncated("aspath.deflate")
		}
		off += segLen * 4
	}

	out := make([]byte, 0, len(data))
	off = 0
	for off < len(data) {
		segType := data[off]
		segLen := int(data[off+1])
		off += 2
		out = append(out, segType, byte(segLen))
		for i := 0; i < segLen; i++ {
			asn := binary.BigEndian.Uint32(data[off : off+4])
			off += 4
			out = append(out, byte(asn>>8), byte(asn))
		}
	}
	return out, nil
}
