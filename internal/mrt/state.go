package mrt

// decodeCommonPrefix reads the {src_as, dst_as, if_index, afi} prefix
// shared by BGP4MP STATE_CHANGE and MESSAGE records (§4.6). AS fields
// are 2 or 4 bytes depending on the subtype.
func decodeCommonPrefix(c *Cursor, as4 bool) (srcAS, dstAS uint32, family Family, err error) {
	if as4 {
		srcAS, err = c.ReadUint32()
		if err != nil {
			return 0, 0, 0, errTruncated("state.common_prefix")
		}
		dstAS, err = c.ReadUint32()
		if err != nil {
			return 0, 0, 0, errTruncated("state.common_prefix")
		}
	} else {
		var s, d uint16
		s, err = c.ReadUint16()
		if err != nil {
			return 0, 0, 0, errTruncated("state.common_prefix")
		}
		d, err = c.ReadUint16()
		if err != nil {
			return 0, 0, 0, errTruncated("state.common_prefix")
		}
		srcAS, dstAS = uint32(s), uint32(d)
	}

	if err = c.Skip(2); err != nil { // if_index
		return 0, 0, 0, errTruncated("state.common_prefix")
	}

	afi, err := c.ReadUint16()
	if err != nil {
		return 0, 0, 0, errTruncated("state.common_prefix")
	}
	fam, ok := familyFromAFI(afi, 1)
	if !ok {
		return 0, 0, 0, errUnknownFamily("state.common_prefix")
	}
	return srcAS, dstAS, fam, nil
}

// usecTimestamp combines the MRT common header's second-resolution
// timestamp with the BGP4MP_ET extension's microsecond field, per
// §4.6 ("usec × 1000 nanoseconds").
func usecTimestamp(headerSec uint32, usec uint32) Timestamp {
	return Timestamp{Sec: headerSec, Nsec: usec * 1000}
}

// DecodeStateChange decodes a BGP4MP STATE_CHANGE / STATE_CHANGE_AS4
// body (§4.6). ts is the already-combined timestamp (header seconds
// plus any _ET microsecond extension).
func DecodeStateChange(payload []byte, as4 bool, ts Timestamp) (*BgpState, error) {
	c := NewCursor(payload)

	srcAS, dstAS, family, err := decodeCommonPrefix(c, as4)
	if err != nil {
		return nil, err
	}

	src, err := DecodeAddress(c, family)
	if err != nil {
		return nil, err
	}
	dst, err := DecodeAddress(c, family)
	if err != nil {
		return nil, err
	}

	oldState, err := c.ReadUint16()
	if err != nil {
		return nil, errTruncated("state.decode")
	}
	newState, err := c.ReadUint16()
	if err != nil {
		return nil, errTruncated("state.decode")
	}

	return &BgpState{
		Timestamp: ts,
		SrcAS:     srcAS,
		DstAS:     dstAS,
		Src:       src,
		Dst:       dst,
		OldState:  oldState,
		NewState:  newState,
	}, nil
}

// DecodeMessage decodes a BGP4MP MESSAGE/MESSAGE_AS4/MESSAGE_LOCAL/
// MESSAGE_AS4_LOCAL/MESSAGE_ADDPATH/MESSAGE_AS4_ADDPATH body (§4.6).
// The raw BGP message is copied verbatim and not further parsed.
func DecodeMessage(payload []byte, as4, addPath bool, ts Timestamp) (*BgpMsg, error) {
	c := NewCursor(payload)

	srcAS, dstAS, family, err := decodeCommonPrefix(c, as4)
	if err != nil {
		return nil, err
	}

	src, err := DecodeAddress(c, family)
	if err != nil {
		return nil, err
	}
	dst, err := DecodeAddress(c, family)
	if err != nil {
		return nil, err
	}

	raw, err := c.ReadExact(c.Remaining())
	if err != nil {
		return nil, errTruncated("message.decode")
	}

	return &BgpMsg{
		Timestamp: ts,
		SrcAS:     srcAS,
		DstAS:     dstAS,
		Src:       src,
		Dst:       dst,
		AddPath:   addPath,
		Raw:       raw,
	}, nil
}
