package mrt

// Peer entry type-byte bits (§4.4).
const (
	peerTypeIPv6Bit  = 1 << 0
	peerTypeAS4Bit   = 1 << 1
)

// DecodePeerIndex decodes a TABLE_DUMP_V2 PEER_INDEX_TABLE payload
// (§4.4) into a PeerContext. view_name is preserved verbatim and is
// not required to be null-terminated.
func DecodePeerIndex(payload []byte) (*PeerContext, error) {
	c := NewCursor(payload)

	collectorBgpID, err := c.ReadUint32()
	if err != nil {
		return nil, errTruncated("peerindex.decode")
	}

	viewLen, err := c.ReadUint16()
	if err != nil {
		return nil, errTruncated("peerindex.decode")
	}
	viewNameBytes, err := c.ReadExact(int(viewLen))
	if err != nil {
		return nil, errTruncated("peerindex.decode")
	}

	peerCount, err := c.ReadUint16()
	if err != nil {
		return nil, errTruncated("peerindex.decode")
	}

	peers := make([]PeerEntry, 0, peerCount)
	for i := uint16(0); i < peerCount; i++ {
		typeByte, err := c.ReadUint8()
		if err != nil {
			return nil, errTruncated("peerindex.decode")
		}
		bgpID, err := c.ReadUint32()
		if err != nil {
			return nil, errTruncated("peerindex.decode")
		}

		family := FamilyIPv4
		if typeByte&peerTypeIPv6Bit != 0 {
			family = FamilyIPv6
		}
		addr, err := DecodeAddress(c, family)
		if err != nil {
			return nil, errTruncated("peerindex.decode")
		}

		var asn uint32
		if typeByte&peerTypeAS4Bit != 0 {
			asn, err = c.ReadUint32()
		} else {
			var asn16 uint16
			asn16, err = c.ReadUint16()
			asn = uint32(asn16)
		}
		if err != nil {
			return nil, errTruncated("peerindex.decode")
		}

		peers = append(peers, PeerEntry{BgpID: bgpID, Address: addr, ASNum: asn})
	}

	return &PeerContext{
		CollectorBgpID: collectorBgpID,
		ViewName:       string(viewNameBytes),
		Peers:          peers,
	}, nil
}
