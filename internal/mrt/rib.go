package mrt

// DecodeRibTableDump decodes a legacy TABLE_DUMP RIB record (§4.5).
// family is implied by the MRT subtype (AFI_IPv4 or AFI_IPv6). The
// peer address/ASN decoded here belong in the framer's synthetic
// singleton PeerContext, never in a PEER_INDEX_TABLE-derived one (see
// the framer's REDESIGN note).
func DecodeRibTableDump(payload []byte, family Family) (*Rib, PeerEntry, error) {
	c := NewCursor(payload)

	if err := c.Skip(2); err != nil { // view, ignored
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}
	seq, err := c.ReadUint16()
	if err != nil {
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}

	prefixAddr, err := DecodeAddress(c, family)
	if err != nil {
		return nil, PeerEntry{}, err
	}
	prefixLen, err := c.ReadUint8()
	if err != nil {
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}
	if int(prefixLen) > family.MaxPrefixBits() {
		return nil, PeerEntry{}, errBadPrefixLen("rib.table_dump")
	}

	if err := c.Skip(1); err != nil { // status, ignored
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}
	originated, err := c.ReadUint32()
	if err != nil {
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}

	peerAddr, err := DecodeAddress(c, family)
	if err != nil {
		return nil, PeerEntry{}, err
	}
	peerAS, err := c.ReadUint16()
	if err != nil {
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}

	attrLen, err := c.ReadUint16()
	if err != nil {
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}
	attrBytes, err := c.ReadExact(int(attrLen))
	if err != nil {
		return nil, PeerEntry{}, errTruncated("rib.table_dump")
	}

	entry := RibEntry{PeerIndex: 0, Originated: originated}
	if err := DecodeAttributes(NewCursor(attrBytes), family, false, &entry); err != nil {
		return nil, PeerEntry{}, err
	}

	rib := &Rib{
		SeqNum:  uint32(seq),
		Prefix:  Prefix{Address: prefixAddr, PrefixLen: int(prefixLen)},
		AddPath: false,
		Entries: []RibEntry{entry},
	}
	peer := PeerEntry{Address: peerAddr, ASNum: uint32(peerAS)}
	return rib, peer, nil
}

// DecodeRibTableDumpV2 decodes a TABLE_DUMP_V2 per-AFI or GENERIC RIB
// record (§4.5). For per-AFI subtypes pass the implied family and
// generic=false; for GENERIC subtypes pass generic=true and family is
// ignored (it is read from the payload instead).
func DecodeRibTableDumpV2(payload []byte, family Family, generic, addPath bool, dec NLRIDecoder) (*Rib, error) {
	c := NewCursor(payload)

	seq, err := c.ReadUint32()
	if err != nil {
		return nil, errTruncated("rib.table_dump_v2")
	}

	if generic {
		afi, err := c.ReadUint16()
		if err != nil {
			return nil, errTruncated("rib.table_dump_v2")
		}
		safi, err := c.ReadUint8()
		if err != nil {
			return nil, errTruncated("rib.table_dump_v2")
		}
		var ok bool
		family, ok = familyFromAFI(afi, safi)
		if !ok {
			return nil, errUnknownFamily("rib.table_dump_v2")
		}
	}

	prefix, _, err := DecodePrefix(c, family, dec)
	if err != nil {
		return nil, err
	}

	entryCount, err := c.ReadUint16()
	if err != nil {
		return nil, errTruncated("rib.table_dump_v2")
	}

	entries := make([]RibEntry, 0, entryCount)
	for i := uint16(0); i < entryCount; i++ {
		peerIdx, err := c.ReadUint16()
		if err != nil {
			return nil, errTruncated("rib.table_dump_v2")
		}
		originated, err := c.ReadUint32()
		if err != nil {
			return nil, errTruncated("rib.table_dump_v2")
		}

		var pathID uint32
		if addPath {
			pathID, err = c.ReadUint32()
			if err != nil {
				return nil, errTruncated("rib.table_dump_v2")
			}
		}

		attrLen, err := c.ReadUint16()
		if err != nil {
			return nil, errTruncated("rib.table_dump_v2")
		}
		attrBytes, err := c.ReadExact(int(attrLen))
		if err != nil {
			return nil, errTruncated("rib.table_dump_v2")
		}

		entry := RibEntry{PeerIndex: peerIdx, Originated: originated, PathID: pathID}
		if err := DecodeAttributes(NewCursor(attrBytes), family, true, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return &Rib{SeqNum: seq, Prefix: prefix, AddPath: addPath, Entries: entries}, nil
}

// DecodeRibBgp4mpEntry decodes a BGP4MP_ENTRY RIB record (§4.5). The
// destination address returned belongs in the framer's synthetic
// singleton PeerContext.
func DecodeRibBgp4mpEntry(payload []byte, dec NLRIDecoder) (*Rib, Address, error) {
	c := NewCursor(payload)

	if err := c.Skip(2 + 2 + 2); err != nil { // src_as, dst_as, if_index
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}

	afi, err := c.ReadUint16()
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}
	addrFamily, ok := familyFromAFI(afi, 1)
	if !ok {
		return nil, Address{}, errUnknownFamily("rib.bgp4mp_entry")
	}

	if _, err := DecodeAddress(c, addrFamily); err != nil { // src_addr
		return nil, Address{}, err
	}
	dstAddr, err := DecodeAddress(c, addrFamily)
	if err != nil {
		return nil, Address{}, err
	}

	if err := c.Skip(2 + 2); err != nil { // view, status
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}
	originated, err := c.ReadUint32()
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}

	nlriAfi, err := c.ReadUint16()
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}
	safi, err := c.ReadUint8()
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}
	nlriFamily, ok := familyFromAFI(nlriAfi, safi)
	if !ok {
		return nil, Address{}, errUnknownFamily("rib.bgp4mp_entry")
	}

	nhLen, err := c.ReadUint8()
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}
	nhBytes, err := c.ReadExact(int(nhLen))
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}

	prefix, _, err := DecodePrefix(c, nlriFamily, dec)
	if err != nil {
		return nil, Address{}, err
	}

	attrLen, err := c.ReadUint16()
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}
	attrBytes, err := c.ReadExact(int(attrLen))
	if err != nil {
		return nil, Address{}, errTruncated("rib.bgp4mp_entry")
	}

	entry := RibEntry{Originated: originated}
	if width := addressWidth(nlriFamily); width > 0 && len(nhBytes) >= width {
		if nh, err := DecodeAddress(NewCursor(nhBytes), nlriFamily); err == nil {
			entry.NextHop = nh
		}
	}
	if err := DecodeAttributes(NewCursor(attrBytes), nlriFamily, false, &entry); err != nil {
		return nil, Address{}, err
	}

	rib := &Rib{
		SeqNum:  0,
		Prefix:  prefix,
		AddPath: false,
		Entries: []RibEntry{entry},
	}
	return rib, dstAddr, nil
}
