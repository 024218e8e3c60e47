package mrt

import "github.com/route-beacon/mrt-decoder/internal/metrics"

// BGP path attribute type codes recognized by the decoder (§4.3).
const (
	attrOrigin        uint8 = 1
	attrASPath        uint8 = 2
	attrNextHop       uint8 = 3
	attrMultiExitDisc uint8 = 4
	attrLocalPref     uint8 = 5
	attrMPReachNLRI   uint8 = 14
	attrAS4Path       uint8 = 17
)

const maxExtraAttrs = 254

const attrExtendedLengthFlag = 0x10

// DecodeAttributes walks the TLV-encoded BGP path attribute block in c
// and folds the recognized fields, plus a raw-blob catch-all for
// everything else, into entry (§4.3). family is the record's address
// family (only IPv4 NEXT_HOP is honored; other families' next hops
// come from MP_REACH_NLRI). as4Aspath is true when the surrounding
// format already carries 4-byte ASNs in AS_PATH (e.g. TABLE_DUMP_V2).
func DecodeAttributes(c *Cursor, family Family, as4Aspath bool, entry *RibEntry) error {
	attrCount := 0
	for c.Remaining() > 0 {
		tlvStart := c.Offset()
		attrCount++

		flags, err := c.ReadUint8()
		if err != nil {
			return errTruncated("attributes.decode")
		}
		typeCode, err := c.ReadUint8()
		if err != nil {
			return errTruncated("attributes.decode")
		}

		var length int
		if flags&attrExtendedLengthFlag != 0 {
			l, err := c.ReadUint16()
			if err != nil {
				return errTruncated("attributes.decode")
			}
			length = int(l)
		} else {
			l, err := c.ReadUint8()
			if err != nil {
				return errTruncated("attributes.decode")
			}
			length = int(l)
		}

		if c.Remaining() < length {
			return errTruncated("attributes.decode")
		}
		payload, err := c.ReadExact(length)
		if err != nil {
			return errTruncated("attributes.decode")
		}

		switch typeCode {
		case attrOrigin:
			if length != 1 {
				return errTruncated("attributes.origin")
			}
			entry.Origin = payload[0]
			entry.HasOrigin = true

		case attrASPath:
			if as4Aspath {
				entry.ASPath = cloneBytes(payload)
			} else {
				inflated, err := InflateASPath(payload)
				if err != nil {
					return err
				}
				entry.ASPath = inflated
			}

		case attrNextHop:
			if length != 4 {
				return errTruncated("attributes.next_hop")
			}
			if family == FamilyIPv4 {
				entry.NextHop = Address{Family: FamilyIPv4, IP: cloneBytes(payload)}
			}

		case attrMultiExitDisc:
			if length != 4 {
				return errTruncated("attributes.med")
			}
			entry.MED = be32(payload)
			entry.MEDPresent = true

		case attrLocalPref:
			if length != 4 {
				return errTruncated("attributes.local_pref")
			}
			entry.LocalPref = be32(payload)
			entry.LPPresent = true

		case attrMPReachNLRI:
			nh, ok, err := extractMPReachNextHop(payload, family)
			if err != nil {
				return err
			}
			if ok {
				entry.NextHop = nh
			}

		case attrAS4Path:
			if !as4Aspath {
				entry.ASPath = cloneBytes(payload)
				break
			}
			// as4Aspath is already true: fall through to the unknown
			// attribute path. Preserved verbatim per the documented
			// source quirk (§9) — not "fixed".
			fallthrough

		default:
			if len(entry.ExtraAttrs) >= maxExtraAttrs {
				return errTooManyAttrs("attributes.decode")
			}
			raw := make([]byte, c.Offset()-tlvStart)
			copy(raw, c.sliceBetween(tlvStart, c.Offset()))
			entry.ExtraAttrs = append(entry.ExtraAttrs, raw)
		}
	}
	metrics.AttrsPerRecord.WithLabelValues(family.String()).Observe(float64(attrCount))
	return nil
}

// sliceBetween returns a view of the cursor's backing buffer between
// two offsets already validated by the caller's own bookkeeping.
func (c *Cursor) sliceBetween(start, end int) []byte {
	return c.buf[start:end]
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
