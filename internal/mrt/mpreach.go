package mrt

import "net"

// extractMPReachNextHop implements §4.3.2: disambiguate the RFC
// 6396-compliant MP_REACH_NLRI encoding from the widely deployed
// legacy one, then pull out the next-hop address for the families the
// spec names. IPv4 is ignored here; NEXT_HOP (type 3) handles it.
func extractMPReachNextHop(payload []byte, family Family) (Address, bool, error) {
	if len(payload) < 1 {
		return Address{}, false, errTruncated("mpreach.nexthop")
	}

	first := payload[0]
	body := payload
	if int(first) != len(payload)-1 {
		// Legacy encoding: a 3-byte AFI/SAFI/reserved prelude precedes
		// the next-hop-length byte.
		if len(payload) < 4 {
			return Address{}, false, errTruncated("mpreach.nexthop")
		}
		body = payload[3:]
	}

	if len(body) < 1 {
		return Address{}, false, errTruncated("mpreach.nexthop")
	}
	nhLen := int(body[0])
	if len(body) < 1+nhLen {
		return Address{}, false, errTruncated("mpreach.nexthop")
	}

	switch family {
	case FamilyIPv6:
		if len(body) < 17 {
			return Address{}, false, errTruncated("mpreach.nexthop")
		}
		return Address{Family: FamilyIPv6, IP: net.IP(cloneBytes(body[1:17]))}, true, nil
	case FamilyVPNv4:
		if len(body) < 12 {
			return Address{}, false, errTruncated("mpreach.nexthop")
		}
		return Address{Family: FamilyVPNv4, IP: net.IP(cloneBytes(body[1+8 : 1+8+4]))}, true, nil
	case FamilyVPNv6:
		if len(body) < 24 {
			return Address{}, false, errTruncated("mpreach.nexthop")
		}
		return Address{Family: FamilyVPNv6, IP: net.IP(cloneBytes(body[1+8 : 1+8+16]))}, true, nil
	case FamilyIPv4:
		return Address{}, false, nil
	default:
		return Address{}, false, nil
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
