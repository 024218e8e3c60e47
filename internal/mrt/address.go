package mrt

import "net"

// NLRIDecoder is the single extension point for per-family prefix
// decoding (§6). It is an external collaborator: the core only needs
// it to read a 1-byte bit-length prefix and the bytes that follow, and
// never interprets the prefix bits itself. withdraw is carried for the
// VPN forms; the core always passes false.
type NLRIDecoder interface {
	GetPrefix(c *Cursor, family Family, withdraw bool) (Prefix, int, error)
}

// DefaultNLRIDecoder implements the narrow contract spec.md assigns to
// the abstract NLRI sub-decoder: a 1-byte bit-length followed by that
// many bits, rounded up to whole bytes. It does not understand VPN
// route targets or any other semantic structure within the prefix
// bytes beyond the bit length itself.
type DefaultNLRIDecoder struct{}

func (DefaultNLRIDecoder) GetPrefix(c *Cursor, family Family, withdraw bool) (Prefix, int, error) {
	start := c.Offset()
	bitLen, err := c.ReadUint8()
	if err != nil {
		return Prefix{}, 0, errTruncated("nlri.get_prefix")
	}
	maxBits := family.MaxPrefixBits()
	if maxBits == 0 || int(bitLen) > maxBits {
		return Prefix{}, 0, errBadPrefixLen("nlri.get_prefix")
	}
	byteLen := (int(bitLen) + 7) / 8
	raw, err := c.ReadExact(byteLen)
	if err != nil {
		return Prefix{}, 0, errTruncated("nlri.get_prefix")
	}
	width := maxBits / 8
	padded := make([]byte, width)
	copy(padded, raw)
	return Prefix{
		Address:   Address{Family: family, IP: ipFromBytes(family, padded)},
		PrefixLen: int(bitLen),
	}, c.Offset() - start, nil
}

// DecodeAddress reads the fixed width for family from c (§4.2). VPN
// families carry an 8-byte RD+label-stack prelude that is consumed but
// not decoded into semantic fields — an acknowledged gap, not a bug.
func DecodeAddress(c *Cursor, family Family) (Address, error) {
	switch family {
	case FamilyIPv4:
		b, err := c.ReadExact(4)
		if err != nil {
			return Address{}, errTruncated("address.decode")
		}
		return Address{Family: family, IP: net.IP(b)}, nil
	case FamilyIPv6:
		b, err := c.ReadExact(16)
		if err != nil {
			return Address{}, errTruncated("address.decode")
		}
		return Address{Family: family, IP: net.IP(b)}, nil
	case FamilyVPNv4:
		if err := c.Skip(8); err != nil {
			return Address{}, errTruncated("address.decode")
		}
		b, err := c.ReadExact(4)
		if err != nil {
			return Address{}, errTruncated("address.decode")
		}
		return Address{Family: family, IP: net.IP(b)}, nil
	case FamilyVPNv6:
		if err := c.Skip(8); err != nil {
			return Address{}, errTruncated("address.decode")
		}
		b, err := c.ReadExact(16)
		if err != nil {
			return Address{}, errTruncated("address.decode")
		}
		return Address{Family: family, IP: net.IP(b)}, nil
	default:
		return Address{}, errUnknownFamily("address.decode")
	}
}

// DecodePrefix delegates to dec for the family's framing rule (§4.2).
func DecodePrefix(c *Cursor, family Family, dec NLRIDecoder) (Prefix, int, error) {
	if dec == nil {
		dec = DefaultNLRIDecoder{}
	}
	return dec.GetPrefix(c, family, false)
}

func ipFromBytes(family Family, b []byte) net.IP {
	switch family {
	case FamilyIPv4, FamilyVPNv4:
		if len(b) >= 4 {
			return net.IP(b[:4])
		}
	case FamilyIPv6, FamilyVPNv6:
		if len(b) >= 16 {
			return net.IP(b[:16])
		}
	}
	return net.IP(b)
}

// addressWidth returns the fixed wire width in bytes for family, as
// used by legacy TABLE_DUMP and BGP4MP_ENTRY record layouts.
func addressWidth(family Family) int {
	switch family {
	case FamilyIPv4:
		return 4
	case FamilyIPv6:
		return 16
	case FamilyVPNv4:
		return 8 + 4
	case FamilyVPNv6:
		return 8 + 16
	default:
		return 0
	}
}

// familyFromAFI maps an AFI (and, for VPN, an SAFI) to a Family, per
// §4.6's "family derived per §4.6" rule for GENERIC TABLE_DUMP_V2
// records and BGP4MP_ENTRY's afi/safi pair.
func familyFromAFI(afi uint16, safi uint8) (Family, bool) {
	const (
		afiIPv4 = 1
		afiIPv6 = 2

		safiUnicast   = 1
		safiMulticast = 2
		safiMPLSVPN   = 128
	)
	switch afi {
	case afiIPv4:
		if safi == safiMPLSVPN {
			return FamilyVPNv4, true
		}
		if safi == safiUnicast || safi == safiMulticast {
			return FamilyIPv4, true
		}
	case afiIPv6:
		if safi == safiMPLSVPN {
			return FamilyVPNv6, true
		}
		if safi == safiUnicast || safi == safiMulticast {
			return FamilyIPv6, true
		}
	}
	return FamilyUnspecified, false
}
