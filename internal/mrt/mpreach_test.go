package mrt

import (
	"bytes"
	"net"
	"testing"
)

// TestMPReachNLRILegacyEncoding implements spec.md §8 scenario 4: the
// AFI/SAFI/reserved prelude is present (legacy encoding, first payload
// byte does not equal payload_length-1), so the parser skips 3 bytes
// before reading the next-hop length and the IPv6 next hop.
func TestMPReachNLRILegacyEncoding(t *testing.T) {
	ipv6NextHop := []byte{
		0x20, 0x01, 0x0d, 0xb8,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1,
	}

	var payload bytes.Buffer
	payload.Write(u16(2)) // AFI = IPv6
	payload.WriteByte(1)  // SAFI = unicast
	payload.WriteByte(16) // nh_len
	payload.Write(ipv6NextHop)
	payload.WriteByte(0) // SNPA count

	nh, ok, err := extractMPReachNextHop(payload.Bytes(), FamilyIPv6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected next hop to be extracted")
	}
	if !nh.IP.Equal(net.IP(ipv6NextHop)) {
		t.Fatalf("next hop = %v, want %v", nh.IP, net.IP(ipv6NextHop))
	}
}

func TestMPReachNLRIRFCCompliantEncoding(t *testing.T) {
	ipv6NextHop := make([]byte, 16)
	ipv6NextHop[15] = 0x01

	// The RFC 6396 form carries only the next-hop length and the next
	// hop, so payload_length - 1 equals the first byte (16).
	payload := append([]byte{16}, ipv6NextHop...)

	nh, ok, err := extractMPReachNextHop(payload, FamilyIPv6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected next hop to be extracted")
	}
	if !nh.IP.Equal(net.IP(ipv6NextHop)) {
		t.Fatalf("next hop = %v, want %v", nh.IP, net.IP(ipv6NextHop))
	}
}

func TestMPReachNLRIIPv4Ignored(t *testing.T) {
	payload := []byte{4, 10, 0, 0, 1, 0}
	_, ok, err := extractMPReachNextHop(payload, FamilyIPv4)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("IPv4 next hop must be ignored in MP_REACH_NLRI (handled by NEXT_HOP)")
	}
}
