package mrt

import (
	"bytes"
	"testing"
)

func buildPeerIndexPayload(collectorBgpID uint32, viewName string, peers [][]byte) []byte {
	var buf bytes.Buffer
	buf.Write(u32(collectorBgpID))
	buf.Write(u16(uint16(len(viewName))))
	buf.WriteString(viewName)
	buf.Write(u16(uint16(len(peers))))
	for _, p := range peers {
		buf.Write(p)
	}
	return buf.Bytes()
}

func buildPeerEntry(typeByte byte, bgpID uint32, addr []byte, asn uint32, as4 bool) []byte {
	var buf bytes.Buffer
	buf.WriteByte(typeByte)
	buf.Write(u32(bgpID))
	buf.Write(addr)
	if as4 {
		buf.Write(u32(asn))
	} else {
		buf.Write(u16(uint16(asn)))
	}
	return buf.Bytes()
}

// TestDecodePeerIndexMinimal implements spec.md §8 scenario 1: an
// empty peer table yields a PeerContext with no peers and an empty
// view name.
func TestDecodePeerIndexMinimal(t *testing.T) {
	payload := buildPeerIndexPayload(0x01020304, "", nil)

	pc, err := DecodePeerIndex(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.CollectorBgpID != 0x01020304 {
		t.Fatalf("collector = %x", pc.CollectorBgpID)
	}
	if pc.ViewName != "" {
		t.Fatalf("view name = %q, want empty", pc.ViewName)
	}
	if len(pc.Peers) != 0 {
		t.Fatalf("peers = %d, want 0", len(pc.Peers))
	}
}

// TestDecodePeerIndexOrderedEntries implements the §8 property: a
// peer_count=N table yields exactly N entries, in input order.
func TestDecodePeerIndexOrderedEntries(t *testing.T) {
	entries := [][]byte{
		buildPeerEntry(0x00, 1, []byte{1, 1, 1, 1}, 100, false),
		buildPeerEntry(0x02, 2, []byte{2, 2, 2, 2}, 200000, true),
		buildPeerEntry(0x01, 3, bytes.Repeat([]byte{0x20}, 16), 300, false),
	}
	payload := buildPeerIndexPayload(9, "test-view", entries)

	pc, err := DecodePeerIndex(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pc.Peers) != 3 {
		t.Fatalf("peers = %d, want 3", len(pc.Peers))
	}
	if pc.Peers[0].ASNum != 100 || pc.Peers[0].Address.Family != FamilyIPv4 {
		t.Fatalf("peer 0 = %+v", pc.Peers[0])
	}
	if pc.Peers[1].ASNum != 200000 || pc.Peers[1].Address.Family != FamilyIPv4 {
		t.Fatalf("peer 1 = %+v", pc.Peers[1])
	}
	if pc.Peers[2].Address.Family != FamilyIPv6 {
		t.Fatalf("peer 2 family = %v, want IPv6", pc.Peers[2].Address.Family)
	}
	if pc.ViewName != "test-view" {
		t.Fatalf("view name = %q", pc.ViewName)
	}
}

func TestDecodePeerIndexTruncated(t *testing.T) {
	payload := buildPeerIndexPayload(1, "", nil)
	payload = payload[:len(payload)-1]
	if _, err := DecodePeerIndex(payload); err == nil {
		t.Fatal("expected truncated error")
	}
}
