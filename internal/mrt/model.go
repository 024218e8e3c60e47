package mrt

import (
	"net"
	"time"
)

// Family identifies the address family of a decoded address or prefix.
type Family int

const (
	FamilyUnspecified Family = iota
	FamilyIPv4
	FamilyIPv6
	FamilyVPNv4
	FamilyVPNv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	case FamilyVPNv4:
		return "vpnv4"
	case FamilyVPNv6:
		return "vpnv6"
	default:
		return "unspecified"
	}
}

// MaxPrefixBits returns the address width in bits for the family, or 0
// for FamilyUnspecified.
func (f Family) MaxPrefixBits() int {
	switch f {
	case FamilyIPv4, FamilyVPNv4:
		return 32
	case FamilyIPv6, FamilyVPNv6:
		return 128
	default:
		return 0
	}
}

// Address is a decoded network address, owned independently of any
// source buffer. The route distinguisher and label stack of VPN
// families are an acknowledged gap: only the address portion is kept.
type Address struct {
	Family Family
	IP     net.IP
}

// Prefix is an Address together with a bit length.
type Prefix struct {
	Address    Address
	PrefixLen  int
}

// PeerEntry is one row of a PeerContext's peer table.
type PeerEntry struct {
	BgpID   uint32
	Address Address
	ASNum   uint32
}

// PeerContext is the decoded PEER_INDEX_TABLE, or a synthetic
// single-entry stand-in used by legacy TABLE_DUMP and BGP4MP_ENTRY
// records. Ownership is single: the Parser holds one
// PEER_INDEX_TABLE-derived PeerContext at a time and replaces it
// wholesale on each PEER_INDEX_TABLE; it keeps the synthetic one
// separately and reuses it for every legacy record.
type PeerContext struct {
	CollectorBgpID uint32
	ViewName       string
	Peers          []PeerEntry
	synthetic      bool
}

// newSyntheticPeerContext returns a one-entry PeerContext used only by
// legacy record decoders, never shared with a PEER_INDEX_TABLE-derived
// context (see the framer's REDESIGN note on legacy peer handling).
func newSyntheticPeerContext() *PeerContext {
	return &PeerContext{Peers: []PeerEntry{{}}, synthetic: true}
}

// RibEntry is one peer's decoded path information for a Rib prefix.
type RibEntry struct {
	PeerIndex  uint16
	Originated uint32
	PathID     uint32 // 0 if the record is not add-path

	Origin    uint8
	HasOrigin bool

	ASPath []byte // 4-byte-ASN encoded, owned

	NextHop    Address // FamilyUnspecified if absent
	MED        uint32
	MEDPresent bool
	LocalPref  uint32
	LPPresent  bool

	ExtraAttrs [][]byte // raw TLV bytes (flags+type+length+payload), owned, ≤254
}

// Rib is a decoded RIB record (TABLE_DUMP, TABLE_DUMP_V2, or
// BGP4MP_ENTRY, normalized to one shape).
type Rib struct {
	SeqNum  uint32
	Prefix  Prefix
	AddPath bool
	Entries []RibEntry
}

// Timestamp is a seconds+nanoseconds wall-clock value, as carried by
// MRT records (with the _ET microsecond extension folded in).
type Timestamp struct {
	Sec  uint32
	Nsec uint32
}

// Time renders the timestamp as a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nsec)).UTC()
}

// BgpState is a decoded BGP4MP STATE_CHANGE record.
type BgpState struct {
	Timestamp          Timestamp
	SrcAS, DstAS       uint32
	Src, Dst           Address
	OldState, NewState uint16
}

// BgpMsg is a decoded BGP4MP MESSAGE record; the raw BGP message bytes
// are copied verbatim and not further parsed.
type BgpMsg struct {
	Timestamp    Timestamp
	SrcAS, DstAS uint32
	Src, Dst     Address
	AddPath      bool
	Raw          []byte
}

// BGP FSM states (RFC 4271 §8.2.2). Values outside this range are
// accepted and passed through unchanged.
const (
	StateIdle        = 1
	StateConnect     = 2
	StateActive      = 3
	StateOpenSent    = 4
	StateOpenConfirm = 5
	StateEstablished = 6
)
