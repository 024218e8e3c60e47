package mrt

import (
	"context"
	"io"

	"github.com/route-beacon/mrt-decoder/internal/metrics"
	"go.uber.org/zap"
)

// MRT common header type codes (§4.7).
const (
	typeNull      = 0
	typeStart     = 1
	typeDie       = 2
	typeIAmDead   = 3
	typeBGP       = 4
	typeIDRP      = 5
	typePeerDown  = 6
	typeBGP4PLUS  = 7
	typeBGP4PLUS1 = 8
	typeRIP       = 9
	typeIDRPIS    = 10
	typeRIPNG     = 11
	typeTableDump   = 12
	typeTableDumpV2 = 13
	typeOSPFv3      = 14
	typeBGP4MP      = 16
	typeBGP4MPET    = 17
)

// TABLE_DUMP (legacy) subtypes.
const (
	subAFIIPv4 = 1
	subAFIIPv6 = 2
)

// TABLE_DUMP_V2 subtypes.
const (
	subPeerIndexTable          = 1
	subRIBIPv4Unicast          = 2
	subRIBIPv4Multicast        = 3
	subRIBIPv6Unicast          = 4
	subRIBIPv6Multicast        = 5
	subRIBGeneric              = 6
	subRIBIPv4UnicastAddPath   = 8
	subRIBIPv4MulticastAddPath = 9
	subRIBIPv6UnicastAddPath   = 10
	subRIBIPv6MulticastAddPath = 11
	subRIBGenericAddPath       = 12
)

// BGP4MP / BGP4MP_ET subtypes.
const (
	subStateChange             = 0
	subMessage                 = 1
	subEntry                   = 2
	subSnapshot                = 3
	subMessageAS4              = 4
	subStateChangeAS4          = 5
	subMessageLocal            = 6
	subMessageAS4Local         = 7
	subMessageAddPath          = 8
	subMessageAS4AddPath       = 9
	subMessageLocalAddPath     = 10
	subMessageAS4LocalAddPath  = 11
)

const headerLen = 12

// Sinks are the optional callbacks the Parser delivers decoded records
// to (§6). A nil sink means that record class is parsed but not
// delivered (for Dump, not even parsed).
type Sinks struct {
	Dump    func(*Rib, *PeerContext)
	State   func(*BgpState)
	Message func(*BgpMsg)
}

// Parser reads a stream of MRT records and dispatches decoded values
// to Sinks. It holds the only cross-record state: the current
// PEER_INDEX_TABLE-derived PeerContext and the synthetic PeerContext
// reused by legacy TABLE_DUMP and BGP4MP_ENTRY records.
type Parser struct {
	Sinks   Sinks
	Verbose bool
	NLRI    NLRIDecoder
	Logger  *zap.Logger

	peerCtx        *PeerContext
	legacyPeerCtx  *PeerContext
}

// NewParser returns a Parser ready to Run. A nil logger is replaced
// with a no-op logger, matching the rest of the ambient stack's
// default-safe zap usage.
func NewParser(sinks Sinks, verbose bool, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{Sinks: sinks, Verbose: verbose, Logger: logger, NLRI: DefaultNLRIDecoder{}}
}

// Run reads records from r until end of stream, a fatal error, or ctx
// is cancelled. A short read on the 12-byte common header, or on the
// payload, ends the stream cleanly (§4.7, §7) and Run returns nil.
func (p *Parser) Run(ctx context.Context, r io.Reader) error {
	header := make([]byte, headerLen)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := io.ReadFull(r, header); err != nil {
			return nil // clean end of stream
		}

		hc := NewCursor(header)
		ts, _ := hc.ReadUint32()
		recType, _ := hc.ReadUint16()
		subtype, _ := hc.ReadUint16()
		length, _ := hc.ReadUint32()

		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil // truncated trailing record, silently dropped
		}

		if err := p.dispatch(recType, subtype, ts, payload); err != nil {
			k, ok := AsKind(err)
			if ok && k.Fatal() {
				return err
			}
			if ok {
				metrics.DecodeErrorsTotal.WithLabelValues(k.String()).Inc()
			} else {
				metrics.DecodeErrorsTotal.WithLabelValues("unknown").Inc()
			}
			if p.Verbose {
				p.Logger.Warn("mrt: record decode failed",
					zap.Uint16("type", recType),
					zap.Uint16("subtype", subtype),
					zap.Error(err))
			}
		}
	}
}

func (p *Parser) dispatch(recType, subtype uint16, headerTS uint32, payload []byte) error {
	switch recType {
	case typeNull, typeStart, typeDie, typeIAmDead, typePeerDown:
		p.logDeprecated(recType, subtype)
		return nil
	case typeBGP, typeIDRP, typeBGP4PLUS, typeBGP4PLUS1:
		p.logDeprecated(recType, subtype)
		return nil
	case typeRIP, typeIDRPIS, typeRIPNG, typeOSPFv3:
		p.logUnsupported(recType, subtype)
		return nil
	case typeTableDump:
		return p.dispatchTableDump(subtype, payload)
	case typeTableDumpV2:
		return p.dispatchTableDumpV2(subtype, payload)
	case typeBGP4MP:
		return p.dispatchBGP4MP(subtype, headerTS, 0, payload)
	case typeBGP4MPET:
		if len(payload) < 4 {
			return errTruncated("framer.bgp4mp_et")
		}
		usec := be32(payload[:4])
		return p.dispatchBGP4MP(subtype, headerTS, usec, payload[4:])
	default:
		p.logUnknown(recType, subtype)
		return nil
	}
}

func (p *Parser) dispatchTableDump(subtype uint16, payload []byte) error {
	var family Family
	switch subtype {
	case subAFIIPv4:
		family = FamilyIPv4
	case subAFIIPv6:
		family = FamilyIPv6
	default:
		p.logUnknown(typeTableDump, subtype)
		return nil
	}

	if p.Sinks.Dump == nil {
		return nil
	}

	rib, peer, err := DecodeRibTableDump(payload, family)
	if err != nil {
		return err
	}

	ctx := p.legacySingletonPeerContext()
	ctx.Peers[0] = peer
	p.Sinks.Dump(rib, ctx)
	return nil
}

func (p *Parser) dispatchTableDumpV2(subtype uint16, payload []byte) error {
	if subtype == subPeerIndexTable {
		pc, err := DecodePeerIndex(payload)
		if err != nil {
			return err
		}
		p.peerCtx = pc
		return nil
	}

	var family Family
	generic := false
	addPath := false
	switch subtype {
	case subRIBIPv4Unicast, subRIBIPv4Multicast:
		family = FamilyIPv4
	case subRIBIPv6Unicast, subRIBIPv6Multicast:
		family = FamilyIPv6
	case subRIBGeneric:
		generic = true
	case subRIBIPv4UnicastAddPath, subRIBIPv4MulticastAddPath:
		family, addPath = FamilyIPv4, true
	case subRIBIPv6UnicastAddPath, subRIBIPv6MulticastAddPath:
		family, addPath = FamilyIPv6, true
	case subRIBGenericAddPath:
		generic, addPath = true, true
	default:
		p.logUnknown(typeTableDumpV2, subtype)
		return nil
	}

	if p.Sinks.Dump == nil {
		return nil
	}

	rib, err := DecodeRibTableDumpV2(payload, family, generic, addPath, p.NLRI)
	if err != nil {
		return err
	}
	p.Sinks.Dump(rib, p.peerCtx)
	return nil
}

func (p *Parser) dispatchBGP4MP(subtype uint16, headerTS, usec uint32, payload []byte) error {
	ts := usecTimestamp(headerTS, usec)

	switch subtype {
	case subStateChange, subStateChangeAS4:
		st, err := DecodeStateChange(payload, subtype == subStateChangeAS4, ts)
		if err != nil {
			return err
		}
		if p.Sinks.State != nil {
			p.Sinks.State(st)
		}
		return nil

	case subMessage, subMessageAS4, subMessageLocal, subMessageAS4Local,
		subMessageAddPath, subMessageAS4AddPath, subMessageLocalAddPath, subMessageAS4LocalAddPath:
		as4 := subtype == subMessageAS4 || subtype == subMessageAS4Local ||
			subtype == subMessageAS4AddPath || subtype == subMessageAS4LocalAddPath
		addPath := subtype == subMessageAddPath || subtype == subMessageAS4AddPath ||
			subtype == subMessageLocalAddPath || subtype == subMessageAS4LocalAddPath
		msg, err := DecodeMessage(payload, as4, addPath, ts)
		if err != nil {
			return err
		}
		if p.Sinks.Message != nil {
			p.Sinks.Message(msg)
		}
		return nil

	case subEntry:
		if p.Sinks.Dump == nil {
			return nil
		}
		rib, dst, err := DecodeRibBgp4mpEntry(payload, p.NLRI)
		if err != nil {
			return err
		}
		ctx := p.legacySingletonPeerContext()
		ctx.Peers[0].Address = dst
		p.Sinks.Dump(rib, ctx)
		return nil

	case subSnapshot:
		p.logDeprecated(typeBGP4MP, subtype)
		return nil

	default:
		p.logUnknown(typeBGP4MP, subtype)
		return nil
	}
}

// legacySingletonPeerContext returns the dedicated synthetic
// PeerContext used by legacy TABLE_DUMP and BGP4MP_ENTRY records.
// It is never the same value as a PEER_INDEX_TABLE-derived PeerContext
// (the fix for the REDESIGN FLAG documented in spec §9: legacy records
// must not overwrite a real peer table's first entry).
func (p *Parser) legacySingletonPeerContext() *PeerContext {
	if p.legacyPeerCtx == nil {
		p.legacyPeerCtx = newSyntheticPeerContext()
	}
	return p.legacyPeerCtx
}

func (p *Parser) logDeprecated(recType, subtype uint16) {
	if p.Verbose {
		p.Logger.Debug("mrt: deprecated record type", zap.Uint16("type", recType), zap.Uint16("subtype", subtype))
	}
}

func (p *Parser) logUnsupported(recType, subtype uint16) {
	if p.Verbose {
		p.Logger.Debug("mrt: unsupported record type", zap.Uint16("type", recType), zap.Uint16("subtype", subtype))
	}
}

func (p *Parser) logUnknown(recType, subtype uint16) {
	if p.Verbose {
		p.Logger.Debug("mrt: unknown type/subtype", zap.Uint16("type", recType), zap.Uint16("subtype", subtype))
	}
}
