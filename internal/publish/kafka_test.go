package publish

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/route-beacon/mrt-decoder/internal/mrt"
)

func TestNewRibEnvelopeKeyAndJSON(t *testing.T) {
	rib := &mrt.Rib{
		SeqNum: 7,
		Prefix: mrt.Prefix{
			Address:   mrt.Address{Family: mrt.FamilyIPv4, IP: net.ParseIP("10.0.0.0")},
			PrefixLen: 24,
		},
	}
	env := newRibEnvelope(rib)
	if env.Prefix != "10.0.0.0/24" {
		t.Fatalf("prefix = %q, want 10.0.0.0/24", env.Prefix)
	}
	if env.Kind != "rib" || env.SeqNum != 7 {
		t.Fatalf("envelope = %+v", env)
	}

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var round ribEnvelope
	if err := json.Unmarshal(b, &round); err != nil {
		t.Fatal(err)
	}
	if round.Kind != env.Kind || round.SeqNum != env.SeqNum || round.Prefix != env.Prefix {
		t.Fatalf("round trip mismatch: %+v != %+v", round, env)
	}
}

func TestNewStateEnvelope(t *testing.T) {
	st := &mrt.BgpState{
		SrcAS: 100, DstAS: 200,
		Src: mrt.Address{IP: net.ParseIP("1.1.1.1")},
		Dst: mrt.Address{IP: net.ParseIP("2.2.2.2")},
		OldState: 3, NewState: 6,
	}
	env := newStateEnvelope(st)
	if env.Src != "1.1.1.1" || env.Dst != "2.2.2.2" {
		t.Fatalf("envelope addrs = %+v", env)
	}
	if env.Kind != "state" {
		t.Fatalf("kind = %q", env.Kind)
	}
}

func TestNewMsgEnvelopePreservesRaw(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03}
	msg := &mrt.BgpMsg{
		SrcAS: 1, DstAS: 2,
		Src: mrt.Address{IP: net.ParseIP("10.0.0.1")},
		Dst: mrt.Address{IP: net.ParseIP("10.0.0.2")},
		Raw: raw,
	}
	env := newMsgEnvelope(msg)
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var round msgEnvelope
	if err := json.Unmarshal(b, &round); err != nil {
		t.Fatal(err)
	}
	if len(round.Raw) != len(raw) {
		t.Fatalf("raw = %v, want %v", round.Raw, raw)
	}
}
