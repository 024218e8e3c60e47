package mrt

import (
	"bytes"
	"testing"
)

// TestDecodeStateChangeAS4WithET implements spec.md §8 scenario 5.
func TestDecodeStateChangeAS4WithET(t *testing.T) {
	var payload bytes.Buffer
	payload.Write(u32(0x00010000)) // src_as
	payload.Write(u32(0x00020000)) // dst_as
	payload.Write(u16(0))          // if_index
	payload.Write(u16(1))          // afi = IPv4
	payload.Write([]byte{1, 1, 1, 1})
	payload.Write([]byte{2, 2, 2, 2})
	payload.Write(u16(3)) // old_state
	payload.Write(u16(6)) // new_state

	ts := usecTimestamp(0x5F000000, 0x000003E8)

	st, err := DecodeStateChange(payload.Bytes(), true, ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.SrcAS != 0x10000 || st.DstAS != 0x20000 {
		t.Fatalf("as = %d/%d", st.SrcAS, st.DstAS)
	}
	if st.Src.IP.String() != "1.1.1.1" || st.Dst.IP.String() != "2.2.2.2" {
		t.Fatalf("addrs = %v/%v", st.Src.IP, st.Dst.IP)
	}
	if st.OldState != 3 || st.NewState != 6 {
		t.Fatalf("states = %d/%d", st.OldState, st.NewState)
	}
	if st.Timestamp.Sec != 0x5F000000 || st.Timestamp.Nsec != 1_000_000 {
		t.Fatalf("timestamp = %+v", st.Timestamp)
	}
}

func TestDecodeMessageRawPassthrough(t *testing.T) {
	var payload bytes.Buffer
	payload.Write(u16(65001))
	payload.Write(u16(65002))
	payload.Write(u16(0))
	payload.Write(u16(1))
	payload.Write([]byte{10, 0, 0, 1})
	payload.Write([]byte{10, 0, 0, 2})
	raw := []byte{0xFF, 0xFF, 0xFF, 0x02, 0x00}
	payload.Write(raw)

	msg, err := DecodeMessage(payload.Bytes(), false, false, Timestamp{Sec: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(msg.Raw, raw) {
		t.Fatalf("raw = % x, want % x", msg.Raw, raw)
	}
	if msg.AddPath {
		t.Fatal("AddPath should be false")
	}
}

func TestDecodeStateOutOfRangeStatesPassThrough(t *testing.T) {
	var payload bytes.Buffer
	payload.Write(u16(1))
	payload.Write(u16(2))
	payload.Write(u16(0))
	payload.Write(u16(1))
	payload.Write([]byte{1, 1, 1, 1})
	payload.Write([]byte{2, 2, 2, 2})
	payload.Write(u16(99))
	payload.Write(u16(200))

	st, err := DecodeStateChange(payload.Bytes(), false, Timestamp{})
	if err != nil {
		t.Fatal(err)
	}
	if st.OldState != 99 || st.NewState != 200 {
		t.Fatalf("out-of-range states must pass through unchanged, got %d/%d", st.OldState, st.NewState)
	}
}
