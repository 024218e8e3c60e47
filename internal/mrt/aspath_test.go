package mrt

import (
	"bytes"
	"testing"
)

// TestInflateASPathScenario implements spec.md §8 scenario 3: an AS2
// sequence segment {100, 200} inflates to the 4-byte-ASN form.
func TestInflateASPathScenario(t *testing.T) {
	input := []byte{0x02, 0x02, 0x00, 0x64, 0x00, 0xC8}
	want := []byte{0x02, 0x02, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0xC8}

	got, err := InflateASPath(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("InflateASPath = % x, want % x", got, want)
	}
}

func TestInflateASPathTruncated(t *testing.T) {
	// seg_len claims 2 ASNs but only 1 is present.
	input := []byte{0x02, 0x02, 0x00, 0x64}
	if _, err := InflateASPath(input); err == nil {
		t.Fatal("expected truncated error")
	}
}

// TestASPathRoundTrip implements the §8 property:
// aspath_inflate(aspath_deflate(x)) == x for 4-byte AS paths whose
// ASNs fit in 16 bits.
func TestASPathRoundTrip(t *testing.T) {
	original := []byte{
		0x02, 0x03,
		0x00, 0x00, 0x00, 0x64,
		0x00, 0x00, 0x01, 0x2C,
		0x00, 0x00, 0xFF, 0xFF,
	}

	deflated, err := DeflateASPath(original)
	if err != nil {
		t.Fatalf("deflate: %v", err)
	}
	inflated, err := InflateASPath(deflated)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(inflated, original) {
		t.Fatalf("round trip mismatch: got % x, want % x", inflated, original)
	}
}
