package store

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestWriterMaybeCompressDisabled(t *testing.T) {
	w := &Writer{compressRaw: false}
	data := []byte{0x01, 0x02, 0x03}
	got := w.maybeCompress(data)
	if !bytes.Equal(got, data) {
		t.Fatalf("compressRaw=false must pass bytes through unchanged, got % x", got)
	}
}

func TestWriterMaybeCompressNil(t *testing.T) {
	w := &Writer{compressRaw: true}
	if got := w.maybeCompress(nil); got != nil {
		t.Fatalf("nil input must stay nil, got % x", got)
	}
}

func TestWriterMaybeCompressRoundTrip(t *testing.T) {
	w := &Writer{compressRaw: true}
	data := bytes.Repeat([]byte("mrt-attribute-blob"), 16)

	compressed := w.maybeCompress(data)
	if bytes.Equal(compressed, data) {
		t.Fatal("expected compressRaw=true to transform the bytes")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	got, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		t.Fatalf("decoding compressed blob: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q want %q", got, data)
	}
}

func TestCompressExtraAttrs(t *testing.T) {
	w := &Writer{compressRaw: false}
	if got := w.compressExtraAttrs(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	in := [][]byte{{0x01}, {0x02, 0x03}}
	got := w.compressExtraAttrs(in)
	if len(got) != 2 || !bytes.Equal(got[0], in[0]) || !bytes.Equal(got[1], in[1]) {
		t.Fatalf("compressRaw=false must preserve each attr, got %v", got)
	}
}
