// Package archive opens MRT dump files regardless of the compression
// the collector wrote them with, returning a plain decompressed byte
// stream for mrt.Parser.Run to consume.
package archive

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Open opens fname and returns a decompressed, closeable MRT byte
// stream. The compression is selected by file extension, matching
// CSUNetSec-protoparse's getScanner dispatch: ".bz2" for bzip2 (the
// RouteViews/RIPE RIS archive format), ".gz" for gzip, ".zst" for zstd,
// anything else is read raw.
func Open(fname string) (io.ReadCloser, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", fname, err)
	}

	switch filepath.Ext(fname) {
	case ".bz2":
		return &wrapped{Reader: bzip2.NewReader(f), under: f}, nil
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("archive: gzip %s: %w", fname, err)
		}
		return &wrapped{Reader: gz, under: f, closer: gz.Close}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("archive: zstd %s: %w", fname, err)
		}
		return &wrapped{Reader: zr, under: f, closer: func() error { zr.Close(); return nil }}, nil
	default:
		return f, nil
	}
}

// wrapped adapts a decompressor reader plus the underlying *os.File
// into a single io.ReadCloser, closing the decompressor (if it has one)
// before the file.
type wrapped struct {
	io.Reader
	under  *os.File
	closer func() error
}

func (w *wrapped) Close() error {
	var err error
	if w.closer != nil {
		err = w.closer()
	}
	if cerr := w.under.Close(); err == nil {
		err = cerr
	}
	return err
}
