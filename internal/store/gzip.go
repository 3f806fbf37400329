package store

import (
	"bytes"
	"compress/gzip"
	"io"
)

// GzipBytes compresses b at the given gzip level (use gzip.BestCompression
// for archival fixture bundles, gzip.DefaultCompression otherwise).
func GzipBytes(b []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GunzipBytes decompresses a gzip-wrapped payload, used when reading the
// portable fixture encoding (spec.md §4.6: "gzip-wrapped NDJSON of canonical
// JSON documents").
func GunzipBytes(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
