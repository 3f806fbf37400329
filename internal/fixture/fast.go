package fixture

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/midagedev/jongodb-differ/internal/store"
)

// FastMagic and FastVersion identify the custom length-framed binary
// encoding (spec.md §4.6): a big-endian layout chosen for fast, allocation-
// light decoding on the exact engine/runtime combination that produced it.
// Unlike the portable NDJSON encoding, the fast file is never treated as
// engine-independent: Load only trusts it when both fastFormatVersion and
// engineVersion match the running engine (see manifest.go).
const (
	FastMagic   uint32 = 0x4a464658
	FastVersion uint32 = 1
)

// EncodeFast renders set as:
//
//	magic(4) version(4) namespaceCount(4)
//	per namespace: nameLen(4) name(nameLen) docCount(4)
//	  per doc: docLen(4) canonicalJSON(docLen)
//
// all integers big-endian.
func EncodeFast(set CollectionSet) ([]byte, error) {
	var buf bytes.Buffer
	namespaces := set.SortedNamespaces()

	if err := binary.Write(&buf, binary.BigEndian, FastMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, FastVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(namespaces))); err != nil {
		return nil, err
	}

	for _, ns := range namespaces {
		nameBytes := []byte(ns)
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(nameBytes))); err != nil {
			return nil, err
		}
		buf.Write(nameBytes)

		docs := set[ns]
		if err := binary.Write(&buf, binary.BigEndian, uint32(len(docs))); err != nil {
			return nil, err
		}
		for _, doc := range docs {
			payload, err := store.CanonicalJSON(doc)
			if err != nil {
				return nil, fmt.Errorf("fixture: encode fast doc in %s: %w", ns, err)
			}
			if err := binary.Write(&buf, binary.BigEndian, uint32(len(payload))); err != nil {
				return nil, err
			}
			buf.Write(payload)
		}
	}
	return buf.Bytes(), nil
}

// DecodeFast is the inverse of EncodeFast.
func DecodeFast(b []byte) (CollectionSet, error) {
	r := bytes.NewReader(b)

	var magic, version, nsCount uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("fixture: read fast magic: %w", err)
	}
	if magic != FastMagic {
		return nil, fmt.Errorf("fixture: fast artifact has wrong magic 0x%x", magic)
	}
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("fixture: read fast version: %w", err)
	}
	if version != FastVersion {
		return nil, fmt.Errorf("fixture: unsupported fast format version %d", version)
	}
	if err := binary.Read(r, binary.BigEndian, &nsCount); err != nil {
		return nil, fmt.Errorf("fixture: read namespace count: %w", err)
	}

	set := make(CollectionSet, nsCount)
	for i := uint32(0); i < nsCount; i++ {
		var nameLen uint32
		if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
			return nil, fmt.Errorf("fixture: read namespace name length: %w", err)
		}
		nameBuf := make([]byte, nameLen)
		if _, err := readFull(r, nameBuf); err != nil {
			return nil, fmt.Errorf("fixture: read namespace name: %w", err)
		}
		ns := string(nameBuf)

		var docCount uint32
		if err := binary.Read(r, binary.BigEndian, &docCount); err != nil {
			return nil, fmt.Errorf("fixture: read doc count for %s: %w", ns, err)
		}
		docs := make([]map[string]any, 0, docCount)
		for j := uint32(0); j < docCount; j++ {
			var docLen uint32
			if err := binary.Read(r, binary.BigEndian, &docLen); err != nil {
				return nil, fmt.Errorf("fixture: read doc length in %s: %w", ns, err)
			}
			docBuf := make([]byte, docLen)
			if _, err := readFull(r, docBuf); err != nil {
				return nil, fmt.Errorf("fixture: read doc payload in %s: %w", ns, err)
			}
			var doc map[string]any
			if err := json.Unmarshal(docBuf, &doc); err != nil {
				return nil, fmt.Errorf("fixture: unmarshal doc in %s: %w", ns, err)
			}
			docs = append(docs, doc)
		}
		set[ns] = docs
	}
	return set, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, fmt.Errorf("unexpected eof")
		}
	}
	return n, nil
}
