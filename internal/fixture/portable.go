package fixture

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/midagedev/jongodb-differ/internal/store"
)

// ndjsonRecord is one line of the portable encoding: a document tagged with
// the namespace it belongs to.
type ndjsonRecord struct {
	NS  string         `json:"ns"`
	Doc map[string]any `json:"doc"`
}

// EncodePortable renders set as gzip-compressed NDJSON, one canonical-JSON
// {ns, doc} record per line. Namespaces are written in sorted order; the
// document order within a namespace is taken from the caller, and the keys
// inside each document are sorted by store.CanonicalJSON. The portable encoding is
// engine- and platform-independent: it is the format Load always falls back
// to.
func EncodePortable(set CollectionSet) ([]byte, error) {
	var buf bytes.Buffer
	for _, ns := range set.SortedNamespaces() {
		for _, doc := range set[ns] {
			line, err := store.CanonicalJSON(ndjsonRecord{NS: ns, Doc: doc})
			if err != nil {
				return nil, fmt.Errorf("fixture: encode portable record for %s: %w", ns, err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
	}
	return store.GzipBytes(buf.Bytes(), 6)
}

// DecodePortable is the inverse of EncodePortable.
func DecodePortable(gz []byte) (CollectionSet, error) {
	raw, err := store.GunzipBytes(gz)
	if err != nil {
		return nil, fmt.Errorf("fixture: gunzip portable artifact: %w", err)
	}
	set := CollectionSet{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec ndjsonRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("fixture: decode portable record: %w", err)
		}
		set[rec.NS] = append(set[rec.NS], rec.Doc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fixture: scan portable artifact: %w", err)
	}
	return set, nil
}
