package fixture

import (
	"fmt"
	"path/filepath"

	"github.com/midagedev/jongodb-differ/internal/store"
)

func writeFileSHA256(path string, b []byte) (string, error) {
	sha, err := store.WriteFileAtomicSHA256(path, b)
	if err != nil {
		return "", fmt.Errorf("fixture: write %s: %w", path, err)
	}
	return sha, nil
}

func verifySHA256(b []byte, want string) error {
	if !store.VerifySHA256(b, want) {
		return fmt.Errorf("fixture: sha256 mismatch, artifact is corrupt or was tampered with")
	}
	return nil
}

func writeManifest(dir string, m ManifestV1) error {
	b, err := store.CanonicalJSON(m)
	if err != nil {
		return fmt.Errorf("fixture: encode manifest: %w", err)
	}
	return store.WriteFileAtomic(filepath.Join(dir, manifestFileName), b)
}
