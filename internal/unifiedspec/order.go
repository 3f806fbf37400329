package unifiedspec

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"sort"
)

// SeedFromString derives §4.5's stable 64-bit PRNG seed: SHA-256 of the seed
// string, truncated to its first 8 bytes, read little-endian.
func SeedFromString(seed string) uint64 {
	sum := sha256.Sum256([]byte(seed))
	return binary.LittleEndian.Uint64(sum[:8])
}

// DeterministicOrder sorts items by CaseID, then Fisher-Yates shuffles them
// with a PRNG seeded from seed string, giving a reproducible run order
// across machines for a given seed.
func DeterministicOrder(items []ImportedScenario, seed string) []ImportedScenario {
	sorted := append([]ImportedScenario(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CaseID < sorted[j].CaseID })

	rng := rand.New(rand.NewSource(int64(SeedFromString(seed))))
	for i := len(sorted) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return sorted
}
