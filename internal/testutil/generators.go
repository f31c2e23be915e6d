package testutil

import (
	"math/rand"
)

// RandomBytes returns size bytes from a deterministic seeded source so
// tests are reproducible.
func RandomBytes(seed int64, size int) []byte {
	r := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	data := make([]byte, size)
	r.Read(data)
	return data
}

// PatternBytes returns size bytes of a repeating counter pattern, useful
// when a test failure needs to show which offset diverged.
func PatternBytes(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}
