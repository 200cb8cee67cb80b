package rng

import (
	"math/rand"
	"time"

	"insightdash/ports"
)

// SeededAdapter returns reproducible streams derived from a base seed and
// the stage name. The run ID is ignored so that the same table analyzed
// twice with the same seed yields the same clusters.
type SeededAdapter struct {
	BaseSeed int64
}

// NewSeededAdapter creates an adapter for deterministic analyses
func NewSeededAdapter(seed int64) *SeededAdapter {
	return &SeededAdapter{BaseSeed: seed}
}

// Stream creates a deterministic RNG stream for a stage
func (a *SeededAdapter) Stream(runID, stageName string) *rand.Rand {
	return rand.New(rand.NewSource(a.BaseSeed + int64(hashString(stageName))))
}

// EntropyAdapter seeds every stream from the clock and the run ID
type EntropyAdapter struct{}

// Stream creates a fresh, non-reproducible stream
func (EntropyAdapter) Stream(runID, stageName string) *rand.Rand {
	seed := time.Now().UnixNano() + int64(hashString(runID)) + int64(hashString(stageName))
	return rand.New(rand.NewSource(seed))
}

// FromSeed picks the seeded adapter for a non-zero seed and the entropy adapter otherwise
func FromSeed(seed int64) ports.RNGPort {
	if seed == 0 {
		return EntropyAdapter{}
	}
	return NewSeededAdapter(seed)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
