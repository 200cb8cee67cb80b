package ports

import (
	"math/rand"
)

// RNGPort hands out random streams for the randomized stages of an analysis.
// Each call returns a fresh generator owned by the caller, so concurrent
// analyses never share random state.
type RNGPort interface {
	// Stream creates a generator for a named stage of one analysis run
	Stream(runID, stageName string) *rand.Rand
}
