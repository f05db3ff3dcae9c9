// Package rng provides counter-indexed random streams for Monte Carlo paths.
//
// Every path index owns its own PCG stream whose state is derived from the
// run seed and the index with a SplitMix64 finalizer. A draw is therefore a
// pure function of (seed, index): workers can evaluate any subset of paths
// in any order, concurrently, without sharing generator state or locking.
package rng

import (
	"fmt"
	"math/rand/v2"

	"mcprice/internal/errors"
	"mcprice/ports"
)

// DefaultSeed is the seed used when none is configured
const DefaultSeed uint64 = 0xdead5eed

const golden = 0x9e3779b97f4a7c15

// Mix is the SplitMix64 finalizer. Small input changes flip about half of the
// output bits, which keeps adjacent path indices on unrelated PCG states.
func Mix(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// deriveStream mixes the run key and a path index into the low PCG word
func deriveStream(key uint64, index uint64) uint64 {
	return Mix(key ^ (index + golden))
}

// Manager implements ports.RandomStateManager with PCG streams
type Manager struct{}

// NewManager creates a stream manager
func NewManager() *Manager {
	return &Manager{}
}

// Init builds the random state of one run
func (m *Manager) Init(seed uint64, numPaths int) (ports.RNGState, error) {
	if numPaths <= 0 {
		return nil, errors.InvalidArgument("numPaths must be > 0, got %d", numPaths)
	}
	return &State{key: Mix(seed), numPaths: numPaths}, nil
}

// State is the per-run random state: a run key and the number of streams
type State struct {
	key      uint64
	numPaths int
}

// NumPaths returns the number of streams
func (s *State) NumPaths() int {
	return s.numPaths
}

// Stream returns a worker-local cursor
func (s *State) Stream() ports.NormalStream {
	pcg := rand.NewPCG(0, 0)
	return &Stream{
		key:      s.key,
		numPaths: s.numPaths,
		pcg:      pcg,
		rng:      rand.New(pcg),
	}
}

// Stream re-seeds one PCG per draw so that the cursor carries no history
// between paths. Not safe for concurrent use.
type Stream struct {
	key      uint64
	numPaths int
	pcg      *rand.PCG
	rng      *rand.Rand
}

// Draw returns the standard normal variate of path i. Indices outside the
// state's range are a programming error: executors guard them before drawing.
func (c *Stream) Draw(i int) float64 {
	if i < 0 || i >= c.numPaths {
		panic(fmt.Sprintf("rng: path index %d out of range [0, %d)", i, c.numPaths))
	}
	c.pcg.Seed(c.key, deriveStream(c.key, uint64(i)))
	return c.rng.NormFloat64()
}
