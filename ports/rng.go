package ports

// RandomStateManager builds the random state for one simulation run.
// Implementations must derive every path's draw from (seed, path index)
// alone, so paths can be evaluated in any order or concurrently.
type RandomStateManager interface {
	// Init creates a fresh state for numPaths independent streams.
	// Fails with INVALID_ARGUMENT when numPaths <= 0.
	Init(seed uint64, numPaths int) (RNGState, error)
}

// RNGState is the per-run random state. It is owned by a single run and
// discarded after the aggregate is computed.
type RNGState interface {
	// NumPaths returns the number of streams the state was built for
	NumPaths() int

	// Stream returns a cursor for one worker. Cursors are not safe for
	// concurrent use; each worker takes its own.
	Stream() NormalStream
}

// NormalStream draws the standard normal variate of a path
type NormalStream interface {
	// Draw returns the variate for path i. The value depends only on the
	// state's seed and i, never on earlier calls.
	Draw(i int) float64
}
