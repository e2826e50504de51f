package ports

// Rng is the randomness source injected into the engine and emulator.
// Implementations must be deterministic for a fixed seed so that a run
// is reproducible from (streams, seed) alone.
type Rng interface {
	// Float64 draws uniformly from [0, 1).
	Float64() float64

	// Int64Between draws uniformly from [lo, hi] inclusive.
	Int64Between(lo, hi int64) int64

	// Bool draws true with probability p.
	Bool(p float64) bool
}
