package sim

import "math/rand"

// SeededRNG is a reproducible randomness source over math/rand.
// Two instances built from the same seed produce identical streams.
type SeededRNG struct {
	r *rand.Rand
}

// NewSeededRNG creates a source from an explicit seed.
func NewSeededRNG(seed int64) *SeededRNG {
	return &SeededRNG{r: rand.New(rand.NewSource(seed))}
}

func (s *SeededRNG) Float64() float64 { return s.r.Float64() }

func (s *SeededRNG) Int64Between(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Int63n(hi-lo+1)
}

func (s *SeededRNG) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// ZeroRNG is the deterministic no-randomness source: draws are always
// zero, ranges collapse to their lower bound and probabilistic events
// only fire when certain. Useful for reproducible "no noise" runs.
type ZeroRNG struct{}

func (ZeroRNG) Float64() float64                  { return 0 }
func (ZeroRNG) Int64Between(lo, _ int64) int64    { return lo }
func (ZeroRNG) Bool(p float64) bool               { return p >= 1 }
