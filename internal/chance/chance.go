// Package chance provides injectable randomness and time so selection and
// timing decisions can be replayed deterministically in tests.
package chance

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness consumed by selection logic.
type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// NewSource returns a Source backed by the runtime's random generator.
func NewSource() Source {
	return globalSource{}
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Pick returns a uniformly chosen element of items. It panics on an empty slice.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Scripted replays fixed draws in order. Once a sequence is exhausted the
// last value repeats; an empty sequence yields zero. IntN results are
// reduced modulo n.
type Scripted struct {
	Floats []float64
	Ints   []int

	floatPos int
	intPos   int
}

// Float64 returns the next scripted float.
func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[min(s.floatPos, len(s.Floats)-1)]
	s.floatPos++
	return v
}

// IntN returns the next scripted int modulo n.
func (s *Scripted) IntN(n int) int {
	if n <= 0 {
		panic("chance: IntN called with n <= 0")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[min(s.intPos, len(s.Ints)-1)]
	s.intPos++
	return ((v % n) + n) % n
}
