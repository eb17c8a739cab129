package layout

import "math/rand/v2"

// Jitter yields small random rotations, uniform in [-max, +max] radians.
// A zero max disables rotation. Not safe for concurrent use.
type Jitter struct {
	rng *rand.Rand
	max float64
}

// NewJitter returns a jitter source. A zero seed picks a random one.
func NewJitter(seed uint64, max float64) *Jitter {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Jitter{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		max: max,
	}
}

// Next returns the rotation for the next line.
func (j *Jitter) Next() float64 {
	if j == nil || j.max == 0 {
		return 0
	}
	return (j.rng.Float64()*2 - 1) * j.max
}

func (j *Jitter) Max() float64 {
	if j == nil {
		return 0
	}
	return j.max
}
