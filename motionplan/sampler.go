package motionplan

import (
	"math/rand"

	"github.com/golang/geo/r2"
)

// Dividing by 2^53 over [0, 2^53] yields every float64 multiple of 2^-53 in [0, 1], endpoints included.
const inclusiveUnitDenominator = 1 << 53

// Sampler produces candidate points for tree expansion.
type Sampler interface {
	Sample() r2.Point
}

type uniformSampler struct {
	width    float64
	height   float64
	randseed *rand.Rand
}

// NewUniformSampler returns a Sampler drawing points uniformly from [0, width] x [0, height].
// Both bounds are inclusive, so a sample may land on x == width, which the grid treats as an obstacle.
func NewUniformSampler(width, height int, randseed *rand.Rand) Sampler {
	return &uniformSampler{
		width:    float64(width),
		height:   float64(height),
		randseed: randseed,
	}
}

func (us *uniformSampler) Sample() r2.Point {
	return r2.Point{
		X: us.unitInclusive() * us.width,
		Y: us.unitInclusive() * us.height,
	}
}

func (us *uniformSampler) unitInclusive() float64 {
	return float64(us.randseed.Int63n(inclusiveUnitDenominator+1)) / inclusiveUnitDenominator
}

// goalBiasedSampler substitutes the goal for the underlying sampler on every interval-th iteration
// after the first. The underlying sampler is not consulted on those iterations.
type goalBiasedSampler struct {
	Sampler
	goal     r2.Point
	interval int
}

func newGoalBiasedSampler(sampler Sampler, goal r2.Point, interval int) *goalBiasedSampler {
	return &goalBiasedSampler{Sampler: sampler, goal: goal, interval: interval}
}

// sampleAt returns the sample for iteration iter and whether it was the goal bias.
func (gs *goalBiasedSampler) sampleAt(iter int) (r2.Point, bool) {
	if gs.interval > 0 && iter > 0 && iter%gs.interval == 0 {
		return gs.goal, true
	}
	return gs.Sample(), false
}
