// Package spatialmath defines the planar geometry used by the grid planner.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

const defaultPointEpsilon = 1e-8

// Distance returns the Euclidean distance between two points.
func Distance(from, to r2.Point) float64 {
	return to.Sub(from).Norm()
}

// Interpolate returns the point a fraction by of the way along the segment from start to end.
// by = 0 returns start exactly and by = 1 returns end exactly.
func Interpolate(start, end r2.Point, by float64) r2.Point {
	switch by {
	case 0:
		return start
	case 1:
		return end
	}
	return r2.Point{
		X: start.X + by*(end.X-start.X),
		Y: start.Y + by*(end.Y-start.Y),
	}
}

// StepToward returns the point stepSize along the bearing from `from` toward `to`.
func StepToward(from, to r2.Point, stepSize float64) r2.Point {
	theta := math.Atan2(to.Y-from.Y, to.X-from.X)
	return r2.Point{
		X: from.X + stepSize*math.Cos(theta),
		Y: from.Y + stepSize*math.Sin(theta),
	}
}

// PointAlmostEqual returns whether two points are within epsilon of each other on both axes.
func PointAlmostEqual(a, b r2.Point, epsilon ...float64) bool {
	eps := defaultPointEpsilon
	if len(epsilon) > 0 {
		eps = epsilon[0]
	}
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

// IsFinite reports whether neither coordinate is NaN or infinite.
func IsFinite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
