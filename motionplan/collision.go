package motionplan

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/gridplan/spatialmath"
)

// SegmentChecker reports whether the straight segment between two points avoids all obstacles.
type SegmentChecker interface {
	SegmentFree(from, to r2.Point) bool
}

// CollisionChecker tests segments against an OccupancyGrid by sampling evenly spaced points along them.
type CollisionChecker struct {
	grid       *OccupancyGrid
	resolution float64
}

// NewCollisionChecker returns a checker over grid. A non-positive resolution selects the default of 2 cells.
func NewCollisionChecker(grid *OccupancyGrid, resolution float64) *CollisionChecker {
	if resolution <= 0 || math.IsNaN(resolution) {
		resolution = defaultResolution
	}
	return &CollisionChecker{grid: grid, resolution: resolution}
}

// SegmentStepCount returns the number of intervals a segment is divided into when checked.
// There is always at least one, so a zero-length segment still checks its point.
func SegmentStepCount(from, to r2.Point, resolution float64) int {
	steps := int(math.Round(spatialmath.Distance(from, to) / resolution))
	return max(steps, 1)
}

// SegmentFree samples from, to and every point at from + (i/steps)(to - from) between them,
// and reports whether none of those points land in an obstacle or outside the grid.
// This can miss obstacles narrower than the sampling spacing.
func (cc *CollisionChecker) SegmentFree(from, to r2.Point) bool {
	steps := SegmentStepCount(from, to, cc.resolution)
	for i := 0; i <= steps; i++ {
		pt := spatialmath.Interpolate(from, to, float64(i)/float64(steps))
		if cc.grid.IsObstacle(pt) {
			return false
		}
	}
	return true
}
