package motionplan

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r2"

	"go.viam.com/gridplan/spatialmath"
)

// Path is an ordered polyline from a start point to a goal point.
type Path []r2.Point

// Length returns the sum of the path's segment lengths.
func (p Path) Length() float64 {
	total := 0.
	for i := 1; i < len(p); i++ {
		total += spatialmath.Distance(p[i-1], p[i])
	}
	return total
}

// Empty reports whether the path has no points.
func (p Path) Empty() bool {
	return len(p) == 0
}

func (p Path) String() string {
	var str strings.Builder
	for i, pt := range p {
		if i > 0 {
			str.WriteString(" -> ")
		}
		fmt.Fprintf(&str, "(%.2f, %.2f)", pt.X, pt.Y)
	}
	return str.String()
}
