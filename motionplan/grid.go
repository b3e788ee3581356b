package motionplan

import (
	"math"

	"github.com/golang/geo/r2"
)

// OccupancyGrid is a width x height lattice of cells that are either free or blocked.
// Cell (x, y) covers [x, x+1) x [y, y+1).
type OccupancyGrid struct {
	width  int
	height int
	cells  []bool
}

// NewOccupancyGrid returns an obstacle free grid of the given dimensions.
func NewOccupancyGrid(width, height int) (*OccupancyGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, NewInvalidGridSizeError(width, height)
	}
	return &OccupancyGrid{
		width:  width,
		height: height,
		cells:  make([]bool, width*height),
	}, nil
}

// Width returns the number of cells along x.
func (g *OccupancyGrid) Width() int {
	return g.width
}

// Height returns the number of cells along y.
func (g *OccupancyGrid) Height() int {
	return g.height
}

func (g *OccupancyGrid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// SetObstacle marks cell (x, y) as blocked. Out of range cells are ignored.
func (g *OccupancyGrid) SetObstacle(x, y int) {
	if !g.inBounds(x, y) {
		return
	}
	g.cells[y*g.width+x] = true
}

// SetRectangle blocks every cell in [minX, maxX) x [minY, maxY), clipped to the grid.
func (g *OccupancyGrid) SetRectangle(minX, minY, maxX, maxY int) {
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, g.width), min(maxY, g.height)
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			g.cells[y*g.width+x] = true
		}
	}
}

// IsCellObstacle reports whether cell (x, y) is blocked. Cells outside the grid are blocked.
func (g *OccupancyGrid) IsCellObstacle(x, y int) bool {
	if !g.inBounds(x, y) {
		return true
	}
	return g.cells[y*g.width+x]
}

// IsObstacle reports whether the cell containing p is blocked. Any point outside
// [0, width) x [0, height), including NaN coordinates, is treated as an obstacle.
func (g *OccupancyGrid) IsObstacle(p r2.Point) bool {
	if !(p.X >= 0 && p.X < float64(g.width) && p.Y >= 0 && p.Y < float64(g.height)) {
		return true
	}
	return g.cells[int(math.Trunc(p.Y))*g.width+int(math.Trunc(p.X))]
}

// ObstacleCount returns the number of blocked cells.
func (g *OccupancyGrid) ObstacleCount() int {
	count := 0
	for _, blocked := range g.cells {
		if blocked {
			count++
		}
	}
	return count
}
