package scene

import (
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/gridplan/logging"
	"go.viam.com/gridplan/motionplan"
)

func TestDefaultScene(t *testing.T) {
	s := Default()
	test.That(t, s.Validate(), test.ShouldBeNil)

	grid, err := motionplan.NewOccupancyGrid(s.Width, s.Height)
	test.That(t, err, test.ShouldBeNil)
	s.Rasterize(grid)

	// Two blocks, the L-shape and five one-cell-wide posts.
	expected := 60*40 + 60*60 + 60*60 + 40*60 + 5*20
	test.That(t, grid.ObstacleCount(), test.ShouldEqual, expected)
	test.That(t, grid.IsCellObstacle(79, 59), test.ShouldBeTrue)
	test.That(t, grid.IsCellObstacle(80, 59), test.ShouldBeFalse)
	test.That(t, grid.IsCellObstacle(259, 159), test.ShouldBeTrue)
	test.That(t, grid.IsCellObstacle(260, 159), test.ShouldBeFalse)
	test.That(t, grid.IsCellObstacle(130, 190), test.ShouldBeTrue)
	test.That(t, grid.IsCellObstacle(131, 190), test.ShouldBeFalse)
	test.That(t, grid.IsCellObstacle(150, 190), test.ShouldBeFalse)

	opts, err := s.PlannerOptions()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.StepSize, test.ShouldEqual, 15.)
	test.That(t, opts.SearchRadius, test.ShouldEqual, 30.)
	test.That(t, opts.MaxIterations, test.ShouldEqual, 8000)
}

func TestReadScene(t *testing.T) {
	s, err := Read(strings.NewReader(`{
		"width": 50,
		"height": 40,
		"start": [2, 2],
		"goal": [45, 35],
		"rectangles": [{"x": 10, "y": 0, "width": 5, "height": 30}],
		"polygons": [[[20, 10], [30, 10], [25, 20]]],
		"planner": {"max_iterations": 300, "neighbor_index": "rtree"}
	}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Start, test.ShouldResemble, orb.Point{2, 2})
	test.That(t, len(s.Polygons), test.ShouldEqual, 1)

	mp, err := s.NewPlanner(rand.New(rand.NewSource(1)), logging.NewTestLogger(t)) //nolint:gosec
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Options().MaxIterations, test.ShouldEqual, 300)
	test.That(t, mp.Options().NeighborIndex, test.ShouldEqual, motionplan.RTreeNeighborIndex)
	test.That(t, mp.IsObstacle(r2.Point{X: 12, Y: 29.5}), test.ShouldBeTrue)
	test.That(t, mp.IsObstacle(r2.Point{X: 12, Y: 30}), test.ShouldBeFalse)

	// Cells are blocked when their center is inside the triangle.
	test.That(t, mp.IsObstacle(r2.Point{X: 25, Y: 12}), test.ShouldBeTrue)
	test.That(t, mp.IsObstacle(r2.Point{X: 21, Y: 18}), test.ShouldBeFalse)
	test.That(t, mp.IsObstacle(r2.Point{X: 25, Y: 21}), test.ShouldBeFalse)
}

func TestReadSceneErrors(t *testing.T) {
	_, err := Read(strings.NewReader(`{"width": 10, "height": 10, "bogus": 1}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bogus")

	_, err = Read(strings.NewReader(`{"width": 0, "height": 10}`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read(strings.NewReader(`{
		"width": 10, "height": 10,
		"start": [1, 1], "goal": [8, 8],
		"rectangles": [{"x": 1, "y": 1, "width": 0, "height": 3}],
		"polygons": [[[1, 1], [2, 2]]],
		"planner": {"step_size": -1}
	}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 3)

	_, err = Read(strings.NewReader(`{
		"width": 10, "height": 10,
		"start": [1, 1], "goal": [18, 8],
		"rectangles": [{"x": 0, "y": 0, "width": 3, "height": 3}]
	}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "start")
	test.That(t, err.Error(), test.ShouldContainSubstring, "goal")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	test.That(t, Default().Save(path), test.ShouldBeNil)

	loaded, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.Width, test.ShouldEqual, 400)
	test.That(t, loaded.Rectangles, test.ShouldResemble, Default().Rectangles)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDefaultScenePlans(t *testing.T) {
	//nolint:gosec
	mp, err := Default().NewPlanner(rand.New(rand.NewSource(2024)), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.PlanPath(), test.ShouldBeTrue)

	path := mp.SmoothPath(mp.Path())
	test.That(t, path[0], test.ShouldResemble, r2.Point{X: 10, Y: 10})
	test.That(t, path[len(path)-1], test.ShouldResemble, r2.Point{X: 380, Y: 280})
	for i := 1; i < len(path); i++ {
		test.That(t, mp.SegmentFree(path[i-1], path[i]), test.ShouldBeTrue)
	}
}

type cellRecorder struct {
	cells [][2]int
}

func (cr *cellRecorder) SetObstacle(x, y int) {
	cr.cells = append(cr.cells, [2]int{x, y})
}

func TestRasterizeClipsToGrid(t *testing.T) {
	s := &Scene{
		Width:  10,
		Height: 8,
		Rectangles: []Rect{
			{X: -5, Y: 6, Width: math.MaxInt, Height: math.MaxInt},
			{X: 20, Y: 0, Width: 5, Height: 5},
		},
		Polygons: []orb.Ring{
			{{-1e12, -1e12}, {1e12, -1e12}, {1e12, 2}, {-1e12, 2}},
		},
	}
	rec := &cellRecorder{}
	s.Rasterize(rec)

	// Two rows from the rectangle and two from the polygon.
	test.That(t, len(rec.cells), test.ShouldEqual, 4*10)
	for _, c := range rec.cells {
		test.That(t, c[0], test.ShouldBeBetweenOrEqual, 0, 9)
		test.That(t, c[1], test.ShouldBeBetweenOrEqual, 0, 7)
	}

	grid, err := motionplan.NewOccupancyGrid(s.Width, s.Height)
	test.That(t, err, test.ShouldBeNil)
	s.Rasterize(grid)
	test.That(t, grid.IsCellObstacle(0, 7), test.ShouldBeTrue)
	test.That(t, grid.IsCellObstacle(9, 1), test.ShouldBeTrue)
	test.That(t, grid.IsCellObstacle(4, 3), test.ShouldBeFalse)
}
