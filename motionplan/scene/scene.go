// Package scene describes planning problems: grid size, endpoints, obstacles and planner options.
// Scenes are stored as JSON and rasterized onto an occupancy grid before planning.
package scene

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/gridplan/logging"
	"go.viam.com/gridplan/motionplan"
)

// Rect blocks the cells [X, X+Width) x [Y, Y+Height).
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scene is a complete planning problem.
type Scene struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Start  orb.Point `json:"start"`
	Goal   orb.Point `json:"goal"`

	Rectangles []Rect `json:"rectangles,omitempty"`
	// Polygons block every cell whose center lies inside or on the ring.
	Polygons []orb.Ring `json:"polygons,omitempty"`

	// Planner overrides the default planner options, keyed by their JSON names.
	Planner map[string]interface{} `json:"planner,omitempty"`
}

// ObstacleSetter is anything cells can be blocked on.
type ObstacleSetter interface {
	SetObstacle(x, y int)
}

// Default returns the demonstration scene: a 400x300 grid crossed diagonally, with two blocks,
// an L-shaped wall and a row of thin posts.
func Default() *Scene {
	s := &Scene{
		Width:  400,
		Height: 300,
		Start:  orb.Point{10, 10},
		Goal:   orb.Point{380, 280},
		Rectangles: []Rect{
			{X: 20, Y: 20, Width: 60, Height: 40},
			{X: 120, Y: 80, Width: 60, Height: 60},
			{X: 220, Y: 40, Width: 60, Height: 60},
			{X: 220, Y: 100, Width: 40, Height: 60},
		},
		Planner: map[string]interface{}{
			"step_size":      15.0,
			"search_radius":  30.0,
			"max_iterations": 8000,
		},
	}
	for x := 50; x < 150; x += 20 {
		s.Rectangles = append(s.Rectangles, Rect{X: x, Y: 180, Width: 1, Height: 20})
	}
	return s
}

// Read decodes and validates a JSON scene. Unknown keys are rejected.
func Read(r io.Reader) (*Scene, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	s := &Scene{}
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "failed to decode scene")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads a JSON scene from a file.
func Load(path string) (*Scene, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scene %q", path)
	}
	s, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid scene %q", path)
	}
	return s, nil
}

// Save writes the scene as indented JSON.
func (s *Scene) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	//nolint:gosec
	return os.WriteFile(path, data, 0o644)
}

// Validate returns every problem with the scene combined into a single error.
func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return motionplan.NewInvalidGridSizeError(s.Width, s.Height)
	}

	var errs error
	for i, r := range s.Rectangles {
		if r.Width <= 0 || r.Height <= 0 {
			errs = multierr.Append(errs, errors.Errorf("rectangle %d has non-positive size %dx%d", i, r.Width, r.Height))
		}
	}
	for i, ring := range s.Polygons {
		if len(ring) < 3 {
			errs = multierr.Append(errs, errors.Errorf("polygon %d needs at least 3 points, got %d", i, len(ring)))
		}
	}
	if _, err := s.PlannerOptions(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return errs
	}

	grid, err := motionplan.NewOccupancyGrid(s.Width, s.Height)
	if err != nil {
		return err
	}
	s.Rasterize(grid)
	if grid.IsObstacle(ToR2(s.Start)) {
		errs = multierr.Append(errs, errors.Errorf("start %v is outside the grid or inside an obstacle", s.Start))
	}
	if grid.IsObstacle(ToR2(s.Goal)) {
		errs = multierr.Append(errs, errors.Errorf("goal %v is outside the grid or inside an obstacle", s.Goal))
	}
	return errs
}

// Rasterize blocks every cell covered by the scene's obstacles. Only cells inside the scene's
// width and height are visited.
func (s *Scene) Rasterize(dst ObstacleSetter) {
	for _, r := range s.Rectangles {
		x0, x1 := clipCells(float64(r.X), float64(r.X)+float64(r.Width), s.Width)
		y0, y1 := clipCells(float64(r.Y), float64(r.Y)+float64(r.Height), s.Height)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				dst.SetObstacle(x, y)
			}
		}
	}
	for _, ring := range s.Polygons {
		if len(ring) < 3 {
			continue
		}
		b := ring.Bound()
		x0, x1 := clipCells(math.Floor(b.Min.X()), math.Ceil(b.Max.X())+1, s.Width)
		y0, y1 := clipCells(math.Floor(b.Min.Y()), math.Ceil(b.Max.Y())+1, s.Height)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if planar.RingContains(ring, orb.Point{float64(x) + 0.5, float64(y) + 0.5}) {
					dst.SetObstacle(x, y)
				}
			}
		}
	}
}

// clipCells clamps the half-open cell range [lo, hi) to [0, n). NaN bounds give an empty range.
func clipCells(lo, hi float64, n int) (int, int) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, 0
	}
	lo = math.Max(lo, 0)
	hi = math.Min(hi, float64(n))
	if lo >= hi {
		return 0, 0
	}
	return int(lo), int(hi)
}

// PlannerOptions overlays the scene's planner overrides onto the defaults.
func (s *Scene) PlannerOptions() (*motionplan.PlannerOptions, error) {
	return motionplan.NewPlannerOptionsFromExtra(s.Planner)
}

// NewPlanner builds a planner for the scene with its obstacles already placed.
// A nil randseed defers to the options' seed, or the clock.
func (s *Scene) NewPlanner(randseed *rand.Rand, logger logging.Logger) (*motionplan.RRTStarPlanner, error) {
	opts, err := s.PlannerOptions()
	if err != nil {
		return nil, err
	}
	var mp *motionplan.RRTStarPlanner
	if randseed == nil {
		mp, err = motionplan.NewRRTStarPlanner(s.Width, s.Height, ToR2(s.Start), ToR2(s.Goal), opts, logger)
	} else {
		mp, err = motionplan.NewRRTStarPlannerWithSeed(s.Width, s.Height, ToR2(s.Start), ToR2(s.Goal), opts, randseed, logger)
	}
	if err != nil {
		return nil, err
	}
	s.Rasterize(mp)
	return mp, nil
}

// ToR2 converts an orb point to the planner's point type.
func ToR2(p orb.Point) r2.Point {
	return r2.Point{X: p.X(), Y: p.Y()}
}
