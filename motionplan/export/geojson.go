package export

import (
	"os"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"

	"go.viam.com/gridplan/motionplan"
)

// PlanView is the read-only surface of a planner that exporters draw from.
type PlanView interface {
	Grid() *motionplan.OccupancyGrid
	Nodes() []motionplan.Node
	Start() r2.Point
	Goal() r2.Point
}

// NamedPath labels a path in exported output, e.g. "raw" or "smoothed".
type NamedPath struct {
	Name string
	Path motionplan.Path
}

// cellRun is a horizontal run of blocked cells [x0, x1) on row y.
type cellRun struct {
	y, x0, x1 int
}

func obstacleRuns(grid *motionplan.OccupancyGrid) []cellRun {
	var runs []cellRun
	for y := 0; y < grid.Height(); y++ {
		x := 0
		for x < grid.Width() {
			if !grid.IsCellObstacle(x, y) {
				x++
				continue
			}
			start := x
			for x < grid.Width() && grid.IsCellObstacle(x, y) {
				x++
			}
			runs = append(runs, cellRun{y: y, x0: start, x1: x})
		}
	}
	return runs
}

func toOrb(p r2.Point) orb.Point {
	return orb.Point{p.X, p.Y}
}

func toLineString(path motionplan.Path) orb.LineString {
	return lo.Map(path, func(p r2.Point, _ int) orb.Point {
		return toOrb(p)
	})
}

// FeatureCollection describes a planning run in grid coordinates: blocked cells, tree edges,
// the start and goal, and any number of named paths.
func FeatureCollection(view PlanView, paths ...NamedPath) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	grid := view.Grid()
	obstacles := orb.MultiPolygon(lo.Map(obstacleRuns(grid), func(run cellRun, _ int) orb.Polygon {
		b := orb.Bound{
			Min: orb.Point{float64(run.x0), float64(run.y)},
			Max: orb.Point{float64(run.x1), float64(run.y + 1)},
		}
		return b.ToPolygon()
	}))
	obstacleFeature := geojson.NewFeature(obstacles)
	obstacleFeature.Properties["kind"] = "obstacles"
	obstacleFeature.Properties["width"] = grid.Width()
	obstacleFeature.Properties["height"] = grid.Height()
	obstacleFeature.Properties["cells"] = grid.ObstacleCount()
	fc.Append(obstacleFeature)

	nodes := view.Nodes()
	byID := lo.KeyBy(nodes, func(n motionplan.Node) motionplan.NodeID {
		return n.ID
	})
	edges := lo.Map(lo.Filter(nodes, func(n motionplan.Node, _ int) bool {
		return !n.IsRoot()
	}), func(n motionplan.Node, _ int) orb.LineString {
		return orb.LineString{toOrb(byID[n.Parent].Point), toOrb(n.Point)}
	})
	treeFeature := geojson.NewFeature(orb.MultiLineString(edges))
	treeFeature.Properties["kind"] = "tree"
	treeFeature.Properties["nodes"] = len(nodes)
	fc.Append(treeFeature)

	for _, endpoint := range []struct {
		kind string
		p    r2.Point
	}{{"start", view.Start()}, {"goal", view.Goal()}} {
		f := geojson.NewFeature(toOrb(endpoint.p))
		f.Properties["kind"] = endpoint.kind
		fc.Append(f)
	}

	for _, np := range paths {
		if len(np.Path) == 0 {
			continue
		}
		f := geojson.NewFeature(toLineString(np.Path))
		f.Properties["kind"] = "path"
		f.Properties["name"] = np.Name
		f.Properties["points"] = len(np.Path)
		f.Properties["length"] = np.Path.Length()
		fc.Append(f)
	}
	return fc
}

// SaveGeoJSON writes FeatureCollection(view, paths...) to filename.
func SaveGeoJSON(filename string, view PlanView, paths ...NamedPath) error {
	data, err := FeatureCollection(view, paths...).MarshalJSON()
	if err != nil {
		return err
	}
	//nolint:gosec
	return os.WriteFile(filename, data, 0o644)
}
