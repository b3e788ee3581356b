// Package main plans a path across a scene with RRT* and writes the path, a PNG and optionally GeoJSON.
package main

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/gridplan/logging"
	"go.viam.com/gridplan/motionplan"
	"go.viam.com/gridplan/motionplan/export"
	"go.viam.com/gridplan/motionplan/scene"
)

const (
	successImage = "rrt_star_result.png"
	failureImage = "rrt_star_failed.png"
)

// Arguments for the command.
type Arguments struct {
	Scene      string `flag:"scene,usage=scene JSON file; the built in demo scene when empty"`
	Seed       int    `flag:"seed,usage=random seed; 0 keeps the scene's seed or uses the clock"`
	Index      string `flag:"index,usage=neighbor index: linear or rtree"`
	PathOut    string `flag:"path-out,default=path_coordinates.txt,usage=where to write the smoothed path"`
	ImageDir   string `flag:"image-dir,default=.,usage=directory for the result PNG"`
	GeoJSONOut string `flag:"geojson-out,usage=optional GeoJSON output file"`
	Scale      int    `flag:"scale,default=2,usage=pixels per grid cell in the PNG"`
	NoTree     bool   `flag:"no-tree,usage=leave the search tree out of the PNG"`
	Smooth     string `flag:"smooth,usage=smooth an existing path file against the scene instead of planning"`
	LogLevel   string `flag:"log-level,default=info,usage=debug info warn or error"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logging.NewLogger("gridplan"))
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	level, err := logging.LevelFromString(argsParsed.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	s, err := loadScene(argsParsed)
	if err != nil {
		return err
	}
	mp, err := s.NewPlanner(nil, logger)
	if err != nil {
		return errors.Wrap(err, "cannot build planner")
	}

	if argsParsed.Smooth != "" {
		return smoothFile(mp, argsParsed, logger)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return plan(mp, argsParsed, logger)
}

func loadScene(argsParsed Arguments) (*scene.Scene, error) {
	s := scene.Default()
	if argsParsed.Scene != "" {
		var err error
		if s, err = scene.Load(argsParsed.Scene); err != nil {
			return nil, errors.Wrapf(err, "cannot load scene %q", argsParsed.Scene)
		}
	}
	if s.Planner == nil {
		s.Planner = map[string]interface{}{}
	}
	if argsParsed.Seed != 0 {
		s.Planner["random_seed"] = argsParsed.Seed
	}
	if argsParsed.Index != "" {
		s.Planner["neighbor_index"] = argsParsed.Index
	}
	return s, nil
}

func plan(mp *motionplan.RRTStarPlanner, argsParsed Arguments, logger logging.Logger) error {
	renderOpts := export.RenderOptions{Scale: argsParsed.Scale, DrawTree: !argsParsed.NoTree}

	if !mp.PlanPath() {
		imagePath := filepath.Join(argsParsed.ImageDir, failureImage)
		if err := export.SavePNG(imagePath, mp, nil, renderOpts); err != nil {
			return err
		}
		logger.Infow("failed to find path",
			"iterations", mp.Options().MaxIterations, "nodes", len(mp.Nodes()), "image", imagePath)
		return nil
	}

	raw := mp.Path()
	smoothed := mp.SmoothPath(raw)
	cost, _ := mp.GoalCost()
	logger.Infow("path found",
		"cost", cost,
		"waypoints", len(raw),
		"length", raw.Length(),
		"smoothed_waypoints", len(smoothed),
		"smoothed_length", smoothed.Length(),
	)
	logger.Debugf("smoothed path: %s", smoothed)

	if err := export.SavePath(argsParsed.PathOut, smoothed); err != nil {
		return errors.Wrap(err, "cannot save path")
	}
	imagePath := filepath.Join(argsParsed.ImageDir, successImage)
	if err := export.SavePNG(imagePath, mp, smoothed, renderOpts); err != nil {
		return errors.Wrap(err, "cannot save image")
	}
	if argsParsed.GeoJSONOut != "" {
		if err := export.SaveGeoJSON(argsParsed.GeoJSONOut, mp,
			export.NamedPath{Name: "raw", Path: raw},
			export.NamedPath{Name: "smoothed", Path: smoothed},
		); err != nil {
			return errors.Wrap(err, "cannot save geojson")
		}
	}
	logger.Infow("wrote results", "path", argsParsed.PathOut, "image", imagePath)
	return nil
}

func smoothFile(mp *motionplan.RRTStarPlanner, argsParsed Arguments, logger logging.Logger) error {
	path, err := export.LoadPath(argsParsed.Smooth)
	if err != nil {
		return errors.Wrapf(err, "cannot read path %q", argsParsed.Smooth)
	}
	smoothed := mp.SmoothPath(path)
	logger.Infow("smoothed path", "waypoints", len(path), "smoothed_waypoints", len(smoothed))
	return export.SavePath(argsParsed.PathOut, smoothed)
}
