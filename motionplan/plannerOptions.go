package motionplan

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// default values for planning options.
const (
	// Maximum distance, in cells, a single extension moves toward a sample.
	defaultStepSize = 10.

	// Radius, in cells, of the neighborhood considered for parent selection and rewiring.
	defaultSearchRadius = 20.

	defaultMaxIterations = 5000

	// Every this many iterations the goal is used as the sample.
	defaultGoalBiasInterval = 10

	// Check segments against the grid every this many cells.
	defaultResolution = 2.0

	// Log progress every this many iterations.
	defaultLoggingInterval = 500
)

// Names of the neighbor index implementations.
const (
	LinearNeighborIndex = "linear"
	RTreeNeighborIndex  = "rtree"
)

// PlannerOptions are the tunables of an RRTStarPlanner.
type PlannerOptions struct {
	StepSize         float64 `json:"step_size"`
	SearchRadius     float64 `json:"search_radius"`
	MaxIterations    int     `json:"max_iterations"`
	GoalBiasInterval int     `json:"goal_bias_interval"` // <= 0 disables goal biasing
	Resolution       float64 `json:"resolution"`
	LoggingInterval  int     `json:"logging_interval"` // <= 0 disables progress logs
	NeighborIndex    string  `json:"neighbor_index"`

	// RandomSeed makes runs reproducible. When nil the planner seeds from the clock.
	RandomSeed *int64 `json:"random_seed,omitempty"`
}

// NewBasicPlannerOptions returns the default options.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		StepSize:         defaultStepSize,
		SearchRadius:     defaultSearchRadius,
		MaxIterations:    defaultMaxIterations,
		GoalBiasInterval: defaultGoalBiasInterval,
		Resolution:       defaultResolution,
		LoggingInterval:  defaultLoggingInterval,
		NeighborIndex:    LinearNeighborIndex,
	}
}

// NewPlannerOptionsFromExtra overlays the keys present in extra onto the defaults.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opts := NewBasicPlannerOptions()
	// convert map to json
	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonString, opts); err != nil {
		return nil, errors.Wrap(err, "invalid planner options")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate returns every problem with the options combined into a single error.
func (p *PlannerOptions) Validate() error {
	var errs error
	if !(p.StepSize > 0) || math.IsInf(p.StepSize, 0) {
		errs = multierr.Append(errs, errors.Errorf("step_size must be positive and finite, got %v", p.StepSize))
	}
	if !(p.SearchRadius >= 0) || math.IsInf(p.SearchRadius, 0) {
		errs = multierr.Append(errs, errors.Errorf("search_radius must be non-negative and finite, got %v", p.SearchRadius))
	}
	if p.MaxIterations <= 0 {
		errs = multierr.Append(errs, errors.Errorf("max_iterations must be positive, got %d", p.MaxIterations))
	}
	if !(p.Resolution > 0) || math.IsInf(p.Resolution, 0) {
		errs = multierr.Append(errs, errors.Errorf("resolution must be positive and finite, got %v", p.Resolution))
	}
	switch p.NeighborIndex {
	case "", LinearNeighborIndex, RTreeNeighborIndex:
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown neighbor_index %q, expected %q or %q",
			p.NeighborIndex, LinearNeighborIndex, RTreeNeighborIndex))
	}
	return errs
}
