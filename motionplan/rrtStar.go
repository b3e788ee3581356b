// Package motionplan plans collision free paths across a 2D occupancy grid with RRT*.
package motionplan

import (
	"math/rand"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/gridplan/logging"
	"go.viam.com/gridplan/spatialmath"
)

// PlannerState tracks where a planner is in its lifecycle.
type PlannerState int

// The states a planner moves through. Repeated calls to PlanPath return to StateRunning.
const (
	StateIdle PlannerState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s PlannerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PlanStats are cumulative counters over every PlanPath call on a planner.
type PlanStats struct {
	Iterations        int
	GoalBiasedSamples int
	// Candidates whose segment from the nearest node was blocked.
	CollisionRejections int
	NodesAdded          int
	Rewires             int
	GoalImprovements    int
}

// RRTStarPlanner grows an RRT* tree over an occupancy grid from a start point toward a goal point.
// It is not safe for concurrent use.
type RRTStarPlanner struct {
	grid    *OccupancyGrid
	checker *CollisionChecker
	start   r2.Point
	goal    r2.Point
	opts    *PlannerOptions
	sampler *goalBiasedSampler
	tree    *tree
	logger  logging.Logger

	goalID  NodeID
	hasGoal bool
	state   PlannerState
	stats   PlanStats
}

// NewRRTStarPlanner creates an RRTStarPlanner over an empty width x height grid. Randomness comes
// from opts.RandomSeed when set, and from the clock otherwise.
func NewRRTStarPlanner(
	width, height int,
	start, goal r2.Point,
	opts *PlannerOptions,
	logger logging.Logger,
) (*RRTStarPlanner, error) {
	seed := time.Now().UnixNano()
	if opts != nil && opts.RandomSeed != nil {
		seed = *opts.RandomSeed
	}
	//nolint:gosec
	return NewRRTStarPlannerWithSeed(width, height, start, goal, opts, rand.New(rand.NewSource(seed)), logger)
}

// NewRRTStarPlannerWithSeed creates an RRTStarPlanner drawing samples from the given source.
func NewRRTStarPlannerWithSeed(
	width, height int,
	start, goal r2.Point,
	opts *PlannerOptions,
	randseed *rand.Rand,
	logger logging.Logger,
) (*RRTStarPlanner, error) {
	if randseed == nil {
		return nil, errors.New("a random source is required")
	}
	return newRRTStarPlanner(width, height, start, goal, opts, func(w, h int) Sampler {
		return NewUniformSampler(w, h, randseed)
	}, logger)
}

func newRRTStarPlanner(
	width, height int,
	start, goal r2.Point,
	opts *PlannerOptions,
	newSampler func(width, height int) Sampler,
	logger logging.Logger,
) (*RRTStarPlanner, error) {
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !spatialmath.IsFinite(start) || !spatialmath.IsFinite(goal) {
		return nil, errors.Errorf("start %v and goal %v must have finite coordinates", start, goal)
	}
	grid, err := NewOccupancyGrid(width, height)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("rrtstar")
	}
	if opts.SearchRadius < opts.StepSize {
		logger.Warnw("search radius is smaller than the step size, rewiring will rarely find neighbors",
			"search_radius", opts.SearchRadius, "step_size", opts.StepSize)
	}

	return &RRTStarPlanner{
		grid:    grid,
		checker: NewCollisionChecker(grid, opts.Resolution),
		start:   start,
		goal:    goal,
		opts:    opts,
		sampler: newGoalBiasedSampler(newSampler(width, height), goal, opts.GoalBiasInterval),
		tree:    newTree(start, newNeighborIndex(opts.NeighborIndex)),
		logger:  logger,
		goalID:  NoParent,
		state:   StateIdle,
	}, nil
}

// SetObstacle marks grid cell (x, y) as blocked. Out of range cells are ignored.
// Obstacles added after planning has started are not re-checked against existing edges.
func (mp *RRTStarPlanner) SetObstacle(x, y int) {
	mp.grid.SetObstacle(x, y)
}

// IsObstacle reports whether p lies in a blocked cell or outside the grid.
func (mp *RRTStarPlanner) IsObstacle(p r2.Point) bool {
	return mp.grid.IsObstacle(p)
}

// SegmentFree reports whether the straight segment between from and to avoids all obstacles.
func (mp *RRTStarPlanner) SegmentFree(from, to r2.Point) bool {
	return mp.checker.SegmentFree(from, to)
}

// Grid returns the planner's occupancy grid.
func (mp *RRTStarPlanner) Grid() *OccupancyGrid {
	return mp.grid
}

// Start returns the root point.
func (mp *RRTStarPlanner) Start() r2.Point {
	return mp.start
}

// Goal returns the goal point.
func (mp *RRTStarPlanner) Goal() r2.Point {
	return mp.goal
}

// Options returns the options the planner was built with.
func (mp *RRTStarPlanner) Options() PlannerOptions {
	return *mp.opts
}

// State returns the current lifecycle state.
func (mp *RRTStarPlanner) State() PlannerState {
	return mp.state
}

// Stats returns the cumulative planning counters.
func (mp *RRTStarPlanner) Stats() PlanStats {
	return mp.stats
}

// GoalCost returns the cost of the current goal node, if one exists.
func (mp *RRTStarPlanner) GoalCost() (float64, bool) {
	if !mp.hasGoal {
		return 0, false
	}
	return mp.tree.node(mp.goalID).cost, true
}

// PlanPath runs the configured number of iterations and reports whether the goal is connected.
// It never exits early; once connected, the remaining iterations keep lowering the goal cost.
// Calling it again continues growing the same tree.
func (mp *RRTStarPlanner) PlanPath() bool {
	mp.state = StateRunning
	mp.logger.Infow("starting RRT* planning",
		"start", mp.start, "goal", mp.goal, "max_iterations", mp.opts.MaxIterations, "nodes", mp.tree.size())

	for iter := 0; iter < mp.opts.MaxIterations; iter++ {
		if mp.opts.LoggingInterval > 0 && iter%mp.opts.LoggingInterval == 0 {
			mp.logger.Debugf("iteration %d/%d, %d nodes", iter, mp.opts.MaxIterations, mp.tree.size())
		}
		mp.extend(iter)
		mp.stats.Iterations++
	}

	cost, ok := mp.GoalCost()
	if !ok {
		mp.state = StateFailed
		mp.logger.Infow("RRT* planning failed to reach the goal", "nodes", mp.tree.size(), "iterations", mp.opts.MaxIterations)
		return false
	}
	mp.state = StateSucceeded
	mp.logger.Infow("RRT* planning succeeded", "cost", cost, "nodes", mp.tree.size(), "rewires", mp.stats.Rewires)
	return true
}

// extend performs one sample, steer, insert, rewire and goal-check step.
func (mp *RRTStarPlanner) extend(iter int) {
	target, biased := mp.sampler.sampleAt(iter)
	if biased {
		mp.stats.GoalBiasedSamples++
	}

	nearestID, ok := mp.tree.nearest(target)
	if !ok {
		return
	}
	nearest := mp.tree.node(nearestID)
	candidate := mp.steer(nearest.point, target)
	if !mp.checker.SegmentFree(nearest.point, candidate) {
		mp.stats.CollisionRejections++
		return
	}

	nearIDs := mp.tree.near(candidate, mp.opts.SearchRadius)
	if len(nearIDs) == 0 {
		nearIDs = []NodeID{nearestID}
	}
	bestParent := nearestID
	minCost := nearest.cost + spatialmath.Distance(nearest.point, candidate)
	for _, id := range nearIDs {
		n := mp.tree.node(id)
		cost := n.cost + spatialmath.Distance(n.point, candidate)
		if cost < minCost && mp.checker.SegmentFree(n.point, candidate) {
			minCost = cost
			bestParent = id
		}
	}

	newID, err := mp.tree.add(candidate, bestParent)
	if err != nil {
		mp.logger.Warnw("could not insert node", "error", err)
		return
	}
	mp.stats.NodesAdded++

	mp.rewire(newID, bestParent, nearIDs)
	mp.connectGoal(newID, iter)
}

// steer returns target if it is closer than one step, otherwise the point one step along the way there.
func (mp *RRTStarPlanner) steer(from, target r2.Point) r2.Point {
	if spatialmath.Distance(from, target) < mp.opts.StepSize {
		return target
	}
	return spatialmath.StepToward(from, target, mp.opts.StepSize)
}

// rewire moves each near node under newID when that is collision free and strictly cheaper.
func (mp *RRTStarPlanner) rewire(newID, parentID NodeID, nearIDs []NodeID) {
	newNode := mp.tree.node(newID)
	for _, id := range nearIDs {
		if id == parentID || id == newID {
			continue
		}
		n := mp.tree.node(id)
		if newNode.cost+spatialmath.Distance(newNode.point, n.point) >= n.cost {
			continue
		}
		if !mp.checker.SegmentFree(newNode.point, n.point) {
			continue
		}
		if err := mp.tree.reparent(id, newID); err != nil {
			mp.logger.Warnw("skipping rewire", "node", id, "via", newID, "error", err)
			continue
		}
		mp.stats.Rewires++
	}
}

// connectGoal materializes a goal node under newID when it is within a step of the goal, has a clear
// line to it and beats the current goal cost.
func (mp *RRTStarPlanner) connectGoal(newID NodeID, iter int) {
	newNode := mp.tree.node(newID)
	if spatialmath.Distance(newNode.point, mp.goal) > mp.opts.StepSize {
		return
	}
	if !mp.checker.SegmentFree(newNode.point, mp.goal) {
		return
	}
	cost := newNode.cost + spatialmath.Distance(newNode.point, mp.goal)
	if current, ok := mp.GoalCost(); ok && cost >= current {
		return
	}

	goalID, err := mp.tree.add(mp.goal, newID)
	if err != nil {
		mp.logger.Warnw("could not insert goal node", "error", err)
		return
	}
	if mp.hasGoal {
		mp.replaceGoal(mp.goalID, goalID)
	}
	mp.goalID = goalID
	mp.hasGoal = true
	mp.stats.GoalImprovements++
	mp.logger.Infow("goal connection improved", "iteration", iter, "cost", cost, "nodes", mp.tree.size())
}

// replaceGoal retires the superseded goal node. Anything rewired under it moves to the new goal
// node, which sits at the same point with a lower cost.
func (mp *RRTStarPlanner) replaceGoal(oldID, newID NodeID) {
	if err := mp.tree.moveChildren(oldID, newID); err != nil {
		mp.logger.Warnw("could not move children of the previous goal node", "node", oldID, "error", err)
		return
	}
	if err := mp.tree.retire(oldID); err != nil {
		mp.logger.Warnw("could not retire the previous goal node", "node", oldID, "error", err)
	}
}

// Path returns the points from the start to the goal, or an empty path if the goal is not connected.
func (mp *RRTStarPlanner) Path() Path {
	if !mp.hasGoal {
		return Path{}
	}
	return Path(mp.tree.pathTo(mp.goalID))
}

// Nodes returns snapshots of every live node in insertion order, the root first.
func (mp *RRTStarPlanner) Nodes() []Node {
	return mp.tree.liveNodes()
}

// SmoothPath shortcuts path against this planner's obstacles. See SmoothPath.
func (mp *RRTStarPlanner) SmoothPath(path Path) Path {
	return SmoothPath(mp.checker, path)
}
