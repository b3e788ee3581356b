package motionplan

import "github.com/pkg/errors"

var (
	errUnknownNode = errors.New("node is not part of the tree")
	errNodeRetired = errors.New("node has been retired from the tree")
	errRootParent  = errors.New("the root node cannot be re-parented")
)

// NewInvalidGridSizeError is returned when an occupancy grid is requested with a non-positive dimension.
func NewInvalidGridSizeError(width, height int) error {
	return errors.Errorf("grid dimensions must be positive, got %dx%d", width, height)
}

func newCycleError(child, parent NodeID) error {
	return errors.Errorf("re-parenting node %d under node %d would create a cycle", child, parent)
}

func newOrphanError(id NodeID, children int) error {
	return errors.Errorf("cannot retire node %d while it still has %d children", id, children)
}
