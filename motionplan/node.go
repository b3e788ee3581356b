package motionplan

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// NodeID addresses a node in a planner's tree. IDs are assigned in insertion order and never reused.
type NodeID int

// NoParent is the parent of the root node.
const NoParent NodeID = -1

// Node is a read-only snapshot of a tree node.
type Node struct {
	ID       NodeID
	Point    r2.Point
	Parent   NodeID
	Children []NodeID
	Cost     float64
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.Parent == NoParent
}

func (n Node) String() string {
	return fmt.Sprintf("node %d (%.2f, %.2f) parent=%d cost=%.3f", n.ID, n.Point.X, n.Point.Y, n.Parent, n.Cost)
}

// treeNode is the mutable arena entry backing a Node.
type treeNode struct {
	point    r2.Point
	parent   NodeID
	children []NodeID
	cost     float64
	retired  bool
}

func (n *treeNode) removeChild(child NodeID) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}
