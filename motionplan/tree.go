package motionplan

import (
	"slices"

	"github.com/golang/geo/r2"

	"go.viam.com/gridplan/spatialmath"
)

// tree is an arena of nodes addressed by NodeID. Retired nodes keep their slot so IDs stay stable,
// but they are unlinked from their parent and invisible to neighbor queries.
type tree struct {
	nodes []*treeNode
	live  int
	index neighborIndex
}

func newTree(root r2.Point, index neighborIndex) *tree {
	t := &tree{index: index}
	t.nodes = append(t.nodes, &treeNode{point: root, parent: NoParent})
	t.live = 1
	index.insert(0, root)
	return t
}

// node returns the arena entry for id, or nil if id was never allocated.
func (t *tree) node(id NodeID) *treeNode {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *tree) liveNode(id NodeID) (*treeNode, error) {
	n := t.node(id)
	if n == nil {
		return nil, errUnknownNode
	}
	if n.retired {
		return nil, errNodeRetired
	}
	return n, nil
}

// size returns the number of live nodes.
func (t *tree) size() int {
	return t.live
}

// add appends a node at point under parent, with cost derived from the parent.
func (t *tree) add(point r2.Point, parent NodeID) (NodeID, error) {
	p, err := t.liveNode(parent)
	if err != nil {
		return NoParent, err
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &treeNode{
		point:  point,
		parent: parent,
		cost:   p.cost + spatialmath.Distance(p.point, point),
	})
	p.children = append(p.children, id)
	t.live++
	t.index.insert(id, point)
	return id, nil
}

func (t *tree) nearest(p r2.Point) (NodeID, bool) {
	return t.index.nearest(t, p)
}

func (t *tree) near(p r2.Point, radius float64) []NodeID {
	return t.index.near(t, p, radius)
}

// isAncestor reports whether ancestor lies on the parent chain of id, id itself included.
func (t *tree) isAncestor(ancestor, id NodeID) bool {
	for steps := 0; id != NoParent && steps <= len(t.nodes); steps++ {
		if id == ancestor {
			return true
		}
		id = t.nodes[id].parent
	}
	return false
}

// reparent moves id under newParent, recomputes its cost from the new parent and pushes the
// change down its subtree. It refuses moves that would put a node under its own descendant.
func (t *tree) reparent(id, newParent NodeID) error {
	n, err := t.liveNode(id)
	if err != nil {
		return err
	}
	p, err := t.liveNode(newParent)
	if err != nil {
		return err
	}
	if n.parent == NoParent {
		return errRootParent
	}
	if t.isAncestor(id, newParent) {
		return newCycleError(id, newParent)
	}

	t.nodes[n.parent].removeChild(id)
	n.parent = newParent
	p.children = append(p.children, id)
	n.cost = p.cost + spatialmath.Distance(p.point, n.point)
	t.propagateCosts(id)
	return nil
}

// propagateCosts recomputes the cost of every descendant of id from its parent, top-down.
// A stack is used so arbitrarily deep subtrees do not grow the goroutine stack.
func (t *tree) propagateCosts(id NodeID) {
	stack := slices.Clone(t.nodes[id].children)
	for len(stack) > 0 {
		childID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		child := t.nodes[childID]
		parent := t.nodes[child.parent]
		child.cost = parent.cost + spatialmath.Distance(parent.point, child.point)
		stack = append(stack, child.children...)
	}
}

// moveChildren re-parents every child of from under to.
func (t *tree) moveChildren(from, to NodeID) error {
	n, err := t.liveNode(from)
	if err != nil {
		return err
	}
	for _, child := range slices.Clone(n.children) {
		if err := t.reparent(child, to); err != nil {
			return err
		}
	}
	return nil
}

// retire detaches a childless node from its parent and removes it from neighbor queries.
func (t *tree) retire(id NodeID) error {
	n, err := t.liveNode(id)
	if err != nil {
		return err
	}
	if n.parent == NoParent {
		return errRootParent
	}
	if len(n.children) > 0 {
		return newOrphanError(id, len(n.children))
	}
	t.nodes[n.parent].removeChild(id)
	n.parent = NoParent
	n.retired = true
	t.live--
	t.index.remove(id, n.point)
	return nil
}

// pathTo returns the points from the root to id.
func (t *tree) pathTo(id NodeID) []r2.Point {
	var reversed []r2.Point
	for steps := 0; id != NoParent && steps <= len(t.nodes); steps++ {
		reversed = append(reversed, t.nodes[id].point)
		id = t.nodes[id].parent
	}
	slices.Reverse(reversed)
	return reversed
}

func (t *tree) snapshot(id NodeID) Node {
	n := t.nodes[id]
	return Node{
		ID:       id,
		Point:    n.point,
		Parent:   n.parent,
		Children: slices.Clone(n.children),
		Cost:     n.cost,
	}
}

// liveNodes returns snapshots of every live node in insertion order.
func (t *tree) liveNodes() []Node {
	out := make([]Node, 0, t.live)
	for i, n := range t.nodes {
		if n.retired {
			continue
		}
		out = append(out, t.snapshot(NodeID(i)))
	}
	return out
}
