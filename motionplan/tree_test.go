package motionplan

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

// line builds root(0,0) <- a(1,0) <- b(2,0) <- c(3,0).
func line(t *testing.T, index neighborIndex) (*tree, NodeID, NodeID, NodeID) {
	t.Helper()
	tr := newTree(r2.Point{}, index)
	a, err := tr.add(r2.Point{X: 1}, 0)
	test.That(t, err, test.ShouldBeNil)
	b, err := tr.add(r2.Point{X: 2}, a)
	test.That(t, err, test.ShouldBeNil)
	c, err := tr.add(r2.Point{X: 3}, b)
	test.That(t, err, test.ShouldBeNil)
	return tr, a, b, c
}

func TestTreeAdd(t *testing.T) {
	tr, a, b, c := line(t, newLinearIndex())
	test.That(t, tr.size(), test.ShouldEqual, 4)
	test.That(t, tr.node(c).cost, test.ShouldAlmostEqual, 3)
	test.That(t, tr.node(0).children, test.ShouldResemble, []NodeID{a})
	test.That(t, tr.node(b).parent, test.ShouldEqual, a)
	test.That(t, tr.pathTo(c), test.ShouldResemble, []r2.Point{{}, {X: 1}, {X: 2}, {X: 3}})

	_, err := tr.add(r2.Point{X: 9}, 42)
	test.That(t, err, test.ShouldBeError, errUnknownNode)
	checkTreeInvariants(t, tr.liveNodes())
}

func TestTreeReparentPropagatesCost(t *testing.T) {
	tr, a, b, c := line(t, newLinearIndex())
	d, err := tr.add(r2.Point{X: 2, Y: 3}, 0)
	test.That(t, err, test.ShouldBeNil)

	// Moving b under d changes both b and its descendant c.
	test.That(t, tr.reparent(b, d), test.ShouldBeNil)
	test.That(t, tr.node(a).children, test.ShouldBeEmpty)
	test.That(t, tr.node(d).children, test.ShouldResemble, []NodeID{b})
	test.That(t, tr.node(b).cost, test.ShouldAlmostEqual, 3.605551275463989+3)
	test.That(t, tr.node(c).cost, test.ShouldAlmostEqual, tr.node(b).cost+1)
	checkTreeInvariants(t, tr.liveNodes())
}

func TestTreeReparentRejectsCycles(t *testing.T) {
	tr, a, b, c := line(t, newLinearIndex())

	err := tr.reparent(a, c)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cycle")
	test.That(t, tr.reparent(b, b), test.ShouldNotBeNil)
	test.That(t, tr.reparent(0, c), test.ShouldBeError, errRootParent)

	// Nothing moved.
	test.That(t, tr.node(a).parent, test.ShouldEqual, NodeID(0))
	test.That(t, tr.node(b).parent, test.ShouldEqual, a)
	checkTreeInvariants(t, tr.liveNodes())
}

func TestTreeRetire(t *testing.T) {
	for _, index := range []string{LinearNeighborIndex, RTreeNeighborIndex} {
		t.Run(index, func(t *testing.T) {
			tr, _, b, c := line(t, newNeighborIndex(index))

			err := tr.retire(b)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, "children")

			test.That(t, tr.retire(c), test.ShouldBeNil)
			test.That(t, tr.size(), test.ShouldEqual, 3)
			test.That(t, tr.node(b).children, test.ShouldBeEmpty)
			test.That(t, tr.retire(c), test.ShouldBeError, errNodeRetired)
			test.That(t, tr.retire(0), test.ShouldBeError, errRootParent)

			// Retired nodes are invisible to neighbor queries.
			nearest, ok := tr.nearest(r2.Point{X: 3})
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, nearest, test.ShouldEqual, b)
			test.That(t, tr.near(r2.Point{X: 3}, 1.5), test.ShouldResemble, []NodeID{b})

			nodes := tr.liveNodes()
			test.That(t, len(nodes), test.ShouldEqual, 3)
			checkTreeInvariants(t, nodes)

			// IDs are never reused.
			e, err := tr.add(r2.Point{X: 4}, b)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, e, test.ShouldEqual, NodeID(4))
		})
	}
}

func TestTreeMoveChildren(t *testing.T) {
	tr, a, b, _ := line(t, newLinearIndex())
	d, err := tr.add(r2.Point{X: 1, Y: 1}, 0)
	test.That(t, err, test.ShouldBeNil)
	_, err = tr.add(r2.Point{X: 1, Y: -1}, a)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, tr.moveChildren(a, d), test.ShouldBeNil)
	test.That(t, tr.node(a).children, test.ShouldBeEmpty)
	test.That(t, len(tr.node(d).children), test.ShouldEqual, 2)
	test.That(t, tr.node(b).parent, test.ShouldEqual, d)
	test.That(t, tr.retire(a), test.ShouldBeNil)
	checkTreeInvariants(t, tr.liveNodes())
}

func TestPropagateCostsDeepChain(t *testing.T) {
	tr := newTree(r2.Point{}, newLinearIndex())
	parent := NodeID(0)
	for i := 1; i <= 5000; i++ {
		id, err := tr.add(r2.Point{X: float64(i) * 0.01}, parent)
		test.That(t, err, test.ShouldBeNil)
		parent = id
	}
	shortcut, err := tr.add(r2.Point{Y: 1}, 0)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, tr.reparent(1, shortcut), test.ShouldBeNil)
	test.That(t, tr.node(parent).cost, test.ShouldAlmostEqual, 1+1.0000499987500624+49.99, 1e-6)
	checkTreeInvariants(t, tr.liveNodes())
}
