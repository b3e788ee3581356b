package motionplan

import (
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r2"
	"go.viam.com/utils"

	"go.viam.com/gridplan/spatialmath"
)

// Below this many nodes a nearest query scans on the calling goroutine.
const neighborsBeforeParallelization = 1000

const (
	// Half-width of the box each point occupies in the r-tree.
	rtreePointTolerance = 1e-9
	// Padding added to query boxes so boundary points are never lost to rounding.
	rtreeQueryPadding = 1e-6
)

// neighborIndex answers spatial queries over the live nodes of a tree.
// nearest returns the live node with the smallest distance to p, preferring the lowest NodeID on ties.
// near returns every live node within radius of p, inclusive, in ascending NodeID order.
type neighborIndex interface {
	insert(id NodeID, p r2.Point)
	remove(id NodeID, p r2.Point)
	nearest(t *tree, p r2.Point) (NodeID, bool)
	near(t *tree, p r2.Point, radius float64) []NodeID
}

func newNeighborIndex(kind string) neighborIndex {
	if kind == RTreeNeighborIndex {
		return newRTreeIndex()
	}
	return newLinearIndex()
}

type neighbor struct {
	dist float64
	id   NodeID
}

// linearIndex scans the arena directly. Large trees are split into contiguous chunks scanned in parallel.
type linearIndex struct {
	nCPU int
}

func newLinearIndex() *linearIndex {
	return &linearIndex{nCPU: runtime.NumCPU()}
}

func (li *linearIndex) insert(NodeID, r2.Point) {}

func (li *linearIndex) remove(NodeID, r2.Point) {}

func (li *linearIndex) nearest(t *tree, p r2.Point) (NodeID, bool) {
	var best neighbor
	if len(t.nodes) > neighborsBeforeParallelization && li.nCPU > 1 {
		best = li.parallelNearest(t, p)
	} else {
		best = scanNearest(t, p, 0, len(t.nodes))
	}
	if best.id == NoParent {
		return NoParent, false
	}
	return best.id, true
}

// scanNearest returns the closest live node among IDs [lo, hi). The strict comparison keeps the
// earliest node on ties.
func scanNearest(t *tree, p r2.Point, lo, hi int) neighbor {
	best := neighbor{dist: math.Inf(1), id: NoParent}
	for i := lo; i < hi; i++ {
		n := t.nodes[i]
		if n.retired {
			continue
		}
		if dist := spatialmath.Distance(n.point, p); dist < best.dist {
			best = neighbor{dist: dist, id: NodeID(i)}
		}
	}
	return best
}

func (li *linearIndex) parallelNearest(t *tree, p r2.Point) neighbor {
	total := len(t.nodes)
	chunk := (total + li.nCPU - 1) / li.nCPU
	results := make([]neighbor, li.nCPU)

	var wg sync.WaitGroup
	for w := 0; w < li.nCPU; w++ {
		w := w
		lo, hi := w*chunk, min((w+1)*chunk, total)
		results[w] = neighbor{dist: math.Inf(1), id: NoParent}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			results[w] = scanNearest(t, p, lo, hi)
		})
	}
	wg.Wait()

	// Chunks are merged in ID order so ties still resolve to the earliest node.
	best := neighbor{dist: math.Inf(1), id: NoParent}
	for _, r := range results {
		if r.id != NoParent && r.dist < best.dist {
			best = r
		}
	}
	return best
}

func (li *linearIndex) near(t *tree, p r2.Point, radius float64) []NodeID {
	var ids []NodeID
	for i, n := range t.nodes {
		if n.retired {
			continue
		}
		if spatialmath.Distance(n.point, p) <= radius {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// indexedPoint is the rtreego.Spatial stored for each node.
type indexedPoint struct {
	id     NodeID
	bounds rtreego.Rect
}

func (ip *indexedPoint) Bounds() rtreego.Rect {
	return ip.bounds
}

// rtreeIndex answers queries from an R-tree, then filters candidates with exact distances so its
// answers match linearIndex.
type rtreeIndex struct {
	rt      *rtreego.Rtree
	entries map[NodeID]*indexedPoint
}

func newRTreeIndex() *rtreeIndex {
	return &rtreeIndex{
		rt:      rtreego.NewTree(2, 25, 50),
		entries: map[NodeID]*indexedPoint{},
	}
}

func (ri *rtreeIndex) insert(id NodeID, p r2.Point) {
	entry := &indexedPoint{id: id, bounds: rtreego.Point{p.X, p.Y}.ToRect(rtreePointTolerance)}
	ri.entries[id] = entry
	ri.rt.Insert(entry)
}

func (ri *rtreeIndex) remove(id NodeID, _ r2.Point) {
	entry, ok := ri.entries[id]
	if !ok {
		return
	}
	ri.rt.Delete(entry)
	delete(ri.entries, id)
}

// candidates returns the IDs of entries whose boxes intersect the square of half-width halfWidth around p.
func (ri *rtreeIndex) candidates(p r2.Point, halfWidth float64) []NodeID {
	box := rtreego.Point{p.X, p.Y}.ToRect(halfWidth + rtreeQueryPadding)
	found := ri.rt.SearchIntersect(box)
	ids := make([]NodeID, 0, len(found))
	for _, s := range found {
		ids = append(ids, s.(*indexedPoint).id)
	}
	slices.Sort(ids)
	return ids
}

func (ri *rtreeIndex) nearest(t *tree, p r2.Point) (NodeID, bool) {
	if ri.rt.Size() == 0 {
		return NoParent, false
	}
	guess, ok := ri.rt.NearestNeighbor(rtreego.Point{p.X, p.Y}).(*indexedPoint)
	if !ok {
		return NoParent, false
	}
	// Anything at least as close as the guess lies inside this box. Scanning it in ID order
	// applies the same tie-break as a linear scan.
	bound := spatialmath.Distance(t.nodes[guess.id].point, p)
	best := neighbor{dist: math.Inf(1), id: NoParent}
	for _, id := range ri.candidates(p, bound) {
		if dist := spatialmath.Distance(t.nodes[id].point, p); dist < best.dist {
			best = neighbor{dist: dist, id: id}
		}
	}
	return best.id, best.id != NoParent
}

func (ri *rtreeIndex) near(t *tree, p r2.Point, radius float64) []NodeID {
	if radius < 0 || math.IsNaN(radius) {
		return nil
	}
	var ids []NodeID
	for _, id := range ri.candidates(p, radius) {
		if spatialmath.Distance(t.nodes[id].point, p) <= radius {
			ids = append(ids, id)
		}
	}
	return ids
}
