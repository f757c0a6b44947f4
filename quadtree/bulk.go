package quadtree

import (
	"math"
	"sort"
	"sync"
)

// computeBoundsRange reduces the morton points of items to axis extrema.
// Implemented as four independent min/max trackers — see DESIGN.md for
// why this deliberately does not reproduce the source's maxX/maxY
// conflation that spec §9 flags as a bug to fix, not preserve.
func computeBoundsRange(items []Item, shape ShapePolicy) (minX, minY, maxX, maxY float32) {
	minX, minY = math.MaxFloat32, math.MaxFloat32
	maxX, maxY = -math.MaxFloat32, -math.MaxFloat32
	for _, it := range items {
		p := shape.MortonPoint(it)
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return
}

// computeBounds is computeBoundsRange, optionally fanned out across
// threadLevel workers with a mutex-guarded reduction, matching the
// goroutine/sync.WaitGroup fan-out idiom used for mass inserts.
func computeBounds(items []Item, shape ShapePolicy, threadLevel int) (minX, minY, maxX, maxY float32) {
	if threadLevel <= 0 || len(items) < 4 {
		return computeBoundsRange(items, shape)
	}
	parts := 4
	if parts > len(items) {
		parts = len(items)
	}
	chunk := (len(items) + parts - 1) / parts
	minX, minY = math.MaxFloat32, math.MaxFloat32
	maxX, maxY = -math.MaxFloat32, -math.MaxFloat32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < parts; i++ {
		start := i * chunk
		if start >= len(items) {
			break
		}
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}
		wg.Add(1)
		go func(slice []Item) {
			defer wg.Done()
			lMinX, lMinY, lMaxX, lMaxY := computeBoundsRange(slice, shape)
			mu.Lock()
			if lMinX < minX {
				minX = lMinX
			}
			if lMinY < minY {
				minY = lMinY
			}
			if lMaxX > maxX {
				maxX = lMaxX
			}
			if lMaxY > maxY {
				maxY = lMaxY
			}
			mu.Unlock()
		}(items[start:end])
	}
	wg.Wait()
	return
}

// mortonSort stably sorts items by their Morton (Z-order) code, computed
// from each item's representative point normalized into the 16-bit range
// per axis.
func mortonSort(items []Item, shape ShapePolicy, minX, minY, maxX, maxY float32) []Item {
	type keyed struct {
		item Item
		key  uint32
	}
	width := maxX - minX
	height := maxY - minY
	ks := make([]keyed, len(items))
	for i, it := range items {
		p := shape.MortonPoint(it)
		nx := normalizeAxis(p.X, minX, width)
		ny := normalizeAxis(p.Y, minY, height)
		ks[i] = keyed{it, mortonCode(nx, ny)}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	out := make([]Item, len(ks))
	for i := range ks {
		out[i] = ks[i].item
	}
	return out
}

// quarterRanges splits a morton-sorted slice into four ranges by count,
// per spec §4.5 step 4: q1 gets the ceiling share (absorbing any
// remainder), the middle two get the floor share, and the last range
// takes whatever remains.
func quarterRanges(items []Item) [4][]Item {
	n := len(items)
	q1 := (n + 3) / 4
	step := n / 4
	q2 := q1 + step
	q3 := q2 + step
	return [4][]Item{items[0:q1], items[q1:q2], items[q2:q3], items[q3:n]}
}

// bulkBuild recursively quarters sorted into node's rect. node must be
// childless and have no items of its own when called (the Index spills
// any pre-existing flat-leaf items and reinserts them after the build
// completes). makeHandle must be safe for concurrent invocation — it's
// the only state bulkBuild's parallel workers share.
func bulkBuild(node *Node, shape ShapePolicy, sorted []Item, threadLevel int, makeHandle func(Item) *ItemHandle) {
	n := len(sorted)
	if n > bulkSplitMinLen && !node.rect.degenerate() {
		ranges := quarterRanges(sorted)
		// sorted[q2] is the first element of the third quarter (ranges[2]).
		mid := node.rect.Center()
		if len(ranges[2]) > 0 {
			if m := shape.MortonPoint(ranges[2][0]); strictlyInside(node.rect, m) {
				mid = m
			}
		}
		if node.subdivide(mid) {
			if threadLevel > 0 {
				var wg sync.WaitGroup
				for i := 0; i < 4; i++ {
					i := i
					wg.Add(1)
					go func() {
						defer wg.Done()
						bulkBuild(node.children[i], shape, ranges[i], threadLevel-1, makeHandle)
					}()
				}
				wg.Wait()
			} else {
				for i := 0; i < 4; i++ {
					bulkBuild(node.children[i], shape, ranges[i], 0, makeHandle)
				}
			}
			return
		}
	}
	insertFlat(node, sorted, makeHandle)
}

// strictlyInside reports whether p lies inside rect without touching any
// edge (spec §4.5 step 4's tie-break for the quartering midpoint).
func strictlyInside(rect Rectangle, p Point) bool {
	return p.X > rect.X && p.X < rect.Right() && p.Y > rect.Y && p.Y < rect.Bottom()
}

// insertFlat inserts every item directly into node with canSubdivide
// false, per spec §4.5 step 4's "else" branch.
func insertFlat(node *Node, items []Item, makeHandle func(Item) *ItemHandle) {
	for _, it := range items {
		h := makeHandle(it)
		node.insert(h, false)
	}
}
