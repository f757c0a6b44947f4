package quadtree

// NewRectQuery builds a rectangular query region.
func NewRectQuery(x, y, width, height float32) RectQuery {
	return RectQuery{X: x, Y: y, Width: width, Height: height}
}

// NewPointQuery builds a single-point query region.
func NewPointQuery(x, y float32) PointQuery {
	return PointQuery{X: x, Y: y}
}

// queryCount implements the Count result mode: dump-all subtrees count
// in O(1) via subtreeCount, partially-overlapping ones recurse with the
// per-item filter, and disjoint ones prune.
func (n *Node) queryCount(shape ShapePolicy, query Query) int {
	if shape.QueryContainsNode(query, n.rect) {
		return n.subtreeCount()
	}
	if !shape.QueryIntersectsNode(query, n.rect) {
		return 0
	}
	count := 0
	for _, h := range n.items {
		if shape.QueryIntersectsItem(query, h.data) {
			count++
		}
	}
	for _, c := range n.children {
		if c != nil {
			count += c.queryCount(shape, query)
		}
	}
	return count
}

// Iterator is a resumable, lazily-evaluated range-query traversal. It
// keeps two explicit stacks — full for subtrees already known to be
// fully contained by the query, mixed for subtrees still needing the
// three-way containment test — so that once a fully-contained subtree
// starts draining, all of its items are produced before any mixed work
// is resumed (spec §4.2, §9).
type Iterator struct {
	shape ShapePolicy
	query Query
	full  []*Node
	mixed []*Node
	buf   []Item
	bufI  int
}

// NewIterator starts a lazy traversal of root's subtree against query.
func NewIterator(root *Node, shape ShapePolicy, query Query) *Iterator {
	return &Iterator{shape: shape, query: query, mixed: []*Node{root}}
}

// Next produces the next matching item, or (nil, false) once exhausted.
func (it *Iterator) Next() (Item, bool) {
	for {
		if it.bufI < len(it.buf) {
			v := it.buf[it.bufI]
			it.bufI++
			return v, true
		}
		if len(it.full) > 0 {
			n := it.full[len(it.full)-1]
			it.full = it.full[:len(it.full)-1]
			it.buf = it.buf[:0]
			it.bufI = 0
			for _, h := range n.items {
				it.buf = append(it.buf, h.data)
			}
			for _, c := range n.children {
				if c != nil {
					it.full = append(it.full, c)
				}
			}
			continue
		}
		if len(it.mixed) > 0 {
			n := it.mixed[len(it.mixed)-1]
			it.mixed = it.mixed[:len(it.mixed)-1]
			if it.shape.QueryContainsNode(it.query, n.rect) {
				it.full = append(it.full, n)
				continue
			}
			if !it.shape.QueryIntersectsNode(it.query, n.rect) {
				continue
			}
			it.buf = it.buf[:0]
			it.bufI = 0
			for _, h := range n.items {
				if it.shape.QueryIntersectsItem(it.query, h.data) {
					it.buf = append(it.buf, h.data)
				}
			}
			for _, c := range n.children {
				if c != nil {
					it.mixed = append(it.mixed, c)
				}
			}
			continue
		}
		return nil, false
	}
}
