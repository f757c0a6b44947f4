package quadtree

// Capacity and condensation thresholds (spec §6). Exposed as compile-time
// constants rather than a mutable configuration record, matching the
// "global/static-like thresholds" guidance.
const (
	// MaxItemsPerNode is the number of handles a leaf holds before it
	// subdivides.
	MaxItemsPerNode = 10

	// MaxOptimizeDeletionReadd is the subtree-size ceiling under which
	// Condense rebuilds a partially-empty internal node into a flat
	// leaf rather than just promoting a lone surviving child.
	MaxOptimizeDeletionReadd = 22

	// bulkSplitMinLen and bulkSplitMinArea gate the bulk loader's
	// recursive quartering (spec §4.5 step 4).
	bulkSplitMinLen  = 8
	bulkSplitMinArea = 0.01
)

// child slot indices, matching Rectangle.quarters' tl, tr, bl, br order.
const (
	childTL = 0
	childTR = 1
	childBL = 2
	childBR = 3
)

// Node is one cell of the quadtree: a fixed rectangle, up to four
// children (present together or absent together), and a small bucket of
// item handles that either belong here because they straddle the
// subdivision midpoint or because the node hasn't subdivided yet.
type Node struct {
	rect     Rectangle
	parent   *Node
	children [4]*Node
	items    []*ItemHandle
	shape    ShapePolicy
}

func newNode(rect Rectangle, parent *Node, shape ShapePolicy) *Node {
	return &Node{rect: rect, parent: parent, shape: shape}
}

// Rect returns the node's fixed rectangle.
func (n *Node) Rect() Rectangle { return n.rect }

// Parent returns the node's parent, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

func (n *Node) isRoot() bool { return n.parent == nil }

func (n *Node) isLeaf() bool { return n.children[childTL] == nil }

func (n *Node) appendLocal(h *ItemHandle) {
	n.items = append(n.items, h)
	h.owner = n
}

// destinationChild returns the unique child whose rect fully contains
// item's footprint, or nil if the item straddles the midpoint (or n is a
// leaf).
func (n *Node) destinationChild(item Item) *Node {
	if n.isLeaf() {
		return nil
	}
	for _, c := range n.children {
		if n.shape.NodeContainsItem(c.rect, item) {
			return c
		}
	}
	return nil
}

// insert implements spec §4.2's Insert algorithm.
func (n *Node) insert(h *ItemHandle, canSubdivide bool) {
	if !n.shape.NodeContainsItem(n.rect, h.data) {
		if n.isRoot() {
			// Exception: the root accepts items outside its own
			// rectangle. No child rect could ever contain such an
			// item either, so it's stored here permanently.
			n.appendLocal(h)
			return
		}
		n.parent.insert(h, canSubdivide)
		return
	}
	if n.isLeaf() {
		if len(n.items) < MaxItemsPerNode {
			n.appendLocal(h)
			return
		}
		if !canSubdivide || !n.subdivideAuto() {
			// Subdivision declined (caller asked not to, or the area
			// is too small/non-finite to split) — the node grows
			// beyond its nominal capacity instead.
			n.appendLocal(h)
			return
		}
	}
	dest := n.destinationChild(h.data)
	if dest != nil {
		dest.insert(h, canSubdivide)
		return
	}
	n.appendLocal(h) // straddles the midpoint
}

// subdivideAuto splits the node at its geometric center.
func (n *Node) subdivideAuto() bool {
	return n.subdivide(n.rect.Center())
}

// subdivide creates four children split at mid and redistributes this
// node's existing items among them (or keeps them here if they
// straddle). Returns false (declining to subdivide) if the node's area
// is too small or non-finite.
func (n *Node) subdivide(mid Point) bool {
	if n.rect.degenerate() {
		return false
	}
	quarters := n.rect.quarters(mid)
	for i := range quarters {
		n.children[i] = newNode(quarters[i], n, n.shape)
	}
	old := n.items
	n.items = nil
	for _, h := range old {
		if dest := n.destinationChild(h.data); dest != nil {
			dest.appendLocal(h)
		} else {
			n.appendLocal(h)
		}
	}
	return true
}

// remove deletes h from this node's local item list by swap-with-last.
// Returns false if h isn't present here.
func (n *Node) remove(h *ItemHandle) bool {
	for i, it := range n.items {
		if it == h {
			last := len(n.items) - 1
			n.items[i] = n.items[last]
			n.items[last] = nil
			n.items = n.items[:last]
			return true
		}
	}
	return false
}

// delete removes h from its owner and, if clean, condenses every
// ancestor that qualifies, ascending until Condense declines.
func (h *ItemHandle) delete(clean bool) bool {
	owner := h.owner
	ok := owner.remove(h)
	if ok && clean {
		owner.condenseUpwards()
	}
	return ok
}

// relocate re-homes h after its underlying item's coordinates changed.
// It reuses insert's own containment/forwarding logic: removing h from
// its stale owner and reinserting drives it to the correct node whether
// that's deeper, shallower, or unchanged, then condenses the vacated
// subtree.
func (h *ItemHandle) relocate() {
	old := h.owner
	old.remove(h)
	old.insert(h, true) // insert() sets h.owner wherever it lands
	if h.owner != old {
		old.condenseUpwards()
	}
}

// condenseUpwards walks from n towards the root, calling condenseThis at
// each internal ancestor until one declines to restructure.
func (n *Node) condenseUpwards() {
	node := n
	for node != nil {
		if !node.isLeaf() {
			if !node.condenseThis() {
				break
			}
		}
		node = node.parent
	}
}

// condenseThis collapses an underfull internal node per spec §4.2's
// Condense algorithm. No-op (returns false) if n is already a leaf.
func (n *Node) condenseThis() bool {
	if n.isLeaf() {
		return false
	}
	total := n.subtreeCount()
	emptyKids := 0
	for _, c := range n.children {
		if c.isLeaf() && len(c.items) == 0 {
			emptyKids++
		}
	}
	switch {
	case total <= MaxItemsPerNode:
		n.rebuildFlat(n.harvestAndClear())
		return true
	case emptyKids == 4:
		n.children = [4]*Node{}
		return true
	case emptyKids == 3:
		n.promoteSoleChild()
		return true
	case emptyKids > 0 && total < MaxOptimizeDeletionReadd:
		n.rebuildFlat(n.harvestAndClear())
		return true
	default:
		return false
	}
}

// subtreeCount returns the total number of items stored at n or below.
func (n *Node) subtreeCount() int {
	total := len(n.items)
	for _, c := range n.children {
		if c != nil {
			total += c.subtreeCount()
		}
	}
	return total
}

// harvestAndClear collects every handle in n's subtree (including n's
// own local items) and detaches all of n's children.
func (n *Node) harvestAndClear() []*ItemHandle {
	out := append([]*ItemHandle(nil), n.items...)
	for i, c := range n.children {
		if c != nil {
			out = c.harvestAllRecursive(out)
			n.children[i] = nil
		}
	}
	return out
}

func (n *Node) harvestAllRecursive(out []*ItemHandle) []*ItemHandle {
	out = append(out, n.items...)
	for _, c := range n.children {
		if c != nil {
			out = c.harvestAllRecursive(out)
		}
	}
	return out
}

// rebuildFlat makes n a single flat leaf holding exactly handles.
func (n *Node) rebuildFlat(handles []*ItemHandle) {
	n.items = handles
	for _, h := range n.items {
		h.owner = n
	}
}

// promoteSoleChild absorbs the lone nonempty child of a node whose other
// three children are empty leaves: its grandchildren become n's direct
// children, and its items are merged into n.
func (n *Node) promoteSoleChild() {
	var sole *Node
	for _, c := range n.children {
		if !(c.isLeaf() && len(c.items) == 0) {
			sole = c
			break
		}
	}
	n.children = sole.children
	for _, gc := range n.children {
		if gc != nil {
			gc.parent = n
		}
	}
	if len(n.items) == 0 {
		n.items = sole.items
		for _, h := range n.items {
			h.owner = n
		}
	} else {
		for _, h := range sole.items {
			n.items = append(n.items, h)
			h.owner = n
		}
	}
}

// allItemsRecursive appends every item owned anywhere in n's subtree to
// out. The owner-mismatch break is belt-and-braces: it defends against a
// handle whose ownership changed mid-traversal, reproducing the guard
// the source carries in AllObjectsCount/GetAllObjects (see spec §9).
func (n *Node) allItemsRecursive(out []Item) []Item {
	for _, h := range n.items {
		if h.owner != n {
			break
		}
		out = append(out, h.data)
	}
	for _, c := range n.children {
		if c != nil {
			out = c.allItemsRecursive(out)
		}
	}
	return out
}

// structuralCounts reports the internal-node and structural-leaf-node
// counts of the subtree rooted at n (distinct from Index.TreeStats,
// whose "leaf" count follows the source's item-count convention
// instead).
func (n *Node) structuralCounts() (internal, leaf int) {
	if n.isLeaf() {
		return 0, 1
	}
	internal = 1
	for _, c := range n.children {
		if c != nil {
			ci, cl := c.structuralCounts()
			internal += ci
			leaf += cl
		}
	}
	return internal, leaf
}
