package quadtree

import "sync"

// Index is the top-level container: it owns the root Node and maps each
// live item to its handle for O(1) membership, removal, and move (spec
// §3, §4.4).
type Index struct {
	root   *Node
	shape  ShapePolicy
	byItem map[Item]*ItemHandle

	// handleMu guards byItem only during AddBulk's parallel subtree
	// construction; every other operation assumes single-writer
	// exclusive access per spec §5 and takes no lock.
	handleMu sync.Mutex
}

// NewIndex creates an empty index over rect using the given shape
// policy (PointShape or RectShape, or a custom implementation).
func NewIndex(rect Rectangle, shape ShapePolicy) *Index {
	return &Index{
		root:   newNode(rect, nil, shape),
		shape:  shape,
		byItem: make(map[Item]*ItemHandle),
	}
}

// newHandle creates and registers a handle for item. Safe for concurrent
// invocation — it's the "shared item-handle factory" spec §4.5/§5 require
// to be thread-safe for parallel bulk loads.
func (ix *Index) newHandle(item Item) *ItemHandle {
	h := &ItemHandle{data: item}
	ix.handleMu.Lock()
	ix.byItem[item] = h
	ix.handleMu.Unlock()
	return h
}

// Add inserts item into the index. Returns ErrDuplicateItem if item is
// already present, leaving the index unchanged.
func (ix *Index) Add(item Item) error {
	if _, ok := ix.byItem[item]; ok {
		return ErrDuplicateItem
	}
	h := ix.newHandle(item)
	ix.root.insert(h, true)
	return nil
}

// AddRange inserts items one at a time, stopping and returning an error
// on the first duplicate.
func (ix *Index) AddRange(items []Item) error {
	for _, item := range items {
		if err := ix.Add(item); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes item from the index, condensing the vacated subtree.
// Returns whether item was present.
func (ix *Index) Remove(item Item) bool {
	h, ok := ix.byItem[item]
	if !ok {
		return false
	}
	h.delete(true)
	delete(ix.byItem, item)
	return true
}

// Contains reports whether item is currently indexed.
func (ix *Index) Contains(item Item) bool {
	_, ok := ix.byItem[item]
	return ok
}

// Count returns the number of live items.
func (ix *Index) Count() int {
	return len(ix.byItem)
}

// Clear empties the index.
func (ix *Index) Clear() {
	ix.root = newNode(ix.root.rect, nil, ix.shape)
	ix.byItem = make(map[Item]*ItemHandle)
}

// Move refreshes the handle for item (whose coordinates the caller has
// already mutated in place) and relocates it to its new tightest
// containing node. Returns whether item was present.
func (ix *Index) Move(item Item) bool {
	h, ok := ix.byItem[item]
	if !ok {
		return false
	}
	h.data = item
	h.relocate()
	return true
}

// AddBulk builds a well-shaped subtree from items in one pass (spec
// §4.5). threadLevel controls parallel fan-out depth; 0 runs
// sequentially. Fails with ErrBulkPrecondition if the root already has
// children.
func (ix *Index) AddBulk(items []Item, threadLevel int) error {
	if !ix.root.isLeaf() {
		return ErrBulkPrecondition
	}
	if len(items) == 0 {
		return nil
	}
	if len(items)+len(ix.byItem) <= MaxItemsPerNode {
		return ix.AddRange(items)
	}
	minX, minY, maxX, maxY := computeBounds(items, ix.shape, threadLevel)
	sorted := mortonSort(items, ix.shape, minX, minY, maxX, maxY)

	spilled := ix.root.items
	ix.root.items = nil
	bulkBuild(ix.root, ix.shape, sorted, threadLevel, ix.newHandle)
	for _, h := range spilled {
		ix.root.insert(h, true)
	}
	return nil
}

// RemoveAll removes every item satisfying pred. Returns whether anything
// was removed.
func (ix *Index) RemoveAll(pred func(item Item) bool) bool {
	var matched []*ItemHandle
	for _, h := range ix.byItem {
		if pred(h.data) {
			matched = append(matched, h)
		}
	}
	if len(matched) == 0 {
		return false
	}

	affectedOwners := make(map[*Node]bool, len(matched))
	for _, h := range matched {
		owner := h.owner
		owner.remove(h)
		affectedOwners[owner] = true
	}
	// Each condenseUpwards call ascends to a fixed point on its own
	// chain; calling it from every affected owner (in any order)
	// converges the whole tree, since a no-longer-internal ancestor
	// simply declines on a later call.
	for owner := range affectedOwners {
		owner.condenseUpwards()
	}

	// The map erase can run concurrently with the tree-side condensing
	// above; here it's dispatched to a goroutine and explicitly joined
	// before return, matching the "awaited, not fire-and-forget"
	// guarantee spec §5 places on removeAll's background erase.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, h := range matched {
			delete(ix.byItem, h.data)
		}
	}()
	wg.Wait()
	return true
}

// QueryCount returns the number of live items intersecting query.
func (ix *Index) QueryCount(query Query) int {
	return ix.root.queryCount(ix.shape, query)
}

// Query appends every item intersecting query to dst and returns the
// extended slice (the "List" result mode, spec §4.2).
func (ix *Index) Query(query Query, dst []Item) []Item {
	it := NewIterator(ix.root, ix.shape, query)
	for {
		item, ok := it.Next()
		if !ok {
			return dst
		}
		dst = append(dst, item)
	}
}

// QueryVisit invokes visit for every item intersecting query, stopping
// early if visit returns false (the reference-shaped callback mode).
func (ix *Index) QueryVisit(query Query, visit func(item Item) bool) {
	it := NewIterator(ix.root, ix.shape, query)
	for {
		item, ok := it.Next()
		if !ok || !visit(item) {
			return
		}
	}
}

// QueryVisitPayload invokes visit for every item intersecting query,
// threading a caller-owned payload through for zero-allocation
// accumulation (the payload-shaped callback mode). Stops early if visit
// returns false.
func QueryVisitPayload[P any](ix *Index, query Query, payload *P, visit func(item Item, payload *P) bool) {
	it := NewIterator(ix.root, ix.shape, query)
	for {
		item, ok := it.Next()
		if !ok || !visit(item, payload) {
			return
		}
	}
}

// QuerySpan writes up to len(dst) matching items into dst and returns
// the number written (the span-fill result mode; callers size dst via a
// prior QueryCount call).
func (ix *Index) QuerySpan(query Query, dst []Item) int {
	it := NewIterator(ix.root, ix.shape, query)
	n := 0
	for n < len(dst) {
		item, ok := it.Next()
		if !ok {
			break
		}
		dst[n] = item
		n++
	}
	return n
}

// AllItems returns every live item in the index, in no particular
// order.
func (ix *Index) AllItems() []Item {
	return ix.root.allItemsRecursive(make([]Item, 0, len(ix.byItem)))
}

// TreeStats returns the internal-node and leaf-node counts of the tree.
// "leaf" here follows the source's own convention: leafNodes counts
// stored items, not structural leaf cells, so it always equals Count().
func (ix *Index) TreeStats() (internalNodes, leafNodes int) {
	internalNodes, _ = ix.root.structuralCounts()
	return internalNodes, ix.Count()
}
