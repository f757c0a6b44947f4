package quadtree

import (
	"math"
	"math/rand"
	"testing"
)

type pointItem struct {
	id int
	p  Point
}

func (p *pointItem) Point() Point { return p.p }

type rectItem struct {
	id int
	r  Rectangle
}

func (r *rectItem) Rect() Rectangle { return r.r }

func bigRoot() Rectangle {
	const big = math.MaxFloat32 / 4
	return Rectangle{X: -big, Y: -big, Width: 2 * big, Height: 2 * big}
}

// Scenario 1: count/list modes, disjoint item excluded.
func TestScenarioCountAndList(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	pts := []Point{{10, 10}, {11, 11}, {12, 12}, {11, 11}, {-1000, 1000}}
	for i, p := range pts {
		if err := ix.Add(&pointItem{id: i, p: p}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	q := NewRectQuery(9, 9, 20, 20)
	if n := ix.QueryCount(q); n != 4 {
		t.Fatalf("QueryCount == %d, want 4", n)
	}
	got := ix.Query(q, nil)
	if len(got) != 4 {
		t.Fatalf("Query returned %d items, want 4", len(got))
	}
	for _, item := range got {
		if item.(*pointItem).id == 4 {
			t.Fatalf("disjoint item leaked into result")
		}
	}
}

// Scenario 2: payload callback mode.
func TestScenarioPayloadCallback(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	pts := []Point{{10, 10}, {11, 11}, {12, 12}, {11, 11}, {-1000, 1000}}
	for i, p := range pts {
		ix.Add(&pointItem{id: i, p: p})
	}
	var n int
	QueryVisitPayload(ix, NewRectQuery(9, 9, 20, 20), &n, func(item Item, payload *int) bool {
		*payload++
		return true
	})
	if n != 4 {
		t.Fatalf("payload counter == %d, want 4", n)
	}
}

// Scenario 3: lazy iterator mode.
func TestScenarioLazyIterator(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	ix.Add(&pointItem{id: 0, p: Point{10, 10}})
	ix.Add(&pointItem{id: 1, p: Point{-1000, 1000}})
	it := NewIterator(ix.root, ix.shape, NewRectQuery(9, 9, 20, 20))
	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Fatalf("lazy iterator produced %d items, want 1", count)
	}
}

// Scenario 4: move re-indexes an item after its coordinates change.
func TestScenarioMove(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	it := &pointItem{id: 0, p: Point{5, 5}}
	if err := ix.Add(it); err != nil {
		t.Fatal(err)
	}
	it.p = Point{11, 11}
	if !ix.Move(it) {
		t.Fatalf("Move reported item not found")
	}
	got := ix.Query(NewRectQuery(10, 10, 20, 20), nil)
	if len(got) != 1 {
		t.Fatalf("post-move query returned %d items, want 1", len(got))
	}
}

// Scenario 5: bulk add, query by count and by id set.
func TestScenarioBulkAdd(t *testing.T) {
	ix := NewIndex(bigRoot(), RectShape{})
	coords := []Point{{10, 10}, {11, 11}, {100, 10}, {12, 12}, {13, 13}, {-1000, 1000}}
	items := make([]Item, len(coords))
	for i, p := range coords {
		items[i] = &rectItem{id: i + 1, r: Rectangle{X: p.X, Y: p.Y}}
	}
	if err := ix.AddBulk(items, 0); err != nil {
		t.Fatalf("AddBulk: %v", err)
	}
	q := NewRectQuery(9, 9, 20, 20)
	if n := ix.QueryCount(q); n != 4 {
		t.Fatalf("QueryCount == %d, want 4", n)
	}
	got := ix.Query(q, nil)
	ids := make(map[int]bool)
	for _, item := range got {
		ids[item.(*rectItem).id] = true
	}
	want := map[int]bool{1: true, 2: true, 4: true, 5: true}
	if len(ids) != len(want) {
		t.Fatalf("got ids %v, want %v", ids, want)
	}
	for id := range want {
		if !ids[id] {
			t.Fatalf("missing id %d in %v", id, ids)
		}
	}
}

// Scenario 6: removeAll leaves exactly the non-matching items.
func TestScenarioRemoveAllOddIDs(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	rand.Seed(1)
	for id := 1; id <= 100; id++ {
		p := Point{X: float32(rand.Intn(1000)), Y: float32(rand.Intn(1000))}
		if err := ix.Add(&pointItem{id: id, p: p}); err != nil {
			t.Fatal(err)
		}
	}
	ok := ix.RemoveAll(func(item Item) bool { return item.(*pointItem).id%2 != 0 })
	if !ok {
		t.Fatalf("RemoveAll reported nothing removed")
	}
	if ix.Count() != 50 {
		t.Fatalf("Count == %d, want 50", ix.Count())
	}
	for _, item := range ix.AllItems() {
		if item.(*pointItem).id%2 != 0 {
			t.Fatalf("odd id %d survived RemoveAll", item.(*pointItem).id)
		}
	}
	internal, _ := ix.root.structuralCounts()
	_ = internal // no crash walking the post-condense tree is itself the assertion
}

// Invariant: contains/count agree with the live set across a mixed
// sequence of add/remove/move.
func TestInvariantMembershipAgreement(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	live := make(map[*pointItem]bool)
	rand.Seed(2)
	for i := 0; i < 500; i++ {
		switch rand.Intn(3) {
		case 0:
			it := &pointItem{id: i, p: Point{X: float32(rand.Intn(500)), Y: float32(rand.Intn(500))}}
			if err := ix.Add(it); err == nil {
				live[it] = true
			}
		case 1:
			for it := range live {
				ix.Remove(it)
				delete(live, it)
				break
			}
		case 2:
			for it := range live {
				it.p = Point{X: float32(rand.Intn(500)), Y: float32(rand.Intn(500))}
				ix.Move(it)
				break
			}
		}
	}
	if ix.Count() != len(live) {
		t.Fatalf("Count == %d, want %d", ix.Count(), len(live))
	}
	for it := range live {
		if !ix.Contains(it) {
			t.Fatalf("live item not Contains()ed")
		}
	}
}

// Invariant: every reachable handle's owner holds it exactly once, and
// (except at the root) the owner's rect contains the item.
func TestInvariantHandleOwnership(t *testing.T) {
	ix := NewIndex(Rectangle{X: 0, Y: 0, Width: 1000, Height: 1000}, PointShape{})
	rand.Seed(3)
	for i := 0; i < 2000; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(rand.Intn(1000)), Y: float32(rand.Intn(1000))}})
	}
	var walk func(n *Node)
	seen := 0
	walk = func(n *Node) {
		count := 0
		for _, h := range n.items {
			if h.owner != n {
				t.Fatalf("handle owner mismatch")
			}
			count++
			if !n.isRoot() && !n.shape.NodeContainsItem(n.rect, h.data) {
				t.Fatalf("owner rect does not contain item footprint")
			}
		}
		seen += count
		if !n.isLeaf() {
			for _, c := range n.children {
				if c == nil {
					t.Fatalf("four-children-all-or-nothing violated")
				}
			}
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(ix.root)
	if seen != ix.Count() {
		t.Fatalf("walked %d items, index reports %d", seen, ix.Count())
	}
}

// Invariant: subtree count at the root equals the item map size.
func TestInvariantSubtreeCountMatchesMapSize(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	for i := 0; i < 300; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(i % 50), Y: float32(i / 50)}})
	}
	if ix.root.subtreeCount() != ix.Count() {
		t.Fatalf("subtreeCount == %d, Count == %d", ix.root.subtreeCount(), ix.Count())
	}
	ix.Remove(ix.AllItems()[0].(*pointItem))
	if ix.root.subtreeCount() != ix.Count() {
		t.Fatalf("after remove: subtreeCount == %d, Count == %d", ix.root.subtreeCount(), ix.Count())
	}
}

// Round-trip: add, clear, re-add yields the same membership and query
// results.
func TestRoundTripClearReadd(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	items := []*pointItem{
		{id: 0, p: Point{1, 1}}, {id: 1, p: Point{2, 2}}, {id: 2, p: Point{3, 3}},
	}
	for _, it := range items {
		ix.Add(it)
	}
	before := ix.Query(NewRectQuery(0, 0, 10, 10), nil)
	ix.Clear()
	if ix.Count() != 0 {
		t.Fatalf("Count after Clear == %d, want 0", ix.Count())
	}
	for _, it := range items {
		ix.Add(it)
	}
	after := ix.Query(NewRectQuery(0, 0, 10, 10), nil)
	if len(before) != len(after) {
		t.Fatalf("before/after clear+readd differ: %d vs %d", len(before), len(after))
	}
}

// Round-trip: add(x); remove(x) returns to prior count.
func TestRoundTripAddRemove(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	for i := 0; i < 10; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(i), Y: float32(i)}})
	}
	before := ix.Count()
	x := &pointItem{id: 99, p: Point{50, 50}}
	ix.Add(x)
	ix.Remove(x)
	if ix.Count() != before {
		t.Fatalf("Count == %d after add+remove, want %d", ix.Count(), before)
	}
}

// Boundary: an item exactly at the subdivision midpoint straddles and
// is stored at the parent, not pushed into a child.
func TestBoundaryStraddleAtMidpoint(t *testing.T) {
	rect := Rectangle{X: 0, Y: 0, Width: 100, Height: 100}
	ix := NewIndex(rect, PointShape{})
	for i := 0; i < MaxItemsPerNode+1; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(i % 10), Y: float32(i % 10)}})
	}
	if ix.root.isLeaf() {
		t.Fatalf("root did not subdivide after exceeding capacity")
	}
	mid := rect.Center()
	straddler := &pointItem{id: 1000, p: mid}
	ix.Add(straddler)
	h := ix.byItem[straddler]
	if h.owner != ix.root {
		t.Fatalf("item at exact midpoint was not stored at the parent")
	}
}

// Boundary: query fully containing the root returns all items;
// disjoint query returns none.
func TestBoundaryContainsAndDisjointQueries(t *testing.T) {
	rect := Rectangle{X: 0, Y: 0, Width: 100, Height: 100}
	ix := NewIndex(rect, PointShape{})
	for i := 0; i < 50; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(i % 10), Y: float32(i / 10)}})
	}
	all := ix.Query(NewRectQuery(-10, -10, 1000, 1000), nil)
	if len(all) != ix.Count() {
		t.Fatalf("containing query returned %d, want %d", len(all), ix.Count())
	}
	none := ix.Query(NewRectQuery(-1000, -1000, 10, 10), nil)
	if len(none) != 0 {
		t.Fatalf("disjoint query returned %d items, want 0", len(none))
	}
}

// Boundary: items with identical coordinates coexist and are all
// returned.
func TestBoundaryDuplicateCoordinates(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	for i := 0; i < 5; i++ {
		ix.Add(&pointItem{id: i, p: Point{7, 7}})
	}
	got := ix.Query(NewRectQuery(0, 0, 20, 20), nil)
	if len(got) != 5 {
		t.Fatalf("got %d items at identical coordinates, want 5", len(got))
	}
}

func TestAddDuplicateItemErrors(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	it := &pointItem{id: 0, p: Point{1, 1}}
	if err := ix.Add(it); err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(it); err != ErrDuplicateItem {
		t.Fatalf("second Add returned %v, want ErrDuplicateItem", err)
	}
}

func TestAddBulkPreconditionViolated(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	for i := 0; i < MaxItemsPerNode+1; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(i), Y: float32(i)}})
	}
	if !ix.root.isLeaf() {
		err := ix.AddBulk([]Item{&pointItem{id: 999, p: Point{1, 1}}}, 0)
		if err != ErrBulkPrecondition {
			t.Fatalf("AddBulk on non-leaf root returned %v, want ErrBulkPrecondition", err)
		}
	}
}

func TestSpanQueryFillsUpToCapacity(t *testing.T) {
	ix := NewIndex(bigRoot(), PointShape{})
	for i := 0; i < 20; i++ {
		ix.Add(&pointItem{id: i, p: Point{X: float32(i), Y: float32(i)}})
	}
	dst := make([]Item, 3)
	n := ix.QuerySpan(NewRectQuery(-1, -1, 100, 100), dst)
	if n != 3 {
		t.Fatalf("QuerySpan wrote %d, want 3", n)
	}
}
