package quadtree

// Item is the opaque user value stored in the tree. Callers provide a
// ShapePolicy that knows how to extract geometry from it.
type Item interface{}

// Query is the region a range query is evaluated against. It is either a
// Rectangle or a Point (see RectQuery/PointQuery below).
type Query interface {
	isQuery()
}

// RectQuery is a rectangular query region.
type RectQuery Rectangle

func (RectQuery) isQuery() {}

// PointQuery is a single-point query region.
type PointQuery Point

func (PointQuery) isQuery() {}

// ShapePolicy adapts the tree to a concrete item shape (point or
// rectangle) per spec §4.1. Implementations must be deterministic and
// side-effect free.
type ShapePolicy interface {
	// MortonPoint returns a representative point used only for bulk-load
	// sorting.
	MortonPoint(item Item) Point

	// NodeContainsItem reports whether item's footprint is fully inside
	// rect.
	NodeContainsItem(rect Rectangle, item Item) bool

	// QueryContainsNode reports whether query fully contains rect. A
	// point query never contains a node (a node has positive area).
	QueryContainsNode(query Query, rect Rectangle) bool

	// QueryIntersectsNode reports whether query overlaps rect.
	QueryIntersectsNode(query Query, rect Rectangle) bool

	// QueryIntersectsItem is the final per-item filter applied when a
	// node only partially intersects the query.
	QueryIntersectsItem(query Query, item Item) bool
}

// PointItem is the footprint contract for items stored under
// PointShape: a single representative point.
type PointItem interface {
	Point() Point
}

// RectItem is the footprint contract for items stored under RectShape:
// an axis-aligned rectangle footprint.
type RectItem interface {
	Rect() Rectangle
}

// PointShape is the ShapePolicy for point-stored items (spec §4.1).
// Query may be a rectangle or a point.
type PointShape struct{}

func (PointShape) MortonPoint(item Item) Point {
	return item.(PointItem).Point()
}

func (PointShape) NodeContainsItem(rect Rectangle, item Item) bool {
	return rect.ContainsPoint(item.(PointItem).Point())
}

func (PointShape) QueryContainsNode(query Query, rect Rectangle) bool {
	switch q := query.(type) {
	case RectQuery:
		return Rectangle(q).ContainsRect(rect)
	case PointQuery:
		return false
	}
	return false
}

func (PointShape) QueryIntersectsNode(query Query, rect Rectangle) bool {
	switch q := query.(type) {
	case RectQuery:
		return Rectangle(q).Intersects(rect)
	case PointQuery:
		return rect.ContainsPoint(Point(q))
	}
	return false
}

func (PointShape) QueryIntersectsItem(query Query, item Item) bool {
	p := item.(PointItem).Point()
	switch q := query.(type) {
	case RectQuery:
		return Rectangle(q).ContainsPoint(p)
	case PointQuery:
		return p == Point(q)
	}
	return false
}

// RectShape is the ShapePolicy for rectangle-stored items (spec §4.1).
// A point-valued query yields only intersects-point semantics.
type RectShape struct{}

func (RectShape) MortonPoint(item Item) Point {
	return item.(RectItem).Rect().Center()
}

func (RectShape) NodeContainsItem(rect Rectangle, item Item) bool {
	return rect.ContainsRect(item.(RectItem).Rect())
}

func (RectShape) QueryContainsNode(query Query, rect Rectangle) bool {
	switch q := query.(type) {
	case RectQuery:
		return Rectangle(q).ContainsRect(rect)
	case PointQuery:
		return false
	}
	return false
}

func (RectShape) QueryIntersectsNode(query Query, rect Rectangle) bool {
	switch q := query.(type) {
	case RectQuery:
		return Rectangle(q).Intersects(rect)
	case PointQuery:
		return rect.ContainsPoint(Point(q))
	}
	return false
}

func (RectShape) QueryIntersectsItem(query Query, item Item) bool {
	ir := item.(RectItem).Rect()
	switch q := query.(type) {
	case RectQuery:
		return Rectangle(q).Intersects(ir)
	case PointQuery:
		return ir.ContainsPoint(Point(q))
	}
	return false
}
