package server

import "github.com/tidwall/qtindex/quadtree"

// Item is the item type every tree managed by a Server stores. It
// carries a caller-facing string ID (the wire protocol addresses items
// by id, not by Go identity) alongside its rectangle footprint; a
// zero-width, zero-height rectangle represents a point. Item is
// exported so a persist.Codec living in another package (cmd/
// quadtree-server's snapshot codec) can read and rebuild it.
type Item struct {
	ID     string
	Bounds quadtree.Rectangle
}

// Rect implements quadtree.RectItem.
func (i *Item) Rect() quadtree.Rectangle { return i.Bounds }
