package quadtree

// ItemHandle is the stable identity of one item stored in the tree. Its
// owner pointer is updated in place whenever the structure relocates the
// item, so callers that retain a handle across moves still resolve to
// the right node (spec §4.3).
type ItemHandle struct {
	data  Item
	owner *Node
}

// Data returns the item currently wrapped by this handle.
func (h *ItemHandle) Data() Item {
	return h.data
}

// Owner returns the node that currently stores this handle.
func (h *ItemHandle) Owner() *Node {
	return h.owner
}
