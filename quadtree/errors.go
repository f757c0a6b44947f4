package quadtree

import "errors"

// ErrDuplicateItem is returned by Index.Add when the item is already
// present in the index.
var ErrDuplicateItem = errors.New("quadtree: item already present")

// ErrBulkPrecondition is returned by Index.AddBulk when the root node
// already has children (addBulk requires a childless target, see §4.5).
var ErrBulkPrecondition = errors.New("quadtree: bulk load requires an empty or flat-leaf index")
