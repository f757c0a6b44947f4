// Package store manages many named quadtree.Index instances the way
// tile38's Controller manages many named collections: a btree keyed by
// name standing in for the SQL-table-per-key idiom.
package store

import (
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/tidwall/qtindex/quadtree"
)

type treeT struct {
	Name  string
	Index *quadtree.Index
}

func (t *treeT) Less(item btree.Item) bool {
	return t.Name < item.(*treeT).Name
}

// Store is a named registry of quadtree indexes.
type Store struct {
	mu    sync.RWMutex
	trees *btree.BTree
}

// New creates an empty Store.
func New() *Store {
	return &Store{trees: btree.New(16)}
}

// Get returns the index registered under name, if any.
func (s *Store) Get(name string) (*quadtree.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.trees.Get(&treeT{Name: name})
	if i == nil {
		return nil, false
	}
	return i.(*treeT).Index, true
}

// GetOrCreate returns the index registered under name, creating a fresh
// one bounded by rect (using shape) if none exists yet.
func (s *Store) GetOrCreate(name string, rect quadtree.Rectangle, shape quadtree.ShapePolicy) *quadtree.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.trees.Get(&treeT{Name: name}); i != nil {
		return i.(*treeT).Index
	}
	ix := quadtree.NewIndex(rect, shape)
	s.trees.ReplaceOrInsert(&treeT{Name: name, Index: ix})
	return ix
}

// Drop removes the named index. Returns whether it existed.
func (s *Store) Drop(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trees.Delete(&treeT{Name: name}) != nil
}

// Names returns every registered tree name in ascending order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, s.trees.Len())
	s.trees.Ascend(func(item btree.Item) bool {
		names = append(names, item.(*treeT).Name)
		return true
	})
	return names
}

// Stat is one row of Stats' report.
type Stat struct {
	Name          string
	Count         int
	InternalNodes int
	LeafNodes     int
}

// Stats reports per-tree counts across every registered index.
func (s *Store) Stats() []Stat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Stat
	s.trees.Ascend(func(item btree.Item) bool {
		t := item.(*treeT)
		internal, leaf := t.Index.TreeStats()
		out = append(out, Stat{Name: t.Name, Count: t.Index.Count(), InternalNodes: internal, LeafNodes: leaf})
		return true
	})
	return out
}

// String implements fmt.Stringer for debug logging.
func (s Stat) String() string {
	return fmt.Sprintf("%s: %d items (%d internal, %d leaf)", s.Name, s.Count, s.InternalNodes, s.LeafNodes)
}
