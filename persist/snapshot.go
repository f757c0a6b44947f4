// Package persist snapshots and restores a store.Store to a single bolt
// database file, one bucket per named tree, grounded on
// controller/aof.go's bolt.Open/Bucket/Transaction pattern for the aof
// shrink file.
package persist

import (
	"encoding/binary"

	"github.com/boltdb/bolt"
	"github.com/tidwall/qtindex/quadtree"
	"github.com/tidwall/qtindex/store"
)

// Codec turns one item into bytes and back. quadtree.Item is
// intentionally opaque (spec §3), so persistence needs a caller-supplied
// encoding.
type Codec interface {
	Encode(item quadtree.Item) ([]byte, error)
	Decode(data []byte) (quadtree.Item, error)
}

// TreeFactory produces the rectangle and shape policy a restored tree
// should be built with, keyed by tree name.
type TreeFactory func(name string) (quadtree.Rectangle, quadtree.ShapePolicy)

func itob(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

// Snapshot writes every tree in s to path, one bolt bucket per tree
// name, replacing any bucket already there.
func Snapshot(s *store.Store, path string, codec Codec) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range s.Names() {
			_ = tx.DeleteBucket([]byte(name))
			b, err := tx.CreateBucket([]byte(name))
			if err != nil {
				return err
			}
			ix, ok := s.Get(name)
			if !ok {
				continue
			}
			for i, item := range ix.AllItems() {
				data, err := codec.Encode(item)
				if err != nil {
					return err
				}
				if err := b.Put(itob(i), data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Restore reads path into s, creating any tree bucket names it hasn't
// seen yet via treeFor.
func Restore(path string, s *store.Store, treeFor TreeFactory, codec Codec) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			rect, shape := treeFor(string(name))
			ix := s.GetOrCreate(string(name), rect, shape)
			return b.ForEach(func(_, v []byte) error {
				item, err := codec.Decode(v)
				if err != nil {
					return err
				}
				return ix.Add(item)
			})
		})
	})
}
