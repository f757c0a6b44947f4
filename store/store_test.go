package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidwall/qtindex/quadtree"
)

func bounds() quadtree.Rectangle {
	return quadtree.Rectangle{X: 0, Y: 0, Width: 1000, Height: 1000}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := New()
	a := s.GetOrCreate("fleet", bounds(), quadtree.PointShape{})
	b := s.GetOrCreate("fleet", bounds(), quadtree.PointShape{})
	assert.Same(t, a, b, "GetOrCreate should return the same index on repeat calls")
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestDropRemovesTree(t *testing.T) {
	s := New()
	s.GetOrCreate("fleet", bounds(), quadtree.PointShape{})
	require.True(t, s.Drop("fleet"))
	_, ok := s.Get("fleet")
	assert.False(t, ok)
	assert.False(t, s.Drop("fleet"), "second Drop of the same name should report false")
}

func TestNamesAreAscending(t *testing.T) {
	s := New()
	for _, n := range []string{"zebra", "apple", "mango"} {
		s.GetOrCreate(n, bounds(), quadtree.PointShape{})
	}
	assert.Equal(t, []string{"apple", "mango", "zebra"}, s.Names())
}

type statPoint struct{ p quadtree.Point }

func (sp *statPoint) Point() quadtree.Point { return sp.p }

func TestStatsReportsPerTreeCounts(t *testing.T) {
	s := New()
	ix := s.GetOrCreate("fleet", bounds(), quadtree.PointShape{})
	for i := 0; i < 3; i++ {
		require.NoError(t, ix.Add(&statPoint{p: quadtree.Point{X: float32(i), Y: float32(i)}}))
	}
	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "fleet", stats[0].Name)
	assert.Equal(t, 3, stats[0].Count)
	assert.Contains(t, stats[0].String(), "fleet")
}
