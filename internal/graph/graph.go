// Package graph holds the class-level dependency graph used to decide which
// classes are unreachable from the keep roots.
package graph

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// Graph maps each observed class to the set of classes it references.
// Names are interned to uint32 IDs so adjacency and closure sets are
// roaring bitmaps. A Graph is not safe for concurrent use.
type Graph struct {
	ids   map[string]uint32 // name → internal ID
	names []string          // reverse: ID → name
	edges map[uint32]*roaring.Bitmap

	// observed holds every class that had its references recorded, in the
	// order it was first seen.
	observed *roaring.Bitmap
	order    []uint32
}

func New() *Graph {
	return &Graph{
		ids:      make(map[string]uint32),
		edges:    make(map[uint32]*roaring.Bitmap),
		observed: roaring.New(),
	}
}

func (g *Graph) intern(name string) uint32 {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := uint32(len(g.names))
	g.ids[name] = id
	g.names = append(g.names, name)
	return id
}

func (g *Graph) observe(id uint32) {
	if g.observed.CheckedAdd(id) {
		g.order = append(g.order, id)
	}
}

func (g *Graph) bitmap(deps []string, self uint32) *roaring.Bitmap {
	bm := roaring.New()
	for _, d := range deps {
		if id := g.intern(d); id != self {
			bm.Add(id)
		}
	}
	return bm
}

// Set records deps as the complete reference set of name, replacing any
// earlier record. Self-references are dropped.
func (g *Graph) Set(name string, deps []string) {
	id := g.intern(name)
	g.observe(id)
	g.edges[id] = g.bitmap(deps, id)
}

// Merge adds deps to whatever name already references. Used when several
// archive entries describe the same logical class.
func (g *Graph) Merge(name string, deps []string) {
	id := g.intern(name)
	g.observe(id)
	bm := g.bitmap(deps, id)
	if prev, ok := g.edges[id]; ok {
		prev.Or(bm)
		return
	}
	g.edges[id] = bm
}

// Len is the number of observed classes.
func (g *Graph) Len() int { return len(g.order) }

// Nodes lists observed classes in the order they were first recorded.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	for i, id := range g.order {
		out[i] = g.names[id]
	}
	return out
}

// Deps returns the sorted references of name, or nil if it was never observed.
func (g *Graph) Deps(name string) []string {
	id, ok := g.ids[name]
	if !ok {
		return nil
	}
	bm, ok := g.edges[id]
	if !ok {
		return nil
	}
	return g.sortedNames(bm)
}

func (g *Graph) sortedNames(bm *roaring.Bitmap) []string {
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, g.names[it.Next()])
	}
	sort.Strings(out)
	return out
}

// reach returns the closure of roots. Roots need not be observed, and
// referenced-but-unobserved names are included without being expanded.
func (g *Graph) reach(roots []string) *roaring.Bitmap {
	visited := roaring.New()
	var stack []uint32
	for _, r := range roots {
		id, ok := g.ids[r]
		if !ok {
			continue
		}
		if visited.CheckedAdd(id) {
			stack = append(stack, id)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		bm, ok := g.edges[id]
		if !ok {
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			next := it.Next()
			if visited.CheckedAdd(next) {
				stack = append(stack, next)
			}
		}
	}
	return visited
}

// Unreachable returns every observed class outside the closure of roots,
// in insertion order. It does not modify the graph.
func (g *Graph) Unreachable(roots []string) []string {
	dead := roaring.AndNot(g.observed, g.reach(roots))
	out := make([]string, 0, dead.GetCardinality())
	for _, id := range g.order {
		if dead.Contains(id) {
			out = append(out, g.names[id])
		}
	}
	return out
}
