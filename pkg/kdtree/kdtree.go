// Package kdtree implements a KD-tree-like spatial index over
// axis-aligned hyperrectangles, giving the engine an efficient overlap
// query for the equivalence classes currently live in the partition.
package kdtree

import (
	"github.com/flowclass/flowclass/pkg/geom"
)

// relation describes where a candidate rectangle's axis interval falls
// relative to a node's split value.
type relation int

const (
	relBelow relation = iota // interval entirely below splitValue
	relAbove                 // interval entirely at or above splitValue
	relStraddle
)

type node struct {
	axis       int
	splitValue int64
	here       []*geom.HyperRectangle // rectangles straddling this node's split
	left       *node
	right      *node
}

// Tree is a KD-tree of live rectangles, splitting on axes cycling
// `depth mod k`.
type Tree struct {
	k    int
	root *node
}

// New returns an empty tree over a k-dimensional space.
func New(k int) *Tree {
	return &Tree{k: k}
}

func locate(iv, splitValue int64, hi int64) relation {
	if hi <= splitValue {
		return relBelow
	}
	if iv >= splitValue {
		return relAbove
	}
	return relStraddle
}

// Insert adds r to the tree. The splitting axis cycles i mod k; the
// split value introduced at a new node is the midpoint of r's bounds on
// that axis.
func (t *Tree) Insert(r *geom.HyperRectangle) {
	t.root = t.insert(t.root, r, 0)
}

func (t *Tree) insert(n *node, r *geom.HyperRectangle, depth int) *node {
	axis := depth % t.k
	if n == nil {
		b := r.Bounds[axis]
		return &node{
			axis:       axis,
			splitValue: midpoint(b.Lo, b.Hi),
			here:       []*geom.HyperRectangle{r},
		}
	}

	b := r.Bounds[n.axis]
	switch locate(b.Lo, n.splitValue, b.Hi) {
	case relBelow:
		n.left = t.insert(n.left, r, depth+1)
	case relAbove:
		n.right = t.insert(n.right, r, depth+1)
	default:
		n.here = append(n.here, r)
	}
	return n
}

func midpoint(lo, hi int64) int64 {
	return lo + (hi-lo)/2
}

// Delete removes one rectangle with bounds equal to r. Reports whether a
// match was found. Descends the same path Insert would have taken, so
// the expected cost mirrors Insert's.
func (t *Tree) Delete(r *geom.HyperRectangle) bool {
	found, _ := t.delete(t.root, r)
	return found
}

func (t *Tree) delete(n *node, r *geom.HyperRectangle) (bool, *node) {
	if n == nil {
		return false, nil
	}

	for i, cand := range n.here {
		if cand.Equal(r) {
			n.here = append(n.here[:i], n.here[i+1:]...)
			return true, n
		}
	}

	b := r.Bounds[n.axis]
	switch locate(b.Lo, n.splitValue, b.Hi) {
	case relBelow:
		found, child := t.delete(n.left, r)
		n.left = child
		return found, n
	case relAbove:
		found, child := t.delete(n.right, r)
		n.right = child
		return found, n
	default:
		// A straddling rectangle not found in `here` cannot exist
		// elsewhere in the tree — nothing to do.
		return false, n
	}
}

// Intersect returns every live rectangle overlapping q.
func (t *Tree) Intersect(q *geom.HyperRectangle) []*geom.HyperRectangle {
	var out []*geom.HyperRectangle
	t.intersect(t.root, q, &out)
	return out
}

func (t *Tree) intersect(n *node, q *geom.HyperRectangle, out *[]*geom.HyperRectangle) {
	if n == nil {
		return
	}
	for _, r := range n.here {
		if _, ok := geom.Overlap(q, r); ok {
			*out = append(*out, r)
		}
	}

	qb := q.Bounds[n.axis]
	if qb.Lo < n.splitValue {
		t.intersect(n.left, q, out)
	}
	if qb.Hi > n.splitValue {
		t.intersect(n.right, q, out)
	}
}

// All returns every rectangle currently in the tree, for checking that
// the tree's rectangle set equals the live ECs.
func (t *Tree) All() []*geom.HyperRectangle {
	var out []*geom.HyperRectangle
	t.walk(t.root, &out)
	return out
}

func (t *Tree) walk(n *node, out *[]*geom.HyperRectangle) {
	if n == nil {
		return
	}
	*out = append(*out, n.here...)
	t.walk(n.left, out)
	t.walk(n.right, out)
}
