// Package ecstore holds the equivalence-class parallel arrays, the
// per-EC owner map, and the per-link edge-label bitmaps that together
// record which ECs are currently forwarded out which links.
package ecstore

import (
	"math/big"

	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/kdtree"
	"github.com/flowclass/flowclass/pkg/topology"
)

// RuleKind distinguishes a rule's origin for bulk-load ordering
// purposes; it plays no part in the insertion algorithms themselves.
type RuleKind int

const (
	RuleFIB RuleKind = iota
	RuleACL
)

// Rule is the (link, rectangle, priority) triple derived from one FIB
// row or ACL line. Rules compare by Priority; ties keep the existing
// owner.
type Rule struct {
	Link     *topology.Link
	Rect     *geom.HyperRectangle
	Priority int
	Kind     RuleKind
}

// Store is the alpha-indexed parallel-array state: the KD-tree owning
// each EC's live rectangle, the per-EC owner map (router node index ->
// the highest-priority rule currently matching that EC there), and the
// difference-of-cubes bookkeeping (assigned volume, child indices).
// Child lists stay nil in classic mode; assigned volumes are seeded from
// each rectangle's volume on allocation but only the difference-of-cubes
// insertion keeps them up to date.
type Store struct {
	Tree *kdtree.Tree

	// Rects is a parallel array giving the live rectangle for each
	// alpha-index, so DoC recursion can look up a child's geometry
	// without a KD-tree walk. A reused slot keeps pointing at the same
	// object after its bounds are mutated in place.
	Rects []*geom.HyperRectangle

	OwnerMap       []map[int]*Rule
	AssignedVolume []*big.Int
	Children       [][]int
}

// NewStore seeds one EC (alpha 0) spanning the full space with an empty
// owner map, and inserts it into tree.
func NewStore(tree *kdtree.Tree, fullSpace *geom.HyperRectangle) *Store {
	s := &Store{Tree: tree}
	fullSpace.Alpha = 0
	s.Tree.Insert(fullSpace)
	s.Rects = append(s.Rects, fullSpace)
	s.OwnerMap = append(s.OwnerMap, make(map[int]*Rule))
	s.AssignedVolume = append(s.AssignedVolume, new(big.Int).Set(fullSpace.Volume()))
	s.Children = append(s.Children, nil)
	return s
}

// NumECs returns the number of EC slots ever allocated (append-only;
// never shrinks).
func (s *Store) NumECs() int {
	return len(s.OwnerMap)
}

// Alloc assigns rect the next alpha-index, appends the parallel-array
// slots for it (empty owner map, assigned volume equal to rect's own
// volume, no children), and returns the new index. Does not insert rect
// into the tree — callers insert once bounds are finalized.
func (s *Store) Alloc(rect *geom.HyperRectangle) int {
	alpha := s.NumECs()
	rect.Alpha = alpha
	s.Rects = append(s.Rects, rect)
	s.OwnerMap = append(s.OwnerMap, make(map[int]*Rule))
	s.AssignedVolume = append(s.AssignedVolume, new(big.Int).Set(rect.Volume()))
	s.Children = append(s.Children, nil)
	return alpha
}

// Owner returns the rule currently owning alpha at the given router
// node index, or nil if no rule has ever claimed it.
func (s *Store) Owner(alpha, routerNodeIndex int) *Rule {
	return s.OwnerMap[alpha][routerNodeIndex]
}

// SetOwner records r as the owner of alpha at the given router node
// index.
func (s *Store) SetOwner(alpha, routerNodeIndex int, r *Rule) {
	s.OwnerMap[alpha][routerNodeIndex] = r
}

// CopyOwnerMap wholesale-duplicates parent's owner map into child, the
// "β inherits its parent's forwarding decisions" step of updateRules.
func (s *Store) CopyOwnerMap(child, parent int) {
	src := s.OwnerMap[parent]
	dst := make(map[int]*Rule, len(src))
	for k, v := range src {
		dst[k] = v
	}
	s.OwnerMap[child] = dst
}

// AddChild records a DAG parent -> child arc (difference-of-cubes mode
// only).
func (s *Store) AddChild(parent, child int) {
	s.Children[parent] = append(s.Children[parent], child)
}
