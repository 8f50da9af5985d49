// Package rules implements the two rule-insertion algorithms — classic
// partition refinement and difference-of-cubes DAG growth — that keep
// the EC store, KD-tree, and edge-label bitmaps in sync with the
// highest-priority rule currently matching each equivalence class at
// each router.
package rules

import (
	"math/big"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/util"
)

// delta records a (parent, child) pair for a newly split-off EC, used by
// updateRules to replay the child's inherited forwarding decisions into
// the label bitmaps before the new rule's priority check runs against
// the "overlapping" set.
type delta struct {
	parent int
	child  int
}

// InsertClassic implements the classic add-rule algorithm: every EC
// touching rule.Rect is either fully covered ("overlapping", no
// refinement) or split via subtract into the pieces outside rule.Rect
// plus the overlap itself, which becomes a fresh EC.
func InsertClassic(store *ecstore.Store, labels *ecstore.LabelSet, rule *ecstore.Rule) {
	hits := store.Tree.Intersect(rule.Rect)

	var overlapping []int
	var deltas []delta

	for _, r := range hits {
		alpha := r.Alpha
		o, ok := geom.Overlap(rule.Rect, r)
		if !ok {
			util.Assert(false, "overlap", "KD-tree reported an intersection with empty overlap")
			continue
		}

		if o.Equal(r) {
			overlapping = append(overlapping, alpha)
			continue
		}

		parts := geom.Subtract(r, o)
		store.Tree.Delete(r)

		reused := false
		for _, p := range parts {
			if reused {
				child := store.Alloc(p)
				store.CopyOwnerMap(child, alpha)
				deltas = append(deltas, delta{parent: alpha, child: child})
				store.Tree.Insert(p)
				continue
			}
			if p.Equal(r) {
				// Subtract never returns the whole of r once o != r.
				continue
			}
			r.Bounds = p.Bounds
			store.Tree.Insert(r)
			reused = true
		}

		oChild := store.Alloc(o)
		store.CopyOwnerMap(oChild, alpha)
		deltas = append(deltas, delta{parent: alpha, child: oChild})
		store.Tree.Insert(o)
		overlapping = append(overlapping, oChild)
	}

	updateRules(store, labels, rule, overlapping, deltas)
}

// InsertDoC implements addRuleDocRec: instead of physically splitting
// existing ECs, it adds a new EC for the sliver of the overlap not
// already attributed to a descendant EC and records a parent->child DAG
// arc, memoizing per-insertion so a shared descendant visited along
// multiple DAG paths is only processed once.
func InsertDoC(store *ecstore.Store, labels *ecstore.LabelSet, rule *ecstore.Rule) {
	hits := store.Tree.Intersect(rule.Rect)

	// A child's rectangle is always a subset of its parent's, so any
	// rule overlapping a child also overlaps that child's entire
	// ancestor chain. Start recursion only from hits with no parent —
	// rec's own DAG-children walk reaches every descendant hit.
	parentOf := make(map[int]int, store.NumECs())
	for p, kids := range store.Children {
		for _, c := range kids {
			parentOf[c] = p
		}
	}

	type memoResult struct {
		vol *big.Int
		ec  int // -1 if no EC was produced for this call
	}
	cache := make(map[int]memoResult)

	var overlapping []int
	var deltas []delta

	var rec func(other int) memoResult
	rec = func(other int) memoResult {
		if cached, ok := cache[other]; ok {
			return cached
		}

		otherRect := store.Rects[other]
		o, ok := geom.Overlap(rule.Rect, otherRect)
		if !ok {
			res := memoResult{vol: big.NewInt(0), ec: -1}
			cache[other] = res
			return res
		}
		if otherRect.Equal(o) {
			res := memoResult{vol: new(big.Int).Set(o.Volume()), ec: other}
			cache[other] = res
			overlapping = append(overlapping, other)
			return res
		}

		childrenVol := big.NewInt(0)
		var childEcs []int
		for _, c := range store.Children[other] {
			sub := rec(c)
			childrenVol.Add(childrenVol, sub.vol)
			if sub.ec != -1 {
				childEcs = append(childEcs, sub.ec)
			}
		}

		slice := new(big.Int).Sub(o.Volume(), childrenVol)
		if slice.Sign() == 0 {
			res := memoResult{vol: new(big.Int).Set(o.Volume()), ec: -1}
			cache[other] = res
			return res
		}

		newAssigned := new(big.Int).Sub(store.AssignedVolume[other], slice)
		if newAssigned.Sign() == 0 {
			// The sliver exactly equals other's remaining unattributed
			// region: other itself is the overlap, and keeps its volume.
			res := memoResult{vol: new(big.Int).Set(o.Volume()), ec: other}
			cache[other] = res
			overlapping = append(overlapping, other)
			return res
		}

		store.AssignedVolume[other] = newAssigned
		beta := store.Alloc(o)
		store.AssignedVolume[beta] = slice
		store.CopyOwnerMap(beta, other)
		deltas = append(deltas, delta{parent: other, child: beta})
		store.AddChild(other, beta)
		for _, c := range childEcs {
			store.AddChild(beta, c)
		}
		store.Tree.Insert(o)
		overlapping = append(overlapping, beta)

		res := memoResult{vol: new(big.Int).Set(o.Volume()), ec: beta}
		cache[other] = res
		return res
	}

	seen := make(map[int]bool, len(hits))
	for _, r := range hits {
		alpha := r.Alpha
		if seen[alpha] {
			continue
		}
		seen[alpha] = true
		if _, hasParent := parentOf[alpha]; hasParent {
			continue
		}
		rec(alpha)
	}

	updateRules(store, labels, rule, overlapping, deltas)
}

// updateRules is shared by both insertion algorithms. Each new EC in
// deltas has already inherited its parent's owner map via CopyOwnerMap;
// here its label bits are replayed from that map, since a freshly
// allocated alpha-index starts with every bitmap column clear. The
// "overlapping" set — ECs fully covered by the new rule — then gets the
// priority-strict-less-than owner replacement and label set/clear.
func updateRules(store *ecstore.Store, labels *ecstore.LabelSet, rule *ecstore.Rule, overlapping []int, deltas []delta) {
	for _, d := range deltas {
		for _, owner := range store.OwnerMap[d.child] {
			if owner != nil {
				labels.Set(owner.Link.Index, d.child)
			}
		}
	}

	router := rule.Link.Source.Index
	for _, alpha := range overlapping {
		current := store.Owner(alpha, router)
		if current != nil && current.Priority >= rule.Priority {
			continue
		}
		labels.Set(rule.Link.Index, alpha)
		if current != nil && current.Link.Index != rule.Link.Index {
			labels.Clear(current.Link.Index, alpha)
		}
		store.SetOwner(alpha, router, rule)
	}
}
