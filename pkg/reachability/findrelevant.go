package reachability

import (
	"math/big"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/rules"
)

// RelevantEC is one EC the BFS should be run over, alongside the
// portion of the query rectangle it covers.
type RelevantEC struct {
	Alpha   int
	Overlap *geom.HyperRectangle
}

// FindRelevantECs asks the KD-tree for every live EC intersecting q. In
// classic mode every hit is relevant. In difference-of-cubes mode a hit
// is relevant only if, after recursively subtracting the portion
// already attributed to its descendants, a positive volume remains —
// otherwise its entire overlap with q is accounted for by a more
// specific descendant EC that is itself a separate hit.
func FindRelevantECs(store *ecstore.Store, q *geom.HyperRectangle, backend rules.BackendType) []RelevantEC {
	hits := store.Tree.Intersect(q)

	if backend == rules.Classic {
		out := make([]RelevantEC, 0, len(hits))
		for _, r := range hits {
			o, ok := geom.Overlap(q, r)
			if !ok {
				continue
			}
			out = append(out, RelevantEC{Alpha: r.Alpha, Overlap: o})
		}
		return out
	}

	cache := make(map[int]*big.Int)
	var slice func(alpha int) *big.Int
	slice = func(alpha int) *big.Int {
		if v, ok := cache[alpha]; ok {
			return v
		}
		o, ok := geom.Overlap(q, store.Rects[alpha])
		if !ok {
			v := big.NewInt(0)
			cache[alpha] = v
			return v
		}
		childrenVol := big.NewInt(0)
		for _, c := range store.Children[alpha] {
			childrenVol.Add(childrenVol, slice(c))
		}
		v := new(big.Int).Sub(o.Volume(), childrenVol)
		if v.Sign() < 0 {
			v = big.NewInt(0)
		}
		cache[alpha] = v
		return v
	}

	seen := make(map[int]bool, len(hits))
	var out []RelevantEC
	for _, r := range hits {
		if seen[r.Alpha] {
			continue
		}
		seen[r.Alpha] = true
		if slice(r.Alpha).Sign() <= 0 {
			continue
		}
		o, _ := geom.Overlap(q, store.Rects[r.Alpha])
		out = append(out, RelevantEC{Alpha: r.Alpha, Overlap: o})
	}
	return out
}
