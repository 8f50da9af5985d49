package rules

import (
	"math/rand"
	"sort"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/util"
)

// BackendType selects which EC representation BulkLoad and the engine
// maintain.
type BackendType int

const (
	Classic BackendType = iota
	DifferenceOfCubes
)

// bulkLoadSeed is the fixed PRNG seed that makes the bulk-load shuffle
// deterministic across runs.
const bulkLoadSeed = 7

// BulkLoad ingests rules in the ordering that gives the KD-tree good
// initial splits: sort by rectangle bounds (lexicographic), shuffle
// deterministically, then stable-partition so every ACL rule is
// inserted before any FIB rule.
func BulkLoad(store *ecstore.Store, labels *ecstore.LabelSet, rules []*ecstore.Rule, backend BackendType) {
	ordered := make([]*ecstore.Rule, len(rules))
	copy(ordered, rules)

	sort.SliceStable(ordered, func(i, j int) bool {
		return lessLex(ordered[i].Rect.Bounds, ordered[j].Rect.Bounds)
	})

	rng := rand.New(rand.NewSource(bulkLoadSeed))
	rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})

	acl := ordered[:0:0]
	var fib []*ecstore.Rule
	for _, r := range ordered {
		if r.Kind == ecstore.RuleACL {
			acl = append(acl, r)
		} else {
			fib = append(fib, r)
		}
	}
	ordered = append(acl, fib...)

	insert := InsertClassic
	if backend == DifferenceOfCubes {
		insert = InsertDoC
	}
	for _, r := range ordered {
		before := store.NumECs()
		insert(store, labels, r)
		util.WithFields(map[string]interface{}{
			"priority": r.Priority,
			"link":     r.Link.Index,
			"new_ecs":  store.NumECs() - before,
		}).Debug("rule inserted")
	}
}

func lessLex(a, b []packet.Range) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i].Lo != b[i].Lo {
			return a[i].Lo < b[i].Lo
		}
		if a[i].Hi != b[i].Hi {
			return a[i].Hi < b[i].Hi
		}
	}
	return len(a) < len(b)
}
