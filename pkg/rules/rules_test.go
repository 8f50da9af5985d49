package rules

import (
	"testing"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/kdtree"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/topology"
)

// twoRouterGraph returns a minimal r1 -(eth0)-> r2 graph with no ACLs,
// giving link index 0 the r1->r2 forward edge.
func twoRouterGraph(t *testing.T) *topology.Graph {
	t.Helper()
	g, err := topology.Build([]topology.RouterSpec{
		{Name: "r1", Interfaces: []topology.InterfaceSpec{{Name: "eth0"}}},
		{Name: "r2", Interfaces: []topology.InterfaceSpec{{Name: "eth0"}}},
	}, []topology.LinkSpec{{RouterA: "r1", IfaceA: "eth0", RouterB: "r2", IfaceB: "eth0"}})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func linkFrom(g *topology.Graph, router string) *topology.Link {
	n, _ := g.RouterNode(router)
	return g.OutLinks(n)[0]
}

func newFixture(t *testing.T) (*ecstore.Store, *ecstore.LabelSet, *topology.Graph) {
	t.Helper()
	g := twoRouterGraph(t)
	tree := kdtree.New(1)
	full := geom.NewRect([]packet.Range{{Lo: 0, Hi: 1 << 32}})
	store := ecstore.NewStore(tree, full)
	labels := ecstore.NewLabelSet(len(g.Links))
	return store, labels, g
}

func TestInsertClassic_SingleRule(t *testing.T) {
	store, labels, g := newFixture(t)
	link := linkFrom(g, "r1")

	rule := &ecstore.Rule{
		Link:     link,
		Rect:     geom.NewRect([]packet.Range{{Lo: 10, Hi: 20}}),
		Priority: 8,
	}
	InsertClassic(store, labels, rule)

	// The full-space EC splits into [0,10), [10,20), [20,2^32): 3 ECs.
	if store.NumECs() != 3 {
		t.Fatalf("expected a 3-way split, got %d ECs", store.NumECs())
	}

	var sawMatch, sawRest int
	for _, r := range store.Tree.All() {
		if r.Bounds[0] == (packet.Range{Lo: 10, Hi: 20}) {
			sawMatch++
			if !labels.Test(link.Index, r.Alpha) {
				t.Error("the matching EC should have its label bit set on the rule's link")
			}
		} else {
			sawRest++
			if labels.Test(link.Index, r.Alpha) {
				t.Error("ECs outside the rule's rectangle should not be labelled")
			}
		}
	}
	if sawMatch != 1 {
		t.Errorf("expected exactly one EC equal to the rule's rectangle, got %d", sawMatch)
	}
}

func TestInsertClassic_HigherPriorityWins(t *testing.T) {
	store, labels, g := newFixture(t)
	r1Link := linkFrom(g, "r1")

	low := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 0, Hi: 100}}), Priority: 1}
	InsertClassic(store, labels, low)

	high := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 10, Hi: 20}}), Priority: 10}
	InsertClassic(store, labels, high)

	for _, r := range store.Tree.All() {
		if r.Bounds[0] == (packet.Range{Lo: 10, Hi: 20}) {
			if store.Owner(r.Alpha, r1Link.Source.Index) != high {
				t.Error("expected the higher-priority rule to own the overlapping EC")
			}
		}
	}
}

func TestInsertClassic_LowerPriorityLoses(t *testing.T) {
	store, labels, g := newFixture(t)
	r1Link := linkFrom(g, "r1")

	high := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 0, Hi: 100}}), Priority: 10}
	InsertClassic(store, labels, high)

	low := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 10, Hi: 20}}), Priority: 1}
	InsertClassic(store, labels, low)

	for _, r := range store.Tree.All() {
		if r.Bounds[0] == (packet.Range{Lo: 10, Hi: 20}) {
			if store.Owner(r.Alpha, r1Link.Source.Index) != high {
				t.Error("a lower-priority rule must not displace the existing owner")
			}
			if !labels.Test(r1Link.Index, r.Alpha) {
				t.Error("the original owner's label bit must remain set")
			}
		}
	}
}

func TestInsertDoC_AttributedVolume(t *testing.T) {
	store, labels, g := newFixture(t)
	r1Link := linkFrom(g, "r1")

	outer := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 0, Hi: 100}}), Priority: 1}
	InsertDoC(store, labels, outer)

	inner := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 20, Hi: 40}}), Priority: 5}
	InsertDoC(store, labels, inner)

	// assignedVolume(alpha) == vol(rect) - sum(vol(children)).
	for alpha := 0; alpha < store.NumECs(); alpha++ {
		childVol := int64(0)
		for _, c := range store.Children[alpha] {
			childVol += store.Rects[c].Volume().Int64()
		}
		want := store.Rects[alpha].Volume().Int64() - childVol
		if store.AssignedVolume[alpha].Int64() != want {
			t.Errorf("EC %d: assignedVolume = %s, want %d", alpha, store.AssignedVolume[alpha], want)
		}
	}
}

func TestBulkLoad_ACLBeforeFIB(t *testing.T) {
	store, labels, g := newFixture(t)
	r1Link := linkFrom(g, "r1")

	fib := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 0, Hi: 1 << 32}}), Priority: 0, Kind: ecstore.RuleFIB}
	acl := &ecstore.Rule{Link: r1Link, Rect: geom.NewRect([]packet.Range{{Lo: 10, Hi: 20}}), Priority: 100, Kind: ecstore.RuleACL}

	BulkLoad(store, labels, []*ecstore.Rule{fib, acl}, Classic)

	for _, r := range store.Tree.All() {
		if r.Bounds[0] == (packet.Range{Lo: 10, Hi: 20}) {
			if store.Owner(r.Alpha, r1Link.Source.Index) != acl {
				t.Error("expected the ACL rule to own its matching EC after bulk load")
			}
		}
	}
}

// A freshly split-off overlap EC must carry its inherited owner's label
// bits, even when the inserting rule loses the priority comparison:
// ruleX (prio 5) owns [20,40) on one link; ruleY (prio 3) covering
// [10,30) splits off [20,30), which must stay labelled on ruleX's link.
func TestInsertClassic_SplitChildInheritsLabels(t *testing.T) {
	store, labels, g := newFixture(t)
	r1, _ := g.RouterNode("r1")
	linkA := g.OutLinks(r1)[0]
	linkB := g.OutLinks(r1)[1]

	ruleX := &ecstore.Rule{Link: linkA, Rect: geom.NewRect([]packet.Range{{Lo: 20, Hi: 40}}), Priority: 5}
	InsertClassic(store, labels, ruleX)

	ruleY := &ecstore.Rule{Link: linkB, Rect: geom.NewRect([]packet.Range{{Lo: 10, Hi: 30}}), Priority: 3}
	InsertClassic(store, labels, ruleY)

	for _, r := range store.Tree.All() {
		b := r.Bounds[0]
		switch {
		case b.Lo >= 20 && b.Hi <= 40:
			if store.Owner(r.Alpha, r1.Index) != ruleX {
				t.Errorf("EC %v: expected ruleX to keep ownership", b)
			}
			if !labels.Test(linkA.Index, r.Alpha) {
				t.Errorf("EC %v: inherited label bit missing on ruleX's link", b)
			}
			if labels.Test(linkB.Index, r.Alpha) {
				t.Errorf("EC %v: losing rule must not set its label", b)
			}
		case b.Lo >= 10 && b.Hi <= 20:
			if store.Owner(r.Alpha, r1.Index) != ruleY {
				t.Errorf("EC %v: expected ruleY to own the uncontested region", b)
			}
			if !labels.Test(linkB.Index, r.Alpha) {
				t.Errorf("EC %v: ruleY's label bit missing", b)
			}
		}
	}
}

// Same inheritance requirement in difference-of-cubes mode: every EC
// with an owner must have exactly that owner's link labelled.
func TestInsertDoC_SplitChildInheritsLabels(t *testing.T) {
	store, labels, g := newFixture(t)
	r1, _ := g.RouterNode("r1")
	linkA := g.OutLinks(r1)[0]
	linkB := g.OutLinks(r1)[1]

	ruleX := &ecstore.Rule{Link: linkA, Rect: geom.NewRect([]packet.Range{{Lo: 20, Hi: 40}}), Priority: 5}
	InsertDoC(store, labels, ruleX)

	ruleY := &ecstore.Rule{Link: linkB, Rect: geom.NewRect([]packet.Range{{Lo: 10, Hi: 30}}), Priority: 3}
	InsertDoC(store, labels, ruleY)

	for alpha := 0; alpha < store.NumECs(); alpha++ {
		owner := store.Owner(alpha, r1.Index)
		if owner == nil {
			continue
		}
		if !labels.Test(owner.Link.Index, alpha) {
			t.Errorf("EC %d: owner's label bit not set", alpha)
		}
		other := linkA
		if owner.Link == linkA {
			other = linkB
		}
		if labels.Test(other.Index, alpha) {
			t.Errorf("EC %d: label bit set on a non-owner link", alpha)
		}
	}
}
