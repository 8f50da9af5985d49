package reachability

import (
	"testing"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/kdtree"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/rules"
	"github.com/flowclass/flowclass/pkg/topology"
)

func buildFixture(t *testing.T, routers []topology.RouterSpec, links []topology.LinkSpec) (*topology.Graph, *ecstore.Store, *ecstore.LabelSet) {
	t.Helper()
	g, err := topology.Build(routers, links)
	if err != nil {
		t.Fatal(err)
	}
	tree := kdtree.New(1)
	full := geom.NewRect([]packet.Range{{Lo: 0, Hi: 1 << 32}})
	store := ecstore.NewStore(tree, full)
	labels := ecstore.NewLabelSet(len(g.Links))
	return g, store, labels
}

// Two routers, no ACLs: with EC 0 labelled on r1 -> r2 and on r2's
// unconnected egress (modeled as a synthetic drop edge, since the
// topology ends there), the flow reaching that egress counts as ACCEPTED.
func TestSearch_Accepted(t *testing.T) {
	g, store, labels := buildFixture(t,
		[]topology.RouterSpec{
			{Name: "r1", Interfaces: []topology.InterfaceSpec{{Name: "ifaceA"}}},
			{Name: "r2", Interfaces: []topology.InterfaceSpec{{Name: "ifaceB"}, {Name: "egress"}}},
		},
		[]topology.LinkSpec{{RouterA: "r1", IfaceA: "ifaceA", RouterB: "r2", IfaceB: "ifaceB"}},
	)

	r1, _ := g.RouterNode("r1")
	r2, _ := g.RouterNode("r2")
	l1 := g.OutLinks(r1)[0] // r1 -> r2
	var l2 *topology.Link
	for _, l := range g.OutLinks(r2) {
		if l.SourceIface == "egress" {
			l2 = l
		}
	}
	if l2 == nil {
		t.Fatal("expected r2's unconnected interface to produce a synthetic drop edge")
	}

	labels.Set(l1.Index, 0)
	labels.Set(l2.Index, 0)
	store.SetOwner(0, r1.Index, &ecstore.Rule{Priority: 0})
	store.SetOwner(0, r2.Index, &ecstore.Rule{Priority: 0})

	ans, err := Search(g, labels, 0, packet.DispositionAccept, []string{"r1"}, []string{"r2"})
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Found() || ans.Disposition != packet.DispositionAccept {
		t.Fatalf("expected ACCEPTED, got %+v", ans)
	}
	if len(ans.Path) != 2 {
		t.Errorf("expected a 2-hop path, got %d hops", len(ans.Path))
	}
}

// Outbound ACL deny: an outbound ACL at r1 denies the flow.
func TestSearch_DeniedOut(t *testing.T) {
	g, store, labels := buildFixture(t,
		[]topology.RouterSpec{
			{Name: "r1", Interfaces: []topology.InterfaceSpec{{Name: "ifaceA", OutboundACL: "block"}}},
			{Name: "r2", Interfaces: []topology.InterfaceSpec{{Name: "ifaceB"}}},
		},
		[]topology.LinkSpec{{RouterA: "r1", IfaceA: "ifaceA", RouterB: "r2", IfaceB: "ifaceB"}},
	)

	r1, _ := g.RouterNode("r1")
	outACL := g.OutLinks(r1)[0].Target
	var toDrop *topology.Link
	for _, l := range g.OutLinks(outACL) {
		if l.Target == g.DropSink() {
			toDrop = l
		}
	}
	labels.Set(g.OutLinks(r1)[0].Index, 0)
	labels.Set(toDrop.Index, 0)
	store.SetOwner(0, r1.Index, &ecstore.Rule{Priority: 0})

	ans, err := Search(g, labels, 0, packet.DropACLOut, []string{"r1"}, []string{"r1"})
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Found() || ans.Disposition != packet.DispositionDenyOut {
		t.Fatalf("expected DENIED_OUT, got %+v", ans)
	}
}

// Null route: a null route drops the flow.
func TestSearch_NullRouted(t *testing.T) {
	g, store, labels := buildFixture(t,
		[]topology.RouterSpec{{Name: "r1", Interfaces: []topology.InterfaceSpec{{Name: "ifaceA"}}}},
		nil,
	)
	r1, _ := g.RouterNode("r1")
	var nullLink *topology.Link
	for _, l := range g.OutLinks(r1) {
		if l.SourceIface == topology.NullInterface {
			nullLink = l
		}
	}
	labels.Set(nullLink.Index, 0)
	store.SetOwner(0, r1.Index, &ecstore.Rule{Priority: 0})

	ans, err := Search(g, labels, 0, packet.DropNullRoute, []string{"r1"}, []string{"r1"})
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Found() || ans.Disposition != packet.DispositionNullRoute {
		t.Fatalf("expected NULL_ROUTED, got %+v", ans)
	}
}

// No matching FIB entry: no FIB entry matches, so no label bit is ever set.
func TestSearch_NoRoute(t *testing.T) {
	g, _, labels := buildFixture(t,
		[]topology.RouterSpec{{Name: "r1", Interfaces: []topology.InterfaceSpec{{Name: "ifaceA"}}}},
		nil,
	)

	ans, err := Search(g, labels, 0, packet.DropNoRoute, []string{"r1"}, []string{"r1"})
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Found() || ans.Disposition != packet.DispositionNoRoute {
		t.Fatalf("expected NO_ROUTE, got %+v", ans)
	}
}

func TestSearch_UnknownRouter(t *testing.T) {
	g, _, labels := buildFixture(t,
		[]topology.RouterSpec{{Name: "r1"}},
		nil,
	)
	_, err := Search(g, labels, 0, packet.DispositionAccept, []string{"ghost"}, []string{"r1"})
	if err == nil {
		t.Fatal("expected an error for an unknown source router")
	}
}

func TestFindRelevantECs_Classic(t *testing.T) {
	tree := kdtree.New(1)
	full := geom.NewRect([]packet.Range{{Lo: 0, Hi: 100}})
	store := ecstore.NewStore(tree, full)

	q := geom.NewRect([]packet.Range{{Lo: 10, Hi: 20}})
	got := FindRelevantECs(store, q, rules.Classic)
	if len(got) != 1 || got[0].Alpha != 0 {
		t.Fatalf("expected the single seeded EC to be relevant, got %+v", got)
	}
}
