// Package engine wires the geometric equivalence-class index, the
// forwarding graph, and the reachability search into the single bulk-
// constructed object a caller queries.
package engine

import (
	"fmt"
	"sort"

	"github.com/flowclass/flowclass/pkg/cache"
	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/kdtree"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/rules"
	"github.com/flowclass/flowclass/pkg/topology"
	"github.com/flowclass/flowclass/pkg/util"
)

// BackendType selects the EC representation the engine maintains.
type BackendType = rules.BackendType

const (
	Classic           = rules.Classic
	DifferenceOfCubes = rules.DifferenceOfCubes
)

// Engine is a sequentially-used, single-shot-construction reachability
// index: one bulk build from a router/ACL/topology input, followed by
// any number of read-only Reachable queries.
type Engine struct {
	graph   *topology.Graph
	store   *ecstore.Store
	labels  *ecstore.LabelSet
	space   *geom.Space
	backend BackendType
	cache   cache.Store
}

// Stats summarizes the live engine state, useful for verifying the
// append-only growth invariant during manual testing.
type Stats struct {
	ECs       int
	LiveRects int
	Links     int
}

// Graph exposes the constructed forwarding graph, for callers that
// decode cached paths or render traces.
func (e *Engine) Graph() *topology.Graph {
	return e.graph
}

// SetCache replaces the query cache backend. Answers already cached in
// the previous backend are simply recomputed on their next miss.
func (e *Engine) SetCache(c cache.Store) {
	e.cache = c
}

// Stats reports the current EC count, live-rectangle count, and link
// count.
func (e *Engine) Stats() Stats {
	return Stats{
		ECs:       e.store.NumECs(),
		LiveRects: len(e.store.Tree.All()),
		Links:     len(e.graph.Links),
	}
}

// New is the engine's one bulk construction phase: it builds the
// forwarding graph, derives the active packet-field space, synthesizes
// FIB, ACL, and default-deny rules, bulk-loads them, and returns the
// wired engine. Bad input fails construction rather than panicking.
func New(routers []RouterInput, acls map[string]ACLInput, links []LinkInput, backend BackendType) (*Engine, error) {
	return NewWithCache(routers, acls, links, backend, cache.NewMemStore())
}

// NewWithCache is New with an explicit query cache backend (see
// pkg/cache), letting callers plug in a Redis-backed store.
func NewWithCache(routers []RouterInput, acls map[string]ACLInput, links []LinkInput, backend BackendType, queryCache cache.Store) (*Engine, error) {
	if backend != Classic && backend != DifferenceOfCubes {
		return nil, util.ErrInvalidBackend
	}

	topoRouters := make([]topology.RouterSpec, 0, len(routers))
	for _, r := range routers {
		ifaces := make([]topology.InterfaceSpec, 0, len(r.Interfaces))
		for _, i := range r.Interfaces {
			if i.OutboundACL != "" {
				if _, ok := acls[i.OutboundACL]; !ok {
					return nil, fmt.Errorf("%w: router %s interface %s references unknown ACL %q", util.ErrUnknownInterface, r.Name, i.Name, i.OutboundACL)
				}
			}
			if i.InboundACL != "" {
				if _, ok := acls[i.InboundACL]; !ok {
					return nil, fmt.Errorf("%w: router %s interface %s references unknown ACL %q", util.ErrUnknownInterface, r.Name, i.Name, i.InboundACL)
				}
			}
			ifaces = append(ifaces, topology.InterfaceSpec{
				Name:        i.Name,
				OutboundACL: i.OutboundACL,
				InboundACL:  i.InboundACL,
			})
		}
		topoRouters = append(topoRouters, topology.RouterSpec{Name: r.Name, Interfaces: ifaces})
	}

	topoLinks := make([]topology.LinkSpec, 0, len(links))
	for _, l := range links {
		topoLinks = append(topoLinks, topology.LinkSpec{
			RouterA: l.RouterA, IfaceA: l.IfaceA,
			RouterB: l.RouterB, IfaceB: l.IfaceB,
		})
	}

	graph, err := topology.Build(topoRouters, topoLinks)
	if err != nil {
		return nil, err
	}

	space := activeFieldSpace(acls)
	tree := kdtree.New(space.K())
	store := ecstore.NewStore(tree, space.FullSpace())
	labels := ecstore.NewLabelSet(len(graph.Links))

	ruleList, err := deriveRules(routers, acls, graph, space)
	if err != nil {
		return nil, err
	}
	rules.BulkLoad(store, labels, ruleList, backend)

	util.WithFields(map[string]interface{}{
		"routers": len(routers),
		"nodes":   len(graph.Nodes),
		"links":   len(graph.Links),
		"rules":   len(ruleList),
		"ecs":     store.NumECs(),
		"fields":  space.K(),
	}).Info("engine constructed")

	return &Engine{
		graph:   graph,
		store:   store,
		labels:  labels,
		space:   space,
		backend: backend,
		cache:   queryCache,
	}, nil
}

// activeFieldSpace enables every PacketField referenced by any ACL
// line's match predicate, always including destination IP. The
// collected fields are sorted by their Field value so the axis
// ordering — and with it the KD-tree shape and subtraction slab order —
// is reproducible regardless of map iteration order.
func activeFieldSpace(acls map[string]ACLInput) *geom.Space {
	seen := make(map[packet.Field]bool)
	seen[packet.FieldDstIP] = true

	var rest []packet.Field
	for _, acl := range acls {
		for _, line := range acl.Lines {
			for _, f := range line.Match.ActiveFields() {
				if seen[f] {
					continue
				}
				seen[f] = true
				rest = append(rest, f)
			}
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	return geom.NewSpace(append([]packet.Field{packet.FieldDstIP}, rest...))
}
