package topology

import "github.com/flowclass/flowclass/pkg/util"

// InterfaceSpec describes one router interface and the ACLs, if any,
// bound to its outbound and inbound directions.
type InterfaceSpec struct {
	Name        string
	OutboundACL string // ACL name, or "" if none bound
	InboundACL  string // ACL name, or "" if none bound
}

// RouterSpec describes one router: its name and interfaces.
type RouterSpec struct {
	Name       string
	Interfaces []InterfaceSpec
}

// LinkSpec is one directed physical link: packets leave RouterA out
// IfaceA and arrive at RouterB on IfaceB.
type LinkSpec struct {
	RouterA, IfaceA string
	RouterB, IfaceB string
}

// Build constructs the forwarding graph from a router/interface topology
// and its directed physical links.
//
// Node creation order: the drop sink first (index 0), then for each
// router in input order its router node, then for each of its interfaces
// in order its outbound ACL node (if bound) followed by its inbound ACL
// node (if bound).
func Build(routers []RouterSpec, links []LinkSpec) (*Graph, error) {
	g := &Graph{
		routerByName: make(map[string]*Node),
		aclNodes:     make(map[string]*Node),
	}
	g.addNode(&Node{Kind: NodeDropSink, Name: DropSinkName})

	type ifaceKey struct{ router, iface string }
	ifaceByKey := make(map[ifaceKey]InterfaceSpec)

	for _, r := range routers {
		if _, dup := g.routerByName[r.Name]; dup {
			return nil, util.NewConfigError("topology.Build", r.Name, "duplicate router name")
		}
		rn := g.addNode(&Node{Kind: NodeRouter, Name: r.Name, Router: r.Name})
		g.routerByName[r.Name] = rn

		for _, iface := range r.Interfaces {
			ifaceByKey[ifaceKey{r.Name, iface.Name}] = iface

			if iface.OutboundACL != "" {
				name := aclNodeName("OUT", r.Name, iface.Name, iface.OutboundACL)
				n := g.addNode(&Node{
					Kind: NodeACLOut, Name: name, Router: r.Name,
					Interface: iface.Name, ACLName: iface.OutboundACL,
				})
				g.aclNodes[name] = n
			}
			if iface.InboundACL != "" {
				name := aclNodeName("IN", r.Name, iface.Name, iface.InboundACL)
				n := g.addNode(&Node{
					Kind: NodeACLIn, Name: name, Router: r.Name,
					Interface: iface.Name, ACLName: iface.InboundACL,
				})
				g.aclNodes[name] = n
			}
		}
	}

	// acl looks up the (possibly absent) ACL node bound to router:iface in
	// the given direction.
	acl := func(router, iface string, out bool) *Node {
		spec, ok := ifaceByKey[ifaceKey{router, iface}]
		if !ok {
			return nil
		}
		if out {
			if spec.OutboundACL == "" {
				return nil
			}
			return g.aclNodes[aclNodeName("OUT", router, iface, spec.OutboundACL)]
		}
		if spec.InboundACL == "" {
			return nil
		}
		return g.aclNodes[aclNodeName("IN", router, iface, spec.InboundACL)]
	}

	sourceUsed := make(map[ifaceKey]bool)

	for _, l := range links {
		src, ok := g.routerByName[l.RouterA]
		if !ok {
			return nil, util.NewConfigError("topology.Build", l.RouterA, "unknown router in link")
		}
		dst, ok := g.routerByName[l.RouterB]
		if !ok {
			return nil, util.NewConfigError("topology.Build", l.RouterB, "unknown router in link")
		}
		sourceUsed[ifaceKey{l.RouterA, l.IfaceA}] = true
		g.wireChain(src, l.IfaceA, dst, l.IfaceB, acl(l.RouterA, l.IfaceA, true), acl(l.RouterB, l.IfaceB, false))
	}

	// Synthetic drop edges for interfaces never used as a link source —
	// traffic routed out of them has no neighbor to reach.
	for _, r := range routers {
		for _, iface := range r.Interfaces {
			key := ifaceKey{r.Name, iface.Name}
			if sourceUsed[key] {
				continue
			}
			src := g.routerByName[r.Name]
			g.wireChain(src, iface.Name, g.DropSink(), NullInterface, acl(r.Name, iface.Name, true), nil)
		}
	}

	// One null-route link per router, bypassing any interface ACL.
	for _, r := range routers {
		src := g.routerByName[r.Name]
		g.addLink(src, g.DropSink(), NullInterface, NullInterface)
	}

	return g, nil
}

// wireChain builds the 1/3/4-link chain between src:srcIface and
// dst:dstIface depending on which of outACL/inACL are present. Every ACL
// node, wherever it appears in the chain, gets exactly two outgoing
// links: one to the drop sink over null_interface (the reject branch)
// and one to its downstream neighbor (the accept branch).
func (g *Graph) wireChain(src *Node, srcIface string, dst *Node, dstIface string, outACL, inACL *Node) {
	switch {
	case outACL != nil && inACL != nil:
		g.addLink(src, outACL, srcIface, EnterOutboundACL)
		g.addLink(outACL, g.DropSink(), NullInterface, NullInterface)
		g.addLink(outACL, inACL, ExitOutboundACL, EnterInboundACL)
		g.addLink(inACL, g.DropSink(), NullInterface, NullInterface)
		g.addLink(inACL, dst, ExitInboundACL, dstIface)

	case outACL != nil:
		g.addLink(src, outACL, srcIface, EnterOutboundACL)
		g.addLink(outACL, g.DropSink(), NullInterface, NullInterface)
		g.addLink(outACL, dst, ExitOutboundACL, dstIface)

	case inACL != nil:
		g.addLink(src, inACL, srcIface, EnterInboundACL)
		g.addLink(inACL, g.DropSink(), NullInterface, NullInterface)
		g.addLink(inACL, dst, ExitInboundACL, dstIface)

	default:
		g.addLink(src, dst, srcIface, dstIface)
	}
}
