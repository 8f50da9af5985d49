package engine

import (
	"fmt"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/topology"
	"github.com/flowclass/flowclass/pkg/util"
)

// deriveRules turns the router FIBs and ACL definitions into the rule
// list BulkLoad ingests: one FIB rule per row, one ACL rule per line
// plus a synthesized priority-0 default-deny line per bound ACL
// direction.
func deriveRules(routers []RouterInput, acls map[string]ACLInput, g *topology.Graph, space *geom.Space) ([]*ecstore.Rule, error) {
	var out []*ecstore.Rule

	seenACLBindings := make(map[string]bool) // "router/IN|OUT/iface/aclName"

	for _, r := range routers {
		routerNode, ok := g.RouterNode(r.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", util.ErrUnknownRouter, r.Name)
		}

		for _, entry := range r.FIB {
			rect, prefixLen, err := space.FromPrefix(entry.Prefix)
			if err != nil {
				return nil, err
			}
			link, ok := g.LinkFromIface(routerNode, entry.Interface)
			if !ok {
				return nil, fmt.Errorf("%w: router %s has no interface %q", util.ErrUnknownInterface, r.Name, entry.Interface)
			}
			out = append(out, &ecstore.Rule{Link: link, Rect: rect, Priority: prefixLen, Kind: ecstore.RuleFIB})
		}

		for _, iface := range r.Interfaces {
			if iface.OutboundACL != "" {
				rules, err := aclRules(g, acls, r.Name, "OUT", iface.Name, iface.OutboundACL, space)
				if err != nil {
					return nil, err
				}
				out = append(out, rules...)
				seenACLBindings[r.Name+"/OUT/"+iface.Name+"/"+iface.OutboundACL] = true
			}
			if iface.InboundACL != "" {
				rules, err := aclRules(g, acls, r.Name, "IN", iface.Name, iface.InboundACL, space)
				if err != nil {
					return nil, err
				}
				out = append(out, rules...)
				seenACLBindings[r.Name+"/IN/"+iface.Name+"/"+iface.InboundACL] = true
			}
		}
	}

	return out, nil
}

// aclRules builds one rule per ACL line plus the synthesized default-
// deny line, targeting the ACL node's accept or drop branch per line
// action. The default-deny line is tagged RuleFIB: it is conceptually
// part of the ACL but rides in the non-ACL bulk-load bucket, per the
// bucket-assignment call recorded in the design notes — only the
// resulting priority-0 default deny behavior is guaranteed.
func aclRules(g *topology.Graph, acls map[string]ACLInput, router, direction, iface, aclName string, space *geom.Space) ([]*ecstore.Rule, error) {
	acl, ok := acls[aclName]
	if !ok {
		return nil, fmt.Errorf("%w: router %s interface %s references unknown ACL %q", util.ErrUnknownInterface, router, iface, aclName)
	}
	aclNode, ok := g.ACLNode(direction, router, iface, aclName)
	if !ok {
		return nil, fmt.Errorf("%w: ACL node missing for router %s interface %s direction %s", util.ErrInvariantViolation, router, iface, direction)
	}
	toDrop, forward := g.ACLLinks(aclNode)

	n := len(acl.Lines)
	out := make([]*ecstore.Rule, 0, n+1)
	for i, line := range acl.Lines {
		rect := space.FromACLLine(line.Match)
		link := forward
		if line.Action == Deny {
			link = toDrop
		}
		out = append(out, &ecstore.Rule{Link: link, Rect: rect, Priority: n - i, Kind: ecstore.RuleACL})
	}

	out = append(out, &ecstore.Rule{Link: toDrop, Rect: space.FullSpace(), Priority: 0, Kind: ecstore.RuleFIB})
	return out, nil
}
