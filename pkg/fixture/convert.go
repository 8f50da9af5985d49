package fixture

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowclass/flowclass/pkg/engine"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/packet"
)

// cidrToRange accepts either a CIDR ("10.0.0.0/8") or a bare IPv4
// address ("10.0.0.1", treated as a /32 host route).
func cidrToRange(s string) (packet.Range, error) {
	if !strings.Contains(s, "/") {
		s += "/32"
	}
	rng, _, err := geom.PrefixRange(s)
	return rng, err
}

// ToEngineInputs converts a parsed Document into the inputs
// engine.New consumes. Router and interface iteration is sorted by name
// so repeated loads of the same file produce the same graph-construction
// order.
func (doc *Document) ToEngineInputs() ([]engine.RouterInput, map[string]engine.ACLInput, []engine.LinkInput, error) {
	routerNames := make([]string, 0, len(doc.Routers))
	for name := range doc.Routers {
		routerNames = append(routerNames, name)
	}
	sort.Strings(routerNames)

	routers := make([]engine.RouterInput, 0, len(routerNames))
	for _, name := range routerNames {
		def := doc.Routers[name]

		ifaceNames := make([]string, 0, len(def.Interfaces))
		for iname := range def.Interfaces {
			ifaceNames = append(ifaceNames, iname)
		}
		sort.Strings(ifaceNames)

		ifaces := make([]engine.InterfaceInput, 0, len(ifaceNames))
		for _, iname := range ifaceNames {
			idef := def.Interfaces[iname]
			ifaces = append(ifaces, engine.InterfaceInput{
				Name:        iname,
				OutboundACL: idef.OutboundACL,
				InboundACL:  idef.InboundACL,
			})
		}

		fib := make([]engine.FIBEntry, 0, len(def.FIB))
		for _, entry := range def.FIB {
			fib = append(fib, engine.FIBEntry{Prefix: entry.Prefix, Interface: entry.Interface})
		}

		routers = append(routers, engine.RouterInput{Name: name, Interfaces: ifaces, FIB: fib})
	}

	acls := make(map[string]engine.ACLInput, len(doc.ACLs))
	for name, def := range doc.ACLs {
		lines := make([]engine.ACLLine, 0, len(def.Lines))
		for i, lineDef := range def.Lines {
			hs, err := lineDef.toHeaderSpace()
			if err != nil {
				return nil, nil, nil, fmt.Errorf("fixture: acl %s line %d: %w", name, i, err)
			}
			action := engine.Accept
			if lineDef.Action == "deny" {
				action = engine.Deny
			}
			lines = append(lines, engine.ACLLine{Match: hs, Action: action})
		}
		acls[name] = engine.ACLInput{Lines: lines}
	}

	links := make([]engine.LinkInput, 0, len(doc.Links))
	for _, l := range doc.Links {
		links = append(links, engine.LinkInput{
			RouterA: l.RouterA, IfaceA: l.IfaceA,
			RouterB: l.RouterB, IfaceB: l.IfaceB,
		})
	}

	return routers, acls, links, nil
}

// toHeaderSpace builds a packet.HeaderSpace from the match fields
// actually set on the line; an absent field leaves that axis
// unconstrained.
func (l ACLLineDef) toHeaderSpace() (packet.HeaderSpace, error) {
	hs := packet.NewHeaderSpace()

	if l.DstIP != "" {
		rng, err := cidrToRange(l.DstIP)
		if err != nil {
			return hs, err
		}
		hs = hs.Include(packet.FieldDstIP, rng)
	}
	if l.SrcIP != "" {
		rng, err := cidrToRange(l.SrcIP)
		if err != nil {
			return hs, err
		}
		hs = hs.Include(packet.FieldSrcIP, rng)
	}
	if l.Protocol != nil {
		hs = hs.Include(packet.FieldIPProtocol, packet.Range{Lo: int64(*l.Protocol), Hi: int64(*l.Protocol) + 1})
	}
	if l.DstPort != nil {
		hs = hs.Include(packet.FieldDstPort, packet.Range{Lo: int64(*l.DstPort), Hi: int64(*l.DstPort) + 1})
	}
	if l.SrcPort != nil {
		hs = hs.Include(packet.FieldSrcPort, packet.Range{Lo: int64(*l.SrcPort), Hi: int64(*l.SrcPort) + 1})
	}

	return hs, nil
}
