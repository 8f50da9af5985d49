// Package reachability implements the per-EC breadth-first search that
// answers a reachability query over the labelled forwarding graph, plus
// the relevant-EC selection step that narrows a query's header-space
// predicate down to the ECs worth searching.
package reachability

import (
	"fmt"
	"strings"

	"github.com/flowclass/flowclass/pkg/ecstore"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/topology"
	"github.com/flowclass/flowclass/pkg/util"
)

// AnswerElement is the result of one reachability query: either a
// concrete witness (Found() true) or the empty sentinel.
type AnswerElement struct {
	Disposition   packet.Disposition
	Alpha         int
	Path          []*topology.Link
	ExampleHeader map[packet.Field]int64
}

// Found reports whether this AnswerElement carries a witness.
func (a AnswerElement) Found() bool {
	return a.Disposition != 0
}

// Search runs the per-EC BFS over graph for EC alpha, visiting nodes
// first-seen from sources and checking disposition outcomes at every
// node owned by a router in sinks, in the fixed priority order
// ACCEPTED, DENIED_IN, DENIED_OUT, NULL_ROUTED, and (once a sink node's
// outgoing links are exhausted with none enabled) NO_ROUTE.
func Search(g *topology.Graph, labels *ecstore.LabelSet, alpha int, flags packet.Disposition, sources, sinks []string) (AnswerElement, error) {
	sourceNodes, err := resolveRouters(g, sources)
	if err != nil {
		return AnswerElement{}, err
	}
	sinkNodes, err := resolveRouters(g, sinks)
	if err != nil {
		return AnswerElement{}, err
	}
	sinkSet := make(map[*topology.Node]bool, len(sinkNodes))
	for _, n := range sinkNodes {
		sinkSet[n] = true
	}

	visited := make(map[*topology.Node]bool)
	predecessor := make(map[*topology.Node]*topology.Link)
	queue := make([]*topology.Node, 0, len(sourceNodes))
	for _, s := range sourceNodes {
		if visited[s] {
			continue
		}
		visited[s] = true
		predecessor[s] = nil
		queue = append(queue, s)
	}

	dropSink := g.DropSink()

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		ownerInSinks := sinkSet[u.Owner(g)]
		anyEnabled := false

		for _, l := range g.OutLinks(u) {
			if !labels.Test(l.Index, alpha) {
				continue
			}
			anyEnabled = true
			if !visited[l.Target] {
				visited[l.Target] = true
				predecessor[l.Target] = l
				queue = append(queue, l.Target)
			}

			if !ownerInSinks || l.Target != dropSink {
				continue
			}

			switch {
			case flags.Has(packet.DispositionAccept) && l.SourceIface != topology.NullInterface:
				return finish(predecessor, l.Target, packet.DispositionAccept, alpha), nil
			case strings.HasPrefix(u.Name, "ACL-IN") && flags.Any(packet.DropACLIn):
				return finish(predecessor, l.Target, packet.DispositionDenyIn, alpha), nil
			case strings.HasPrefix(u.Name, "ACL-OUT") && flags.Any(packet.DropACLOut):
				return finish(predecessor, l.Target, packet.DispositionDenyOut, alpha), nil
			case l.SourceIface == topology.NullInterface && flags.Any(packet.DropNullRoute):
				return finish(predecessor, l.Target, packet.DispositionNullRoute, alpha), nil
			}
		}

		if ownerInSinks && !anyEnabled && flags.Any(packet.DropNoRoute) {
			return finish(predecessor, u, packet.DispositionNoRoute, alpha), nil
		}
	}

	return AnswerElement{}, nil
}

func finish(predecessor map[*topology.Node]*topology.Link, terminal *topology.Node, disposition packet.Disposition, alpha int) AnswerElement {
	var path []*topology.Link
	for n := terminal; ; {
		l, ok := predecessor[n]
		if !ok || l == nil {
			break
		}
		path = append([]*topology.Link{l}, path...)
		n = l.Source
	}
	return AnswerElement{Disposition: disposition, Alpha: alpha, Path: path}
}

func resolveRouters(g *topology.Graph, names []string) ([]*topology.Node, error) {
	nodes := make([]*topology.Node, 0, len(names))
	for _, name := range names {
		n, ok := g.RouterNode(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", util.ErrUnknownRouter, name)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
