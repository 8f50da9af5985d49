package engine

import (
	"context"

	"github.com/flowclass/flowclass/pkg/cache"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/reachability"
)

// Reachable answers one reachability query: does a packet matching hs,
// entering at one of sources, ever reach one of sinks with a
// disposition in flags? It checks the query cache first, then fans the
// header-space predicate out into its constituent rectangles, narrows
// each to its relevant ECs, and runs the BFS over each until a witness
// is found. A query spanning several rectangles or ECs returns the
// first witness found, in rectangle-then-EC order; callers after an
// exhaustive answer should split hs into disjoint single-field queries.
func (e *Engine) Reachable(ctx context.Context, hs packet.HeaderSpace, flags packet.Disposition, sources, sinks []string) (reachability.AnswerElement, error) {
	key := cache.Key(hs, flags, sources, sinks)
	if ans, ok := e.cache.Get(ctx, key); ok {
		return ans, nil
	}

	for _, rect := range e.space.FromHeaderSpace(hs) {
		for _, rel := range reachability.FindRelevantECs(e.store, rect, e.backend) {
			ans, err := reachability.Search(e.graph, e.labels, rel.Alpha, flags, sources, sinks)
			if err != nil {
				return reachability.AnswerElement{}, err
			}
			if ans.Found() {
				ans.ExampleHeader = e.space.Example(rel.Overlap)
				e.cache.Set(ctx, key, ans)
				return ans, nil
			}
		}
	}

	e.cache.Set(ctx, key, reachability.AnswerElement{})
	return reachability.AnswerElement{}, nil
}
