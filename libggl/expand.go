package libggl

import (
	"context"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/plan-systems/klog"
)

type ExpandOpts struct {
	MaxRounds int // rewrite rounds to run (0 denotes until no new graphs appear)
	MaxGraphs int // stop once this many graphs are known (0 denotes no limit)
}

// Expand computes the breadth-first closure of seeds under rw.
//
// Each round rewrites the graphs discovered in the previous round; a result is kept only if seen admits it,
// so seen decides when two graphs are the same (e.g. NewDropDupes() or NewGraphSet()).
// Returns the admitted seeds followed by every admitted result, in discovery order.
// If ctx is cancelled, the graphs found so far are returned along with ctx's error.
func Expand(ctx context.Context, seeds []*Graph, rw ggl.Rewriter, opts ExpandOpts, seen ggl.GraphAdder) ([]*Graph, error) {
	var all, frontier []*Graph
	full := func() bool {
		return opts.MaxGraphs > 0 && len(all) >= opts.MaxGraphs
	}

	for _, X := range seeds {
		if full() {
			break
		}
		if seen.TryAddGraph(X) {
			Xc := NewGraph(X)
			all = append(all, Xc)
			frontier = append(frontier, Xc)
		}
	}

	for round := 1; len(frontier) > 0 && !full(); round++ {
		if opts.MaxRounds > 0 && round > opts.MaxRounds {
			break
		}

		var next []*Graph
		for _, X := range frontier {
			rw.Rewrite(X, func(Y ggl.GraphState) bool {
				if ctx.Err() != nil {
					Y.Reclaim()
					return false
				}
				if !seen.TryAddGraph(Y) {
					Y.Reclaim()
					return true
				}
				Yg, copied := asGraph(Y)
				if copied {
					Y.Reclaim()
				}
				all = append(all, Yg)
				next = append(next, Yg)
				expandGraphsTotal.Inc()
				return !full()
			})
			if ctx.Err() != nil || full() {
				break
			}
		}

		klog.V(2).Infof("expand round %d: %d new graphs (%d total)", round, len(next), len(all))
		if err := ctx.Err(); err != nil {
			return all, err
		}
		frontier = next
	}

	return all, nil
}
