package libggl

import (
	"context"

	"github.com/fine-structures/graph-grammar/ggl"
	"golang.org/x/sync/errgroup"
)

// RuleSet applies a list of rules with shared options and implements ggl.Rewriter.
type RuleSet struct {
	Rules []*Rule
	Opts  ApplyOpts

	// OnApplied is called with each result before it is emitted.
	// It is called from several goroutines at once during ApplyParallel.
	OnApplied func(rule *Rule, X, Y *Graph)
}

func NewRuleSet(opts ApplyOpts, rules ...*Rule) *RuleSet {
	return &RuleSet{
		Rules: rules,
		Opts:  opts,
	}
}

func (rs *RuleSet) Add(rules ...*Rule) {
	rs.Rules = append(rs.Rules, rules...)
}

// asGraph returns X as a *Graph, copying it if X is another kind of graph.
func asGraph(X ggl.Graph) (Xg *Graph, copied bool) {
	if Xg, ok := X.(*Graph); ok {
		return Xg, false
	}
	return NewGraphFromView(X), true
}

// Rewrite applies each rule in turn to X, emitting every result.
func (rs *RuleSet) Rewrite(X ggl.GraphState, onResult func(Y ggl.GraphState) bool) int {
	Xg, copied := asGraph(X)
	if copied {
		defer Xg.Reclaim()
	}

	total := 0
	for _, rule := range rs.Rules {
		stopped := false
		total += ApplyRule(rule, Xg, rs.Opts, func(Y *Graph) bool {
			if rs.OnApplied != nil {
				rs.OnApplied(rule, Xg, Y)
			}
			if !onResult(Y) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			break
		}
	}
	return total
}

// ApplyParallel applies every rule to X, one goroutine (and Matcher) per rule.
// Returns the results of each rule, indexed as rs.Rules.  X must not be modified until ApplyParallel returns.
//
// If ctx is cancelled, the searches stop early and ctx's error is returned along with the results so far.
func (rs *RuleSet) ApplyParallel(ctx context.Context, X *Graph) ([][]*Graph, error) {
	results := make([][]*Graph, len(rs.Rules))

	grp, ctx := errgroup.WithContext(ctx)
	for i, rule := range rs.Rules {
		grp.Go(func() error {
			ApplyRule(rule, X, rs.Opts, func(Y *Graph) bool {
				if rs.OnApplied != nil {
					rs.OnApplied(rule, X, Y)
				}
				results[i] = append(results[i], Y)
				return ctx.Err() == nil
			})
			return ctx.Err()
		})
	}
	err := grp.Wait()
	return results, err
}
