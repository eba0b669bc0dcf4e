package libggl

import (
	"github.com/fine-structures/graph-grammar/ggl"
)

// ComponentTargets enumerates every assignment of rule components to target graphs, in lexicographic order.
//
//	ct := NewComponentTargets(2, 3)
//	for ct.Next() {
//	    assign := ct.Assignment() // assign[c] is the target of component c
//	}
type ComponentTargets struct {
	numComps   int
	numTargets int
	assign     []int
	started    bool
}

func NewComponentTargets(numComponents, numTargets int) *ComponentTargets {
	return &ComponentTargets{
		numComps:   numComponents,
		numTargets: numTargets,
		assign:     make([]int, numComponents),
	}
}

// Next advances to the next assignment, returning false once all have been visited.
func (ct *ComponentTargets) Next() bool {
	if ct.numComps == 0 || ct.numTargets == 0 {
		return false
	}
	if !ct.started {
		ct.started = true
		return true
	}
	for c := ct.numComps - 1; c >= 0; c-- {
		ct.assign[c]++
		if ct.assign[c] < ct.numTargets {
			return true
		}
		ct.assign[c] = 0
	}
	return false
}

// Assignment returns the current assignment; it is overwritten by the next call to Next.
func (ct *ComponentTargets) Assignment() []int {
	return ct.assign
}

// Distinct returns true if no two components are assigned the same target.
func (ct *ComponentTargets) Distinct() bool {
	for i, ti := range ct.assign {
		for _, tj := range ct.assign[i+1:] {
			if ti == tj {
				return false
			}
		}
	}
	return true
}

// ApplyToTargets applies rule with each left side component matched in a target chosen from targets.
//
// For each component-to-target assignment, the chosen targets are joined into one graph (in order of first use)
// and each combination of component matches is rewritten as a single match against it.
// With opts.RequireDistinctTargets, assignments reusing a target are abandoned.  Combinations mapping two
// left nodes onto one target node are always abandoned.
//
// opts.Match.MaxHits bounds the total number of results across all assignments.
//
// Returns the number of results passed to onResult.
func ApplyToTargets(rule *Rule, targets []ggl.Graph, opts ApplyOpts, onResult func(Y *Graph) bool) int {
	ra, rep := newApplyChain(rule, opts, onResult)

	numComps := rule.NumComponents()
	M := NewMatcher(MatchOpts{})

	// compMatches[c][t] lists matches of component c in target t (nil until searched)
	compMatches := make([][][]ggl.Match, numComps)
	for c := range compMatches {
		compMatches[c] = make([][]ggl.Match, len(targets))
	}
	searched := make([][]bool, numComps)
	for c := range searched {
		searched[c] = make([]bool, len(targets))
	}
	matchesOf := func(c, t int) []ggl.Match {
		if !searched[c][t] {
			searched[c][t] = true
			collector := &ggl.CollectingReporter{}
			M.Search(rule.compPatterns[c], targets[t], collector)
			compMatches[c][t] = collector.Matches
		}
		return compMatches[c][t]
	}

	spanning := rule.spanningConstraints()
	P := rule.leftPattern
	m := make(ggl.Match, rule.left.NodeCount())

	ct := NewComponentTargets(numComps, len(targets))
	for ct.Next() {
		assign := ct.Assignment()
		if opts.RequireDistinctTargets && !ct.Distinct() {
			ra.abandon()
			continue
		}

		feasible := true
		for c, t := range assign {
			if len(matchesOf(c, t)) == 0 {
				feasible = false
				break
			}
		}
		if !feasible {
			continue
		}

		U := NewGraph(nil)
		offset := make(map[int]int, numComps)
		for _, t := range assign {
			if _, exists := offset[t]; !exists {
				offset[t] = U.Concatenate(targets[t])
			}
		}
		var Ua *adjacency
		if len(spanning) > 0 {
			Ua = newAdjacency(U)
		}
		image := func(li int) int { return m[li] }

		var walk func(c int) bool
		walk = func(c int) bool {
			if c == numComps {
				for _, ci := range spanning {
					if !evalConstraint(&P.constraints[ci], image, Ua, P.wildcard, P.hasWildcard) {
						return true
					}
				}
				return rep.ReportHit(P, U, m)
			}
			base := offset[assign[c]]
			for _, cm := range matchesOf(c, assign[c]) {
				for k, li := range rule.compNodes[c] {
					m[li] = base + cm[k]
				}
				if !walk(c + 1) {
					return false
				}
			}
			return true
		}
		cont := walk(0)
		U.Reclaim()
		if !cont {
			break
		}
	}

	return ra.Applied
}

// spanningConstraints returns the left pattern constraints whose nodes lie in more than one component.
func (r *Rule) spanningConstraints() []int {
	var spanning, nodes []int
	for ci := range r.leftPattern.constraints {
		nodes = r.leftPattern.constraints[ci].Nodes(nodes[:0])
		for _, li := range nodes[1:] {
			if r.compOf[li] != r.compOf[nodes[0]] {
				spanning = append(spanning, ci)
				break
			}
		}
	}
	return spanning
}
