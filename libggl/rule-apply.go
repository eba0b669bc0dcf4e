package libggl

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/queues/arrayqueue"
	"github.com/fine-structures/graph-grammar/ggl"
)

// ApplyOpts controls how a rule is matched and applied.
//
// Match.MaxHits bounds the number of results (applications), counted after symmetry breaking.
type ApplyOpts struct {
	Match    MatchOpts
	Symmetry bool // report one application per class of rule-symmetric matches

	// RequireDistinctTargets requires each left side component to be matched in a different target graph
	// when applying to several targets (see ApplyToTargets).
	RequireDistinctTargets bool
}

// RuleApplier is a Reporter that rewrites the target for every reported match of its rule's left side.
//
// Each result is a new Graph; the target is never modified.
type RuleApplier struct {
	Rule      *Rule
	OnResult   func(Y *Graph) bool // receives ownership of each result; returning false stops the search
	MaxResults int                 // stop the search after this many results (0 denotes no limit)
	Applied    int                 // number of results produced
	Abandoned  int                 // number of matches that could not be applied

	queue *arrayqueue.Queue
	edges []ggl.Edge
	resOf []int // target node -> result node (or -1)
}

func NewRuleApplier(rule *Rule, onResult func(Y *Graph) bool) *RuleApplier {
	return &RuleApplier{
		Rule:     rule,
		OnResult: onResult,
		queue:    arrayqueue.New(),
	}
}

func (ra *RuleApplier) ReportHit(P ggl.Pattern, X ggl.Graph, m ggl.Match) bool {
	Y := ra.Apply(X, m)
	if Y == nil {
		return true
	}
	cont := true
	if ra.OnResult == nil {
		Y.Reclaim()
	} else {
		cont = ra.OnResult(Y)
	}
	if ra.MaxResults > 0 && ra.Applied >= ra.MaxResults {
		return false
	}
	return cont
}

// Apply rewrites X according to the left side match m (indexed by left view node).
//
// Returns nil, counting the match as abandoned, if m maps two left nodes onto the same target node.
// Panics if m is not a match of the rule in X.
func (ra *RuleApplier) Apply(X ggl.Graph, m ggl.Match) *Graph {
	r := ra.Rule
	if len(m) != r.left.NodeCount() {
		panic(fmt.Sprintf("%v: match has %d nodes, want %d", r, len(m), r.left.NodeCount()))
	}
	if !m.IsInjective() {
		ra.abandon()
		return nil
	}

	Y := NewGraph(nil)

	// 1) copy: left node li becomes result node li
	ra.resOf = resetInts(ra.resOf, X.NodeCount(), -1)
	for _, t := range m {
		ra.resOf[t] = Y.AddNode(X.NodeLabel(t))
	}

	// 2) pull in everything reachable from the match
	ra.closeContext(X, m, Y)

	// 3a) created nodes and relabels
	def := &r.def
	coreRes := make([]int, len(def.Nodes))
	for ci := range coreRes {
		coreRes[ci] = r.left.ViewIndex(ci)
	}
	for ci, rn := range def.Nodes {
		switch rn.Context {
		case ggl.RightOnly:
			coreRes[ci] = Y.AddNode(rn.Label)
		case ggl.LabelChange:
			Y.SetNodeLabel(coreRes[ci], rn.RightLabel)
		}
	}

	// 3b) copy-and-paste
	for _, cp := range def.CopyAndPaste {
		copyAndPaste(Y, coreRes[cp.Source], coreRes[cp.PasteTarget], cp.EdgeLabels, def.Wildcard)
	}

	// 3c) removed edges
	ra.removeLeftEdges(Y, coreRes)

	// 3d) created edges
	for _, re := range def.Edges {
		if re.Context == ggl.RightOnly {
			Y.AddEdge(coreRes[re.A], coreRes[re.B], re.Label)
		}
	}

	// 3e) removed nodes, highest index first
	var doomed []int
	for ci, rn := range def.Nodes {
		if rn.Context == ggl.LeftOnly {
			doomed = append(doomed, coreRes[ci])
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(doomed)))
	for _, ri := range doomed {
		Y.RemoveNode(ri)
	}

	ra.Applied++
	ruleApplicationsTotal.WithLabelValues(r.Name, "applied").Inc()
	return Y
}

func (ra *RuleApplier) abandon() {
	ra.Abandoned++
	ruleApplicationsTotal.WithLabelValues(ra.Rule.Name, "abandoned").Inc()
}

// closeContext copies into Y every target node and edge reachable from the matched nodes.
// An edge is added when the first of its nodes is dequeued; a loop is enumerated (and added) once.
func (ra *RuleApplier) closeContext(X ggl.Graph, m ggl.Match, Y *Graph) {
	processed := make([]bool, X.NodeCount())
	queue := ra.queue
	queue.Clear()
	for _, t := range m {
		queue.Enqueue(t)
	}

	for !queue.Empty() {
		val, _ := queue.Dequeue()
		u := val.(int)
		processed[u] = true

		ra.edges = X.AppendOutEdges(u, ra.edges[:0])
		for _, e := range ra.edges {
			v := e.To
			if v != u && processed[v] {
				continue
			}
			if ra.resOf[v] < 0 {
				ra.resOf[v] = Y.AddNode(X.NodeLabel(v))
				queue.Enqueue(v)
			}
			Y.AddEdge(ra.resOf[u], ra.resOf[v], e.Label)
		}
	}
}

// copyAndPaste duplicates onto dst every edge on src whose label passes the filter.
// An edge between src and n becomes an edge between dst and n; a loop on src becomes a loop on dst.
func copyAndPaste(Y *Graph, src, dst int, labels []string, wildcard string) {
	all := len(labels) == 0
	for _, label := range labels {
		if wildcard != "" && label == wildcard {
			all = true
		}
	}

	snapshot := Y.AppendOutEdges(src, nil)
	for _, e := range snapshot {
		if !all && !labelIn(e.Label, labels, "", false) {
			continue
		}
		to := e.To
		if to == src {
			to = dst
		}
		Y.AddEdge(dst, to, e.Label)
	}
}

type nodePair struct {
	a, b int
}

type pairEdits struct {
	removeLabels []string // concrete LeftOnly labels
	removeWild   int      // wildcard LeftOnly edges
	keepLabels   []string // concrete Context labels
	keepWild     int      // wildcard Context edges
}

// removeLeftEdges removes the result edges matched by the rule's LeftOnly edges.
//
// At each node pair, concrete LeftOnly labels are removed first (falling back to target edges labeled with the
// wildcard when no equal label remains).  Context edges at the pair then
// reserve their counterparts (concrete labels by label, wildcards by count), and each wildcard LeftOnly edge
// removes one of the remaining unreserved edges, in edge order.
func (ra *RuleApplier) removeLeftEdges(Y *Graph, coreRes []int) {
	def := &ra.Rule.def
	wild := def.Wildcard
	hasWild := wild != ""

	var order []nodePair
	edits := make(map[nodePair]*pairEdits)
	for _, re := range def.Edges {
		if re.Context == ggl.RightOnly {
			continue
		}
		key := nodePair{coreRes[re.A], coreRes[re.B]}
		if key.b < key.a {
			key.a, key.b = key.b, key.a
		}
		ed := edits[key]
		if ed == nil {
			ed = &pairEdits{}
			edits[key] = ed
			order = append(order, key)
		}
		isWild := hasWild && re.Label == wild
		switch {
		case re.Context == ggl.LeftOnly && isWild:
			ed.removeWild++
		case re.Context == ggl.LeftOnly:
			ed.removeLabels = append(ed.removeLabels, re.Label)
		case isWild:
			ed.keepWild++
		default:
			ed.keepLabels = append(ed.keepLabels, re.Label)
		}
	}

	var doomed, at []int
	var taken []bool
	for _, key := range order {
		ed := edits[key]
		if len(ed.removeLabels) == 0 && ed.removeWild == 0 {
			continue
		}

		at = Y.EdgesBetween(key.a, key.b, at[:0])
		taken = taken[:0]
		for range at {
			taken = append(taken, false)
		}
		// a concrete label takes an equal edge, else a target wildcard edge (as the matcher allows)
		claim := func(label string) int {
			fallback := -1
			for k, ei := range at {
				if taken[k] {
					continue
				}
				if el := Y.EdgeAt(ei).Label; el == label {
					taken[k] = true
					return k
				} else if hasWild && el == wild && fallback < 0 {
					fallback = k
				}
			}
			if fallback >= 0 {
				taken[fallback] = true
				return fallback
			}
			panic(fmt.Sprintf("%v: no %q edge between result nodes %d and %d", ra.Rule, label, key.a, key.b))
		}

		for _, label := range ed.removeLabels {
			doomed = append(doomed, at[claim(label)])
		}
		for _, label := range ed.keepLabels {
			claim(label)
		}

		free := 0
		for _, isTaken := range taken {
			if !isTaken {
				free++
			}
		}
		if free < ed.removeWild+ed.keepWild {
			panic(fmt.Sprintf("%v: too few edges between result nodes %d and %d for wildcard edges", ra.Rule, key.a, key.b))
		}
		for k := 0; ed.removeWild > 0; k++ {
			if !taken[k] {
				taken[k] = true
				doomed = append(doomed, at[k])
				ed.removeWild--
			}
		}
	}

	Y.RemoveEdges(doomed)
}

// ApplyRule matches rule against X and emits each rewrite to onResult, returning the number of results.
func ApplyRule(rule *Rule, X ggl.Graph, opts ApplyOpts, onResult func(Y *Graph) bool) int {
	ra, rep := newApplyChain(rule, opts, onResult)
	NewMatcher(searchOpts(opts)).Search(rule.LeftPattern(), X, rep)
	return ra.Applied
}

// newApplyChain returns a RuleApplier bounded by opts.Match.MaxHits and the Reporter that feeds it.
func newApplyChain(rule *Rule, opts ApplyOpts, onResult func(Y *Graph) bool) (*RuleApplier, ggl.Reporter) {
	ra := NewRuleApplier(rule, onResult)
	ra.MaxResults = opts.Match.MaxHits
	var rep ggl.Reporter = ra
	if opts.Symmetry {
		rep = NewSymmetryFilterFor(rule.Automorphisms(), ra)
	}
	return ra, rep
}

// searchOpts returns the match options for a rule search; the result limit is enforced by the RuleApplier
// since filtered or abandoned matches don't count against it.
func searchOpts(opts ApplyOpts) MatchOpts {
	mo := opts.Match
	mo.MaxHits = 0
	return mo
}

// ApplyRuleAll returns every rewrite of X by rule.
func ApplyRuleAll(rule *Rule, X ggl.Graph, opts ApplyOpts) []*Graph {
	var results []*Graph
	ApplyRule(rule, X, opts, func(Y *Graph) bool {
		results = append(results, Y)
		return true
	})
	return results
}
