package libggl

import (
	"github.com/fine-structures/graph-grammar/ggl"
)

// ComponentMode selects how a pattern with several connected components is embedded.
type ComponentMode int

const (
	// ComponentsInjective embeds all components together; no two pattern nodes share a target node.
	ComponentsInjective ComponentMode = iota

	// ComponentsIndependent embeds each component on its own; different components may share target nodes.
	ComponentsIndependent
)

type MatchOpts struct {
	MaxHits    int // stop after this many embeddings are found (0 denotes no limit)
	Components ComponentMode
}

// Matcher performs VF2-style depth-first subgraph monomorphism searches.
//
// A Matcher is not safe for concurrent use; searches that run concurrently (or that nest within a Reporter)
// each need their own Matcher.
type Matcher struct {
	Opts MatchOpts
	st   matchState
}

func NewMatcher(opts MatchOpts) *Matcher {
	return &Matcher{
		Opts: opts,
	}
}

// PatternJob pairs a pattern with the Reporter that receives its embeddings.
type PatternJob struct {
	Pattern  ggl.Pattern
	Reporter ggl.Reporter
}

// Search reports every embedding of P in X to rep (until MaxHits is reached or rep returns false)
// and returns the number of embeddings found.
//
// Both MaxHits and the returned count refer to embeddings handed to rep, not to what rep passes on:
// a filtering Reporter (such as a SymmetryFilter) must count what it forwards itself.
//
// A pattern with more nodes or edges than X reports nothing.
// Panics if X enumerates an edge from only one of its nodes.
func (M *Matcher) Search(P ggl.Pattern, X ggl.Graph, rep ggl.Reporter) int {
	return M.search(asPattern(P), P, X, newAdjacency(X), rep)
}

// FindAll searches each job's pattern against X, returning the number of embeddings reported for each job.
// Patterns too large for X are skipped.
func (M *Matcher) FindAll(X ggl.Graph, jobs []PatternJob) []int {
	Xa := newAdjacency(X)
	hits := make([]int, len(jobs))
	for i, job := range jobs {
		hits[i] = M.search(asPattern(job.Pattern), job.Pattern, X, Xa, job.Reporter)
	}
	return hits
}

// Count returns the number of embeddings of P in X.
func (M *Matcher) Count(P ggl.Pattern, X ggl.Graph) int {
	return M.Search(P, X, ggl.ReporterFunc(func(ggl.Pattern, ggl.Graph, ggl.Match) bool {
		return true
	}))
}

// fitsTarget is the cheap necessary condition checked before a search starts.
func fitsTarget(P, X *adjacency) bool {
	return P.nodeCount() <= X.nodeCount() && P.numEdges <= X.numEdges
}

func (M *Matcher) search(P *Pattern, Pref ggl.Pattern, X ggl.Graph, Xa *adjacency, rep ggl.Reporter) int {
	if P.numComps > 1 && M.Opts.Components == ComponentsIndependent {
		return M.searchIndependent(P, Pref, X, Xa, rep)
	}
	if !fitsTarget(P.adj, Xa) || P.NodeCount() == 0 {
		return 0
	}

	st := &M.st
	st.reset(P, Xa, P.order)
	st.maxHits = M.Opts.MaxHits
	st.onGoal = func(m ggl.Match) bool {
		return rep.ReportHit(Pref, X, m)
	}
	st.extend()
	st.onGoal = nil
	return st.hits
}

// searchIndependent embeds each pattern component separately and reports every combination
// that satisfies the constraints spanning components.
func (M *Matcher) searchIndependent(P *Pattern, Pref ggl.Pattern, X ggl.Graph, Xa *adjacency, rep ggl.Reporter) int {
	perComp := make([][]ggl.Match, P.numComps)
	compNodes := make([][]int, P.numComps)

	st := &M.st
	for comp := 0; comp < P.numComps; comp++ {
		order := P.componentOrder(comp)
		compNodes[comp] = order
		if len(order) > Xa.nodeCount() {
			return 0
		}

		var found []ggl.Match
		st.reset(P, Xa, order)
		st.maxHits = 0
		st.onGoal = func(m ggl.Match) bool {
			found = append(found, m.Clone())
			return true
		}
		st.extend()
		st.onGoal = nil
		if len(found) == 0 {
			return 0
		}
		perComp[comp] = found
	}

	var spanning []int
	for ci := range P.constraints {
		c := &P.constraints[ci]
		if c.Kind == ggl.EdgeLabelConstraint || c.Kind == ggl.NoEdgeConstraint {
			if P.compOf[c.Node] != P.compOf[c.Other] {
				spanning = append(spanning, ci)
			}
		}
	}

	combined := make(ggl.Match, P.NodeCount())
	image := func(p int) int { return combined[p] }
	hits := 0

	var walk func(comp int) bool
	walk = func(comp int) bool {
		if comp == len(perComp) {
			for _, ci := range spanning {
				if !evalConstraint(&P.constraints[ci], image, Xa, P.wildcard, P.hasWildcard) {
					return true
				}
			}
			hits++
			cont := rep.ReportHit(Pref, X, combined)
			if M.Opts.MaxHits > 0 && hits >= M.Opts.MaxHits {
				return false
			}
			return cont
		}
		for _, m := range perComp[comp] {
			for _, p := range compNodes[comp] {
				combined[p] = m[p]
			}
			if !walk(comp + 1) {
				return false
			}
		}
		return true
	}
	walk(0)

	return hits
}

// matchState is the private state of one depth-first search.
type matchState struct {
	P       *adjacency
	X       *adjacency
	pat     *Pattern
	wild    string
	hasWild bool
	order   []int   // pattern nodes in the order they are mapped
	parent  []int   // see Pattern.parent
	consAt  [][]int // consAt[d]: constraints decidable once order[d] is mapped

	coreP    []int // pattern node -> target node (or -1)
	coreT    []int // target node -> pattern node (or -1)
	termP    []int // depth at which a pattern node became terminal (0 if not)
	termT    []int // depth at which a target node became terminal (0 if not)
	numTermP int   // mapped + unmapped terminal pattern nodes
	numTermT int   // mapped + unmapped terminal target nodes
	depth    int

	hits    int
	maxHits int
	match   ggl.Match
	onGoal  func(m ggl.Match) bool
}

func resetInts(buf []int, n int, val int) []int {
	if cap(buf) < n {
		buf = make([]int, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = val
	}
	return buf
}

func (st *matchState) reset(P *Pattern, X *adjacency, order []int) {
	Np, Nt := P.adj.nodeCount(), X.nodeCount()

	st.P = P.adj
	st.X = X
	st.pat = P
	st.wild, st.hasWild = P.wildcard, P.hasWildcard
	st.order = order
	st.parent = P.parent

	st.coreP = resetInts(st.coreP, Np, -1)
	st.coreT = resetInts(st.coreT, Nt, -1)
	st.termP = resetInts(st.termP, Np, 0)
	st.termT = resetInts(st.termT, Nt, 0)
	st.numTermP = 0
	st.numTermT = 0
	st.depth = 0
	st.hits = 0
	st.match = ggl.Match(resetInts(st.match, Np, -1))

	// Each constraint is checked at the depth its last node is mapped; constraints with nodes outside order are skipped.
	pos := resetInts(nil, Np, -1)
	for d, p := range order {
		pos[p] = d
	}
	st.consAt = make([][]int, len(order))
	var nodes []int
	for ci := range P.constraints {
		at := -1
		nodes = P.constraints[ci].Nodes(nodes[:0])
		for _, ni := range nodes {
			if pos[ni] < 0 {
				at = -1
				break
			}
			at = max(at, pos[ni])
		}
		if at >= 0 {
			st.consAt[at] = append(st.consAt[at], ci)
		}
	}
}

// extend tries every feasible pair for the next pattern node and recurses.
// Returns false once the search must stop.
func (st *matchState) extend() bool {
	if st.isGoal() {
		return st.goal()
	}

	p := st.order[st.depth]
	cands := st.candidates(p)
	for pos := 0; ; {
		var t int
		t, pos = st.nextPair(cands, pos)
		if t < 0 {
			break
		}
		if !st.isFeasible(p, t) {
			continue
		}
		st.addPair(p, t)
		cont := true
		if !st.isDead() {
			cont = st.extend()
		}
		st.backtrack(p, t)
		if !cont {
			return false
		}
	}
	return true
}

// candidates returns the target nodes to try for pattern node p.
// If p has a mapped neighbour, only the unexplored neighbours of that neighbour's image can host p.
// Otherwise every target node is a candidate, terminal nodes first.
func (st *matchState) candidates(p int) []int {
	if par := st.parent[p]; par >= 0 && st.coreP[par] >= 0 {
		return st.X.nbrs[st.coreP[par]]
	}

	Nt := st.X.nodeCount()
	cands := make([]int, 0, Nt)
	for t := 0; t < Nt; t++ {
		if st.termT[t] > 0 && st.coreT[t] < 0 {
			cands = append(cands, t)
		}
	}
	for t := 0; t < Nt; t++ {
		if st.termT[t] == 0 {
			cands = append(cands, t)
		}
	}
	return cands
}

// nextPair returns the first unmapped target in cands at or after pos, and the position following it.
// Returns -1 when cands is exhausted.
func (st *matchState) nextPair(cands []int, pos int) (t int, next int) {
	for ; pos < len(cands); pos++ {
		if t = cands[pos]; st.coreT[t] < 0 {
			return t, pos + 1
		}
	}
	return -1, pos
}

func (st *matchState) nodeLabelsMatch(pl, tl string) bool {
	return pl == tl || (st.hasWild && (pl == st.wild || tl == st.wild))
}

func (st *matchState) isFeasible(p, t int) bool {
	if !st.nodeLabelsMatch(st.P.labels[p], st.X.labels[t]) {
		return false
	}
	if st.P.degree[p] > st.X.degree[t] {
		return false
	}

	Pp := st.P.pairs[p]
	Xt := st.X.pairs[t]
	if loops := Pp[p]; len(loops) > 0 {
		if !labelsContained(loops, Xt[t], st.wild, st.hasWild) {
			return false
		}
	}

	termP, newP := 0, 0
	for _, pn := range st.P.nbrs[p] {
		if tn := st.coreP[pn]; tn >= 0 {
			if !labelsContained(Pp[pn], Xt[tn], st.wild, st.hasWild) {
				return false
			}
		} else if st.termP[pn] > 0 {
			termP++
		} else {
			newP++
		}
	}

	termT, newT := 0, 0
	for _, tn := range st.X.nbrs[t] {
		if st.coreT[tn] >= 0 {
			continue
		}
		if st.termT[tn] > 0 {
			termT++
		} else {
			newT++
		}
	}
	if termP > termT || termP+newP > termT+newT {
		return false
	}

	if cons := st.consAt[st.depth]; len(cons) > 0 {
		st.coreP[p] = t
		ok := st.checkConstraints(cons)
		st.coreP[p] = -1
		if !ok {
			return false
		}
	}
	return true
}

func (st *matchState) checkConstraints(cons []int) bool {
	image := func(p int) int { return st.coreP[p] }
	for _, ci := range cons {
		if !evalConstraint(&st.pat.constraints[ci], image, st.X, st.wild, st.hasWild) {
			return false
		}
	}
	return true
}

func (st *matchState) addPair(p, t int) {
	st.depth++
	d := st.depth

	st.coreP[p] = t
	st.coreT[t] = p

	if st.termP[p] == 0 {
		st.termP[p] = d
		st.numTermP++
	}
	for _, pn := range st.P.nbrs[p] {
		if st.termP[pn] == 0 {
			st.termP[pn] = d
			st.numTermP++
		}
	}

	if st.termT[t] == 0 {
		st.termT[t] = d
		st.numTermT++
	}
	for _, tn := range st.X.nbrs[t] {
		if st.termT[tn] == 0 {
			st.termT[tn] = d
			st.numTermT++
		}
	}
}

// backtrack undoes the most recent addPair.
func (st *matchState) backtrack(p, t int) {
	d := st.depth

	for _, pn := range st.P.nbrs[p] {
		if st.termP[pn] == d {
			st.termP[pn] = 0
			st.numTermP--
		}
	}
	if st.termP[p] == d {
		st.termP[p] = 0
		st.numTermP--
	}

	for _, tn := range st.X.nbrs[t] {
		if st.termT[tn] == d {
			st.termT[tn] = 0
			st.numTermT--
		}
	}
	if st.termT[t] == d {
		st.termT[t] = 0
		st.numTermT--
	}

	st.coreP[p] = -1
	st.coreT[t] = -1
	st.depth--
}

func (st *matchState) isGoal() bool {
	return st.depth == len(st.order)
}

// isDead returns true if the remaining pattern nodes can't possibly be mapped.
func (st *matchState) isDead() bool {
	if len(st.order)-st.depth > st.X.nodeCount()-st.depth {
		return true
	}
	return st.numTermP > st.numTermT
}

func (st *matchState) goal() bool {
	copy(st.match, st.coreP)
	st.hits++
	cont := st.onGoal(st.match)
	if st.maxHits > 0 && st.hits >= st.maxHits {
		return false
	}
	return cont
}
