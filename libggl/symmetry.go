package libggl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fine-structures/graph-grammar/ggl"
)

// Automorphisms returns the automorphism group of P as node permutations (the identity included).
//
// A permutation a is an automorphism if it preserves node labels, edge label multisets and the constraint list,
// where the wildcard is compared as a plain label.
func Automorphisms(P ggl.Pattern) [][]int {
	return asPattern(P).Automorphisms()
}

// Automorphisms returns the automorphism group of P, computed once and then shared.
func (P *Pattern) Automorphisms() [][]int {
	P.autOnce.Do(func() {
		P.auts = P.computeAutomorphisms()
	})
	return P.auts
}

func (P *Pattern) computeAutomorphisms() [][]int {
	literal, err := NewPattern(P.graph, "")
	if err != nil {
		panic(err)
	}

	keys := make(map[string]int, len(P.constraints))
	for ci := range P.constraints {
		keys[P.constraints[ci].Key()]++
	}

	var auts [][]int
	M := NewMatcher(MatchOpts{})
	M.search(literal, literal, P.graph, P.adj, ggl.ReporterFunc(func(_ ggl.Pattern, _ ggl.Graph, m ggl.Match) bool {
		if P.preservesConstraints(m, keys) {
			auts = append(auts, []int(m.Clone()))
		}
		return true
	}))
	return auts
}

func (P *Pattern) preservesConstraints(a ggl.Match, keys map[string]int) bool {
	if len(P.constraints) == 0 {
		return true
	}
	mapped := make(map[string]int, len(keys))
	for ci := range P.constraints {
		c := P.constraints[ci].Remap(func(i int) int { return a[i] })
		mapped[c.Key()]++
	}
	for key, count := range keys {
		if mapped[key] != count {
			return false
		}
	}
	return true
}

// SymmetryFilter is a Reporter stage that forwards only the lexicographically smallest
// of the embeddings that are equivalent under the pattern's automorphism group.
type SymmetryFilter struct {
	Next       ggl.Reporter
	auts       [][]int
	suppressed int
}

func NewSymmetryFilter(P ggl.Pattern, next ggl.Reporter) *SymmetryFilter {
	return NewSymmetryFilterFor(Automorphisms(P), next)
}

// NewSymmetryFilterFor factors out the given permutation group, which must be closed under composition.
func NewSymmetryFilterFor(auts [][]int, next ggl.Reporter) *SymmetryFilter {
	return &SymmetryFilter{
		Next: next,
		auts: auts,
	}
}

// GroupSize returns the size of the automorphism group being factored out.
func (sf *SymmetryFilter) GroupSize() int {
	return len(sf.auts)
}

// Suppressed returns the number of embeddings dropped so far.
func (sf *SymmetryFilter) Suppressed() int {
	return sf.suppressed
}

func (sf *SymmetryFilter) ReportHit(P ggl.Pattern, X ggl.Graph, m ggl.Match) bool {
	for _, a := range sf.auts {
		if variantPrecedes(m, a) {
			sf.suppressed++
			return true
		}
	}
	return sf.Next.ReportHit(P, X, m)
}

// variantPrecedes returns true if the variant v[i] = m[a[i]] is lexicographically less than m.
func variantPrecedes(m ggl.Match, a []int) bool {
	for i, ti := range m {
		vi := m[a[i]]
		if vi != ti {
			return vi < ti
		}
	}
	return false
}

// Automorphisms returns the left side automorphisms of r that also carry the rewrite onto itself,
// so matches related by one of them always yield isomorphic results.  Indexed by left view node.
func (r *Rule) Automorphisms() [][]int {
	r.autOnce.Do(func() {
		for _, a := range r.leftPattern.Automorphisms() {
			if r.preservesRewrite(a) {
				r.auts = append(r.auts, a)
			}
		}
	})
	return r.auts
}

func (r *Rule) preservesRewrite(a []int) bool {
	def := &r.def

	// extend a to the core; created nodes stay put
	phi := make([]int, len(def.Nodes))
	for ci := range phi {
		phi[ci] = ci
		if li := r.left.ViewIndex(ci); li >= 0 {
			phi[ci] = r.left.nodes[a[li]]
		}
	}
	for ci, rn := range def.Nodes {
		img := &def.Nodes[phi[ci]]
		if img.Context != rn.Context || img.RightLabel != rn.RightLabel {
			return false
		}
	}

	counts := make(map[string]int)
	for _, re := range def.Edges {
		counts[edgeKey(re.A, re.B, re.Label, re.Context)]++
		counts[edgeKey(phi[re.A], phi[re.B], re.Label, re.Context)]--
	}
	for _, cp := range def.CopyAndPaste {
		labels := append([]string(nil), cp.EdgeLabels...)
		sort.Strings(labels)
		filter := strings.Join(labels, " ")
		counts[fmt.Sprintf("%d>%d %q", cp.Source, cp.PasteTarget, filter)]++
		counts[fmt.Sprintf("%d>%d %q", phi[cp.Source], phi[cp.PasteTarget], filter)]--
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}

func edgeKey(a, b int, label string, ctx ggl.Context) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d %q %v", a, b, label, ctx)
}
