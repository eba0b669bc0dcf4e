package libggl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
)

func TestRuleCheck(t *testing.T) {
	cases := []struct {
		expr string
		chk  libggl.RuleCheck
	}{
		{"1(C)-[-x]-2(O), 1-[+y]-3(+N)", 0},
		{"1(C>N)-[x]-2(O) ; copy 2 > 1 [x]", 0},
		{"1(-C)-[x]-2(C)", libggl.CheckDanglingContextEdge},
		{"1(+C)-[x]-2(C)", libggl.CheckDanglingContextEdge},
		{"1(-C)-[+x]-2(C)", libggl.CheckUnbalancedEdgeIns},
		{"1(+C)-[-x]-2(C)", libggl.CheckUnbalancedEdgeDel},
		{"1(+C)", libggl.CheckEmptyLeft},
		{"1(C>C)", libggl.CheckNoLabelChange},
		{"1(C)-[+*]-2(+O)", libggl.CheckWildcardOnRight},
		{"1(C)-[x]-2(+*)", libggl.CheckWildcardOnRight | libggl.CheckDanglingContextEdge},
		{"1(C)-[x]-2(-O) ; copy 1 > 2", libggl.CheckBadCopyAndPaste | libggl.CheckDanglingContextEdge},
		{"1(C) ; copy 1 > 5", libggl.CheckBadCopyAndPaste},
	}
	for _, tc := range cases {
		def, err := libggl.RuleDefFromString("test", tc.expr)
		if err != nil {
			t.Fatalf("%q: %v", tc.expr, err)
		}
		if chk := def.Check(); chk != tc.chk {
			t.Fatalf("%q: expected check %q, got %q", tc.expr, tc.chk, chk)
		}
		_, err = libggl.NewRule(def)
		if (err == nil) != (tc.chk == 0) || (err != nil && !errors.Is(err, ggl.ErrBadRule)) {
			t.Fatalf("%q: unexpected NewRule error %v", tc.expr, err)
		}
	}

	def := libggl.RuleDef{
		Name:  "bad",
		Nodes: []ggl.RuleNode{{Label: "C"}, {Label: ""}},
		Edges: []ggl.RuleEdge{{A: 0, B: 7, Label: "x"}},
		Constraints: []ggl.Constraint{
			{Kind: ggl.NodeLabelConstraint, Node: 4},
		},
	}
	chk := def.Check()
	if chk != libggl.CheckEmptyLabel|libggl.CheckBadEndpoint|libggl.CheckBadConstraint {
		t.Fatalf("unexpected check %q", chk)
	}
	if len(chk.Reasons()) != 3 {
		t.Fatalf("expected 3 reasons, got %v", chk.Reasons())
	}
}

func TestRuleViews(t *testing.T) {
	rule := libggl.MustRule("views", "1(C)-[-x]-2(-O), 1-[+y]-3(+N), 4(H>D)-[z]-1")

	left, right := rule.Left(), rule.Right()
	if left.NodeCount() != 3 || right.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes on each side, got %d and %d", left.NodeCount(), right.NodeCount())
	}
	if !libggl.IsIsomorphic(left, libggl.MustGraph("1(C)-[x]-2(O), 1-[z]-3(H)")) {
		t.Fatalf("unexpected left side %v", libggl.NewGraphFromView(left))
	}
	if !libggl.IsIsomorphic(right, libggl.MustGraph("1(C)-[y]-2(N), 1-[z]-3(D)")) {
		t.Fatalf("unexpected right side %v", libggl.NewGraphFromView(right))
	}
	if left.CoreIndex(1) != 1 || right.ViewIndex(1) != -1 || right.ViewIndex(2) != 1 {
		t.Fatal("unexpected view indexing")
	}
}

// applyOne applies rule to target and returns the single result.
func applyOne(t *testing.T, rule *libggl.Rule, target string) *libggl.Graph {
	t.Helper()
	results := libggl.ApplyRuleAll(rule, libggl.MustGraph(target), libggl.ApplyOpts{Symmetry: true})
	if len(results) != 1 {
		t.Fatalf("%v: expected 1 result on %q, got %d", rule, target, len(results))
	}
	return results[0]
}

func countEdges(X *libggl.Graph, a, b int, label string) int {
	count := 0
	for _, ei := range X.EdgesBetween(a, b, nil) {
		if X.EdgeAt(ei).Label == label {
			count++
		}
	}
	return count
}

func TestScenarioB(t *testing.T) {
	rule := libggl.MustRule("B", "1(X)-[-b]-2(Y), 1-[+n]-3(+Z)")
	Y := applyOne(t, rule, "1(X)-[b]-2(Y)")

	if Y.NodeCount() != 3 || Y.NodeLabel(0) != "X" || Y.NodeLabel(1) != "Y" || Y.NodeLabel(2) != "Z" {
		t.Fatalf("unexpected result nodes %v", Y)
	}
	if countEdges(Y, 0, 2, "n") != 1 {
		t.Fatalf("expected X-Z to be connected: %v", Y)
	}
	if len(Y.EdgesBetween(0, 1, nil)) != 0 {
		t.Fatalf("expected X-Y to be disconnected: %v", Y)
	}
}

func TestScenarioC(t *testing.T) {
	rule := libggl.MustRule("C", "1(S)-[a]-2(A), 1-[b]-3(B), 4(+P) ; copy 1 > 4 [a]")
	Y := applyOne(t, rule, "1(S)-[a]-2(A), 1-[b]-3(B)")

	P := 3
	if Y.NodeLabel(P) != "P" {
		t.Fatalf("unexpected result %v", Y)
	}
	out := Y.AppendOutEdges(P, nil)
	if len(out) != 1 || out[0].Label != "a" || out[0].To != 1 {
		t.Fatalf("expected P to gain exactly one a edge (to A), got %v", out)
	}
	if countEdges(Y, 0, 1, "a") != 1 || countEdges(Y, 0, 2, "b") != 1 {
		t.Fatalf("expected the source's edges to remain: %v", Y)
	}

	// an existing paste target, a loop on the source, and no filter
	rule = libggl.MustRule("C2", "1(S)-[a]-2(P) ; copy 1 > 2")
	Y = applyOne(t, rule, "1(S)-[a]-2(P), 1-[l]-1")
	if countEdges(Y, 1, 1, "a") != 1 || countEdges(Y, 1, 1, "l") != 1 || countEdges(Y, 0, 1, "a") != 1 {
		t.Fatalf("unexpected copy-and-paste result %v", Y)
	}
	if Y.NumEdges() != 4 {
		t.Fatalf("expected 4 edges, got %v", Y)
	}
}

func TestIdentityRewrite(t *testing.T) {
	cases := []struct {
		rule     string
		target   string
		expected string
	}{
		{"1(C)-[x]-2(O)", "1(C)-[x]-2(O)-[y]-3(N), 4(Z)", "1(C)-[x]-2(O)-[y]-3(N)"},
		{"1(C)", "1(C)-[x]-2(C)-[x]-3(C)-[x]-1, 3-[l]-3, 4(Q)-[q]-5(Q)", "1(C)-[x]-2(C)-[x]-3(C)-[x]-1, 3-[l]-3"},
		{"1(C)-[*]-2(*)", "1(C)-[a]-2(O), 1-[b]-2, 2-[c]-3(H)", "1(C)-[a]-2(O), 1-[b]-2, 2-[c]-3(H)"},
	}
	for _, tc := range cases {
		rule := libggl.MustRule("identity", tc.rule)
		results := libggl.ApplyRuleAll(rule, libggl.MustGraph(tc.target), libggl.ApplyOpts{})
		if len(results) == 0 {
			t.Fatalf("%q: no results", tc.rule)
		}
		expected := libggl.MustGraph(tc.expected)
		for _, Y := range results {
			if !libggl.IsIsomorphic(Y, expected) {
				t.Fatalf("%q: expected %v, got %v", tc.rule, expected, Y)
			}
		}
	}
}

func TestRewrites(t *testing.T) {
	cases := []struct {
		rule     string
		target   string
		expected string
	}{
		{"1(C>N)-[x]-2(O)", "1(C)-[x]-2(O)", "1(N)-[x]-2(O)"},
		{"1(C)-[-x]-2(-O)", "1(C)-[x]-2(O)-[y]-3(H)", "1(C), 2(H)"},
		{"1(C)-[-x]-2(O), 1-[+y]-2", "1(C)-[x]-2(O), 1-[x]-2", "1(C)-[x]-2(O), 1-[y]-2"},
		{"1(C)-[+l]-1", "1(C)", "1(C)-[l]-1"},
		{"1(C)-[-l]-1", "1(C)-[l]-1, 1-[l]-1", "1(C)-[l]-1"},
		{"1(C)-[x]-2(O), 3(+H)-[+h]-1", "1(C)-[x]-2(O)", "1(C)-[x]-2(O), 1-[h]-3(H)"},

		// wildcard removal at a node pair
		{"1(C)-[-*]-2(C)", "1(C)-[a]-2(C), 1-[b]-2", "1(C)-[b]-2(C)"},
		{"1(C)-[-*]-2(C), 1-[a]-2", "1(C)-[a]-2(C), 1-[b]-2", "1(C)-[a]-2(C)"},
		{"1(C)-[-a]-2(C), 1-[*]-2", "1(C)-[a]-2(C), 1-[a]-2", "1(C)-[a]-2(C)"},
		{"1(C)-[-*]-2(C), 1-[*]-2", "1(C)-[a]-2(C), 1-[b]-2", "1(C)-[b]-2(C)"},
		{"1(C)-[-*]-2(C), 1-[-*]-2, 1-[b]-2", "1(C)-[a]-2(C), 1-[b]-2, 1-[c]-2", "1(C)-[b]-2(C)"},

		// concrete labels landing on target wildcard edges
		{"1(C)-[-x]-2(O)", "1(C)-[*]-2(O)", "1(C), 2(O)"},
		{"1(C)-[-x]-2(O), 1-[y]-2", "1(C)-[*]-2(O), 1-[y]-2", "1(C)-[y]-2(O)"},
		{"1(C)-[-x]-2(O), 1-[x]-2", "1(C)-[*]-2(O), 1-[x]-2", "1(C)-[*]-2(O)"},
	}
	for _, tc := range cases {
		rule := libggl.MustRule("rewrite", tc.rule)
		Y := applyOne(t, rule, tc.target)
		if !libggl.IsIsomorphic(Y, libggl.MustGraph(tc.expected)) {
			t.Fatalf("%q on %q: expected %q, got %v", tc.rule, tc.target, tc.expected, Y)
		}
	}
}

func TestTargetUnchanged(t *testing.T) {
	X := libggl.MustGraph("1(C)-[x]-2(O)-[y]-3(N)")
	before := X.String()
	rule := libggl.MustRule("mutate", "1(C)-[-x]-2(-O), 1-[+z]-3(+F)")
	if n := libggl.ApplyRule(rule, X, libggl.ApplyOpts{}, nil); n != 1 {
		t.Fatalf("expected 1 application, got %d", n)
	}
	if X.String() != before {
		t.Fatalf("target was modified: %v", X)
	}
}

func TestRuleSymmetry(t *testing.T) {
	// The left side is symmetric but the right side tells its nodes apart.
	rule := libggl.MustRule("asym", "1(C)-[x]-2(C>N)")
	if len(rule.LeftPattern().Automorphisms()) != 2 || len(rule.Automorphisms()) != 1 {
		t.Fatalf("unexpected automorphisms %v vs %v", rule.LeftPattern().Automorphisms(), rule.Automorphisms())
	}
	results := libggl.ApplyRuleAll(rule, libggl.MustGraph("1(C)-[x]-2(C)-[y]-3(O)"), libggl.ApplyOpts{Symmetry: true})
	if len(results) != 2 || libggl.IsIsomorphic(results[0], results[1]) {
		t.Fatalf("expected 2 distinct results, got %v", results)
	}

	rule = libggl.MustRule("sym", "1(C)-[-x]-2(C)")
	if len(rule.Automorphisms()) != 2 {
		t.Fatalf("expected 2 rule automorphisms, got %v", rule.Automorphisms())
	}
	results = libggl.ApplyRuleAll(rule, libggl.MustGraph("1(C)-[x]-2(C)"), libggl.ApplyOpts{})
	if len(results) != 2 {
		t.Fatalf("expected 2 results without symmetry breaking, got %d", len(results))
	}
}

func TestComponentTargets(t *testing.T) {
	ct := libggl.NewComponentTargets(2, 3)
	total, distinct := 0, 0
	var last []int
	for ct.Next() {
		total++
		if ct.Distinct() {
			distinct++
		}
		last = append(last[:0], ct.Assignment()...)
	}
	if total != 9 || distinct != 6 || last[0] != 2 || last[1] != 2 {
		t.Fatalf("unexpected assignments: %d total, %d distinct, last %v", total, distinct, last)
	}
	if libggl.NewComponentTargets(2, 0).Next() {
		t.Fatal("expected no assignments without targets")
	}
}

func TestApplyToTargets(t *testing.T) {
	bond := libggl.MustRule("bond", "1(C)-[+b]-2(O)")
	if bond.NumComponents() != 2 {
		t.Fatalf("expected 2 components, got %d", bond.NumComponents())
	}

	targets := []ggl.Graph{libggl.MustGraph("1(C)-[h]-2(H)"), libggl.MustGraph("1(O)")}
	var results []*libggl.Graph
	collect := func(Y *libggl.Graph) bool {
		results = append(results, Y)
		return true
	}

	n := libggl.ApplyToTargets(bond, targets, libggl.ApplyOpts{RequireDistinctTargets: true}, collect)
	if n != 1 || !libggl.IsIsomorphic(results[0], libggl.MustGraph("1(H)-[h]-2(C)-[b]-3(O)")) {
		t.Fatalf("unexpected results %v", results)
	}

	// both components in one target
	results = nil
	targets = []ggl.Graph{libggl.MustGraph("1(C)-[x]-2(O)")}
	n = libggl.ApplyToTargets(bond, targets, libggl.ApplyOpts{}, collect)
	if n != 1 || !libggl.IsIsomorphic(results[0], libggl.MustGraph("1(C)-[x]-2(O), 1-[b]-2")) {
		t.Fatalf("unexpected results %v", results)
	}
	if n = libggl.ApplyToTargets(bond, targets, libggl.ApplyOpts{RequireDistinctTargets: true}, collect); n != 0 {
		t.Fatalf("expected a shared target to be abandoned, got %d results", n)
	}

	// two components landing on one target node
	results = nil
	dimer := libggl.MustRule("dimer", "1(C)-[+b]-2(C)")
	n = libggl.ApplyToTargets(dimer, []ggl.Graph{libggl.MustGraph("1(C)")}, libggl.ApplyOpts{}, collect)
	if n != 0 || len(results) != 0 {
		t.Fatalf("expected overlapping components to be abandoned, got %v", results)
	}
	n = libggl.ApplyToTargets(dimer, []ggl.Graph{libggl.MustGraph("1(C)"), libggl.MustGraph("1(C)")}, libggl.ApplyOpts{RequireDistinctTargets: true}, collect)
	if n != 2 {
		t.Fatalf("expected 2 results, got %d", n)
	}
	if n = libggl.ApplyToTargets(dimer, []ggl.Graph{libggl.MustGraph("1(C)"), libggl.MustGraph("1(C)")}, libggl.ApplyOpts{RequireDistinctTargets: true, Symmetry: true}, collect); n != 2 {
		t.Fatalf("expected 2 results with symmetry breaking, got %d", n)
	}

	// the result limit spans every assignment
	oxygens := []ggl.Graph{libggl.MustGraph("1(C)"), libggl.MustGraph("1(O)"), libggl.MustGraph("1(O)")}
	if n = libggl.ApplyToTargets(bond, oxygens, libggl.ApplyOpts{RequireDistinctTargets: true}, nil); n != 2 {
		t.Fatalf("expected 2 results, got %d", n)
	}
	limited := libggl.ApplyOpts{RequireDistinctTargets: true, Match: libggl.MatchOpts{MaxHits: 1}}
	if n = libggl.ApplyToTargets(bond, oxygens, limited, nil); n != 1 {
		t.Fatalf("expected MaxHits to allow 1 result, got %d", n)
	}
}

func TestApplyLimit(t *testing.T) {
	rule := libggl.MustRule("sym", "1(C)-[-x]-2(C)")
	X := libggl.MustGraph("1(C)-[x]-2(C)-[x]-3(C)")

	if n := libggl.ApplyRule(rule, X, libggl.ApplyOpts{Symmetry: true}, nil); n != 2 {
		t.Fatalf("expected 2 results, got %d", n)
	}

	// MaxHits counts results, not the symmetric matches filtered on the way
	for maxHits := 1; maxHits <= 3; maxHits++ {
		opts := libggl.ApplyOpts{Symmetry: true, Match: libggl.MatchOpts{MaxHits: maxHits}}
		results := libggl.ApplyRuleAll(rule, X, opts)
		if expected := min(maxHits, 2); len(results) != expected {
			t.Fatalf("MaxHits %d: expected %d results, got %d", maxHits, expected, len(results))
		}
	}
	if n := libggl.ApplyRule(rule, X, libggl.ApplyOpts{Match: libggl.MatchOpts{MaxHits: 3}}, nil); n != 3 {
		t.Fatalf("expected 3 results without symmetry breaking, got %d", n)
	}
}

func TestRuleSet(t *testing.T) {
	rs := libggl.NewRuleSet(libggl.ApplyOpts{Symmetry: true},
		libggl.MustRule("hydrogenate", "1(C)-[+h]-2(+H)"),
		libggl.MustRule("reduce", "1(O>N)"),
	)
	applied := 0
	rs.OnApplied = func(rule *libggl.Rule, X, Y *libggl.Graph) {
		applied++
	}

	X := libggl.MustGraph("1(C)-[x]-2(O)")
	var results []ggl.GraphState
	n := rs.Rewrite(X, func(Y ggl.GraphState) bool {
		results = append(results, Y)
		return true
	})
	if n != 2 || len(results) != 2 || applied != 2 {
		t.Fatalf("expected 2 results, got %d", n)
	}

	n = rs.Rewrite(X, func(Y ggl.GraphState) bool {
		return false
	})
	if n != 1 {
		t.Fatalf("expected the rewrite to stop after 1 result, got %d", n)
	}

	rs.OnApplied = nil
	perRule, err := rs.ApplyParallel(context.Background(), X)
	if err != nil {
		t.Fatal(err)
	}
	if len(perRule) != 2 || len(perRule[0]) != 1 || len(perRule[1]) != 1 {
		t.Fatalf("unexpected parallel results %v", perRule)
	}
	if !libggl.IsIsomorphic(perRule[1][0], libggl.MustGraph("1(C)-[x]-2(N)")) {
		t.Fatalf("unexpected result %v", perRule[1][0])
	}
}

func TestExpand(t *testing.T) {
	rs := libggl.NewRuleSet(libggl.ApplyOpts{}, libggl.MustRule("grow", "1(C)-[+x]-2(+C)"))
	seeds := []*libggl.Graph{libggl.MustGraph("1(C)"), libggl.MustGraph("1(C)")}

	all, err := libggl.Expand(context.Background(), seeds, rs, libggl.ExpandOpts{MaxRounds: 3}, libggl.NewDropDupes())
	if err != nil {
		t.Fatal(err)
	}
	// C, C2, C3, then the chain and the star of 4
	if len(all) != 5 {
		t.Fatalf("expected 5 graphs, got %d: %v", len(all), all)
	}
	if !libggl.IsIsomorphic(all[2], libggl.MustGraph("1(C)-[x]-2(C)-[x]-3(C)")) {
		t.Fatalf("unexpected third graph %v", all[2])
	}

	all, err = libggl.Expand(context.Background(), seeds, rs, libggl.ExpandOpts{MaxGraphs: 3}, libggl.NewGraphSet())
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 graphs, got %d (%v)", len(all), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	all, err = libggl.Expand(ctx, seeds, rs, libggl.ExpandOpts{}, libggl.NewDropDupes())
	if !errors.Is(err, context.Canceled) || len(all) != 1 {
		t.Fatalf("expected cancellation after the seeds, got %d graphs (%v)", len(all), err)
	}
}

const ruleYAML = `
rules:
  - name: oxidize
    expr: "1(C)-[-h]-2(-H), 1-[+o]-3(+O)"
  - name: saturated
    wildcard: ""
    nodes:
      - {id: 1, label: C}
      - {id: 2, label: C, context: change, right_label: N}
    edges:
      - {a: 1, b: 2, label: x}
    constraints:
      - {kind: adjacency, node: 2, labels: [h], op: ">=", count: 2}
`

func TestRuleYAML(t *testing.T) {
	rules, err := libggl.ParseRules([]byte(ruleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 || rules[0].Name != "oxidize" || rules[1].Name != "saturated" {
		t.Fatalf("unexpected rules %v", rules)
	}
	if wild, hasWild := rules[1].Wildcard(); hasWild || wild != "" {
		t.Fatal("expected the second rule to have no wildcard")
	}

	Y := applyOne(t, rules[0], "1(C)-[h]-2(H)")
	if !libggl.IsIsomorphic(Y, libggl.MustGraph("1(C)-[o]-2(O)")) {
		t.Fatalf("unexpected result %v", Y)
	}

	// only the second C carries two h edges
	X := libggl.MustGraph("1(C)-[x]-2(C)-[h]-3(H), 2-[h]-4(H), 1-[h]-5(H)")
	results := libggl.ApplyRuleAll(rules[1], X, libggl.ApplyOpts{})
	if len(results) != 1 || results[0].NodeLabel(1) != "N" {
		t.Fatalf("unexpected results %v", results)
	}

	_, err = libggl.ParseRules([]byte("rules:\n  - name: bad\n    expr: \"1(-C)-[x]-2(C)\"\n"))
	if !errors.Is(err, ggl.ErrBadRule) {
		t.Fatalf("expected ErrBadRule, got %v", err)
	}
}
