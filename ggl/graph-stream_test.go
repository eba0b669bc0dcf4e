package ggl_test

import (
	"strings"
	"testing"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
)

type bufCloser struct {
	strings.Builder
	closed bool
}

func (buf *bufCloser) Close() error {
	buf.closed = true
	return nil
}

func streamOf(exprs ...string) *ggl.GraphStream {
	graphs := make([]ggl.GraphState, len(exprs))
	for i, expr := range exprs {
		graphs[i] = libggl.MustGraph(expr)
	}
	return ggl.StreamGraphs(graphs)
}

func TestStreamStages(t *testing.T) {
	sel := ggl.DefaultGraphSelector
	sel.Min.NumNodes = 2
	sel.Labels = []string{"O"}

	out := &bufCloser{}
	graphs := streamOf("1(C)-[x]-2(O)", "1(O)-[x]-2(C)", "1(O)", "1(C)-[x]-2(N)", "1(O)-[y]-2(O)").
		AddTo(libggl.NewDropDupes()).
		SelectFromStream(sel).
		Print(out, ggl.PrintOpts{Label: "sel", Graph: true}).
		Collect()

	if len(graphs) != 2 {
		t.Fatalf("expected 2 graphs, got %d", len(graphs))
	}
	if !out.closed {
		t.Fatal("expected Print to close its output")
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != `sel,000001,"1(C)-[x]-2(O)"` || lines[1] != `sel,000002,"1(O)-[y]-2(O)"` {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestStreamRewrite(t *testing.T) {
	rs := libggl.NewRuleSet(libggl.ApplyOpts{Symmetry: true}, libggl.MustRule("grow", "1(C)-[+x]-2(+C)"))

	count := streamOf("1(C)", "1(C)-[x]-2(C)", "1(O)").
		Rewrite(rs).
		AddTo(libggl.NewDropDupes()).
		PullAll()
	if count != 2 {
		t.Fatalf("expected 2 distinct rewrites, got %d", count)
	}
}

func TestReporters(t *testing.T) {
	P := libggl.MustPattern(libggl.MustGraph("1(C)-[x]-2(C)"), "")
	X := libggl.MustGraph("1(C)-[x]-2(C)-[x]-3(C)")

	collector := &ggl.CollectingReporter{}
	counter := ggl.NewCountingReporter("reporters", collector)
	n := libggl.NewMatcher(libggl.MatchOpts{}).Search(P, X, counter)
	if n != 4 || counter.Count() != 4 || len(collector.Matches) != 4 {
		t.Fatalf("expected 4 hits, got %d, %d, %d", n, counter.Count(), len(collector.Matches))
	}
	for i := 1; i < len(collector.Matches); i++ {
		if !collector.Matches[i-1].Less(collector.Matches[i]) {
			t.Fatalf("expected matches in ascending order, got %v", collector.Matches)
		}
	}
}
