package libggl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
)

func TestGraphExpr(t *testing.T) {
	X := libggl.MustGraph("1(C)-[x]-2(C)-[y]-3(O), 4(N)")
	defer X.Reclaim()

	if X.NodeCount() != 4 || X.NumEdges() != 2 {
		t.Fatalf("expected 4 nodes and 2 edges, got %d and %d", X.NodeCount(), X.NumEdges())
	}
	if X.ComponentCount() != 2 {
		t.Fatalf("expected 2 components, got %d", X.ComponentCount())
	}

	str := X.String()
	if str != "1(C)-[x]-2(C),2-[y]-3(O),4(N)" {
		t.Fatalf("unexpected graph expr %q", str)
	}

	Y := libggl.MustGraph(str)
	defer Y.Reclaim()
	if Y.String() != str {
		t.Fatalf("graph expr didn't survive a round trip: %q vs %q", Y.String(), str)
	}
}

func TestGraphExprErrors(t *testing.T) {
	cases := []struct {
		expr string
		err  error
	}{
		{"1(C)-[x]-3(C)", ggl.ErrMissingNodeLabel},
		{"1(C)-[x]-2(C), 1(O)", ggl.ErrBadExpr},
		{"1(C)-[x", ggl.ErrBadExpr},
		{"0(C)", ggl.ErrBadNodeID},
		{"1(-C)-[x]-2(C)", ggl.ErrRuleMarkInGraph},
		{"1(C)-[+x]-2(C)", ggl.ErrRuleMarkInGraph},
	}
	for _, tc := range cases {
		_, err := libggl.NewGraphFromString(tc.expr)
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q: expected %v, got %v", tc.expr, tc.err, err)
		}
	}
}

func TestGraphEdits(t *testing.T) {
	X := libggl.MustGraph("1(A)-[x]-2(B)-[y]-3(C)-[z]-1, 2-[w]-2")
	defer X.Reclaim()

	info := X.GetInfo()
	if info.NumNodes != 3 || info.NumEdges != 4 || info.NumLoops != 1 || info.NumComponents != 1 {
		t.Fatalf("unexpected info %+v", info)
	}

	// a loop is enumerated once
	out := X.AppendOutEdges(1, nil)
	if len(out) != 3 {
		t.Fatalf("expected 3 out edges on node 2, got %v", out)
	}

	X.RemoveNode(1)
	if X.NodeCount() != 2 || X.NumEdges() != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %v", X)
	}
	if X.NodeLabel(1) != "C" || X.EdgeAt(0).Label != "z" {
		t.Fatalf("unexpected graph after node removal: %v", X)
	}

	offset := X.Concatenate(libggl.MustGraph("1(D)-[q]-2(E)"))
	if offset != 2 || X.NodeCount() != 4 || X.ComponentCount() != 2 {
		t.Fatalf("unexpected graph after concatenation: %v", X)
	}

	sub := X.Subgraph([]int{3, 2})
	defer sub.Reclaim()
	if sub.String() != "1(E)-[q]-2(D)" {
		t.Fatalf("unexpected subgraph %v", sub)
	}
}

func TestGraphEncoding(t *testing.T) {
	X := libggl.MustGraph("1(C)-[x]-2(C)-[y]-3(O), 3-[l]-3, 4(N)")
	defer X.Reclaim()

	enc := X.AppendEncoding(nil)
	Y, err := libggl.NewGraphFromEncoding(enc)
	if err != nil {
		t.Fatal(err)
	}
	defer Y.Reclaim()
	if Y.String() != X.String() {
		t.Fatalf("encoding round trip failed: %v vs %v", Y, X)
	}

	for _, bad := range [][]byte{nil, {2}, enc[:len(enc)-1]} {
		if _, err := libggl.NewGraphFromEncoding(bad); !errors.Is(err, ggl.ErrBadEncoding) {
			t.Fatalf("expected ErrBadEncoding for %v, got %v", bad, err)
		}
	}
}

func TestSignature(t *testing.T) {
	cases := []struct {
		X, Y string
		iso  bool
	}{
		{"1(C)-[x]-2(O)", "1(O)-[x]-2(C)", true},
		{"1(C)-[x]-2(O)", "1(C)-[y]-2(O)", false},
		{"1(C)-[x]-2(C)-[x]-3(C)-[x]-4(C)", "1(C)-[x]-2(C)-[x]-3(C), 2-[x]-4(C)", false},
		{"1(C)-[x]-2(C)-[x]-3(C)-[x]-1, 4(C)", "4(C), 1(C)-[x]-2(C)-[x]-3(C)-[x]-1", true},
		{"1(C)-[x]-2(C)-[x]-3(C)-[x]-1", "1(C)-[x]-2(C)-[x]-3(C), 3-[x]-3", false},
	}
	for _, tc := range cases {
		X := libggl.MustGraph(tc.X)
		Y := libggl.MustGraph(tc.Y)
		if iso := libggl.IsIsomorphic(X, Y); iso != tc.iso {
			t.Fatalf("IsIsomorphic(%q, %q) = %v", tc.X, tc.Y, iso)
		}
		if tc.iso && libggl.Signature(X) != libggl.Signature(Y) {
			t.Fatalf("isomorphic graphs %q and %q have different signatures", tc.X, tc.Y)
		}
		X.Reclaim()
		Y.Reclaim()
	}

	X := libggl.MustGraph("1(C)")
	b := strings.Builder{}
	X.WriteAsString(&b, ggl.PrintOpts{Info: true, Signature: true, Graph: true})
	if !strings.HasPrefix(b.String(), "n=1,e=0,c=1,") || !strings.HasSuffix(b.String(), `,"1(C)"`) {
		t.Fatalf("unexpected print output %q", b.String())
	}
}

func TestDropDupes(t *testing.T) {
	sets := map[string]ggl.GraphAdder{
		"DropDupes": libggl.NewDropDupes(),
		"GraphSet":  libggl.NewGraphSet(),
	}
	for name, set := range sets {
		add := func(expr string, expected bool) {
			X := libggl.MustGraph(expr)
			defer X.Reclaim()
			if added := set.TryAddGraph(X); added != expected {
				t.Fatalf("%s: TryAddGraph(%q) = %v", name, expr, added)
			}
		}
		add("1(C)-[x]-2(O)", true)
		add("1(C)-[x]-2(O)", false)
		add("1(O)-[x]-2(C)", false)
		add("1(O)-[y]-2(C)", true)
		add("1(C)-[x]-2(C)-[x]-3(C)-[x]-4(C)", true)
		add("1(C)-[x]-2(C)-[x]-3(C), 2-[x]-4(C)", true)
		add("1(C)-[x]-2(C)-[x]-4(C), 3(C)-[x]-4", false)
	}
	sets["GraphSet"].(*libggl.GraphSet).Close()
}
