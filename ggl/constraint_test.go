package ggl_test

import (
	"testing"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/pkg/errors"
)

func TestParseConstraintNames(t *testing.T) {
	for _, kind := range []ggl.ConstraintKind{ggl.NodeLabelConstraint, ggl.EdgeLabelConstraint, ggl.NoEdgeConstraint, ggl.AdjacencyConstraint} {
		parsed, err := ggl.ParseConstraintKind(kind.String())
		if err != nil || parsed != kind {
			t.Fatalf("%v: got %v, %v", kind, parsed, err)
		}
	}
	for _, str := range []string{"=", "==", "!=", "<", "<=", ">", ">="} {
		op, err := ggl.ParseCompareOp(str)
		if err != nil {
			t.Fatalf("%q: %v", str, err)
		}
		if str != "==" && op.String() != str {
			t.Fatalf("%q parsed as %v", str, op)
		}
	}

	_, err := ggl.ParseConstraintKind("edge-label")
	if !errors.Is(err, ggl.ErrBadConstraint) {
		t.Fatalf("expected ErrBadConstraint, got %v", err)
	}
	if errors.Cause(err) != ggl.ErrBadConstraint {
		t.Fatalf("expected ErrBadConstraint as the cause, got %v", errors.Cause(err))
	}
	_, err = ggl.ParseCompareOp("=<")
	if !errors.Is(err, ggl.ErrBadConstraint) || errors.Cause(err) != ggl.ErrBadConstraint {
		t.Fatalf("expected ErrBadConstraint, got %v", err)
	}
}
