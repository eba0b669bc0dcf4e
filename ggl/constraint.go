package ggl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ConstraintKind selects how a Constraint is evaluated.
type ConstraintKind byte

const (
	// NodeLabelConstraint requires the target label of Node to be in Labels (or not in Labels if Negate).
	NodeLabelConstraint ConstraintKind = iota + 1

	// EdgeLabelConstraint requires at least one target edge between Node and Other and that every such edge
	// has a label in Labels (or, if Negate, that none does).
	EdgeLabelConstraint

	// NoEdgeConstraint forbids a target edge between Node and Other.
	// If Labels is set, only edges with those labels are forbidden.
	NoEdgeConstraint

	// AdjacencyConstraint compares, using Op, the number of target edges incident to Node
	// whose label is in Labels (any if empty) and whose far node label is in NodeLabels (any if empty) against Count.
	AdjacencyConstraint
)

var constraintKindNames = map[ConstraintKind]string{
	NodeLabelConstraint: "node_label",
	EdgeLabelConstraint: "edge_label",
	NoEdgeConstraint:    "no_edge",
	AdjacencyConstraint: "adjacency",
}

func (kind ConstraintKind) String() string {
	if name, ok := constraintKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("ConstraintKind(%d)", kind)
}

// ParseConstraintKind is the inverse of ConstraintKind.String().
func ParseConstraintKind(name string) (ConstraintKind, error) {
	for kind, str := range constraintKindNames {
		if str == name {
			return kind, nil
		}
	}
	return 0, errors.Wrapf(ErrBadConstraint, "unknown constraint kind %q", name)
}

// CompareOp is a comparison used by AdjacencyConstraint.
type CompareOp byte

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

var compareOpNames = [...]string{"=", "!=", "<", "<=", ">", ">="}

func (op CompareOp) String() string {
	if int(op) < len(compareOpNames) {
		return compareOpNames[op]
	}
	return "?"
}

// ParseCompareOp is the inverse of CompareOp.String().
func ParseCompareOp(str string) (CompareOp, error) {
	if str == "==" {
		return OpEQ, nil
	}
	for i, name := range compareOpNames {
		if name == str {
			return CompareOp(i), nil
		}
	}
	return 0, errors.Wrapf(ErrBadConstraint, "unknown comparison %q", str)
}

// Compare returns the result of "a op b".
func (op CompareOp) Compare(a, b int) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	}
	return false
}

// Constraint is a match condition stored by value in a Pattern.
// Node and Other are pattern node indices.
type Constraint struct {
	Kind       ConstraintKind
	Node       int
	Other      int
	Labels     []string
	NodeLabels []string
	Negate     bool
	Op         CompareOp
	Count      int
}

// Nodes appends the pattern nodes this constraint refers to.
func (c *Constraint) Nodes(dst []int) []int {
	dst = append(dst, c.Node)
	if c.Kind == EdgeLabelConstraint || c.Kind == NoEdgeConstraint {
		dst = append(dst, c.Other)
	}
	return dst
}

// Remap returns a copy of c with its node indices passed through remap.
func (c Constraint) Remap(remap func(i int) int) Constraint {
	c.Node = remap(c.Node)
	if c.Kind == EdgeLabelConstraint || c.Kind == NoEdgeConstraint {
		c.Other = remap(c.Other)
	}
	return c
}

// Key returns a string that is equal for two constraints iff they are equivalent.
// Pair constraints are direction independent.
func (c *Constraint) Key() string {
	a, b := c.Node, c.Other
	if c.Kind == EdgeLabelConstraint || c.Kind == NoEdgeConstraint {
		if b < a {
			a, b = b, a
		}
	} else {
		b = -1
	}
	return fmt.Sprintf("%v|%d|%d|%s|%s|%v|%v|%d",
		c.Kind, a, b,
		strings.Join(c.Labels, ","),
		strings.Join(c.NodeLabels, ","),
		c.Negate, c.Op, c.Count)
}
