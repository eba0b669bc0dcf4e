package libggl

import (
	"sync"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/pkg/errors"
)

// Pattern is an immutable search query: a graph, an optional wildcard label and a list of constraints.
// A Pattern may be shared by any number of concurrent searches.
type Pattern struct {
	graph       ggl.Graph
	wildcard    string
	hasWildcard bool
	constraints []ggl.Constraint

	adj      *adjacency
	order    []int // BFS search order of pattern nodes
	parent   []int // parent[p] is a neighbour of p preceding it in order, or -1
	compOf   []int // component index of each pattern node
	numComps int

	autOnce sync.Once
	auts    [][]int
}

// NewPattern returns a Pattern for X.  An empty wildcard means the pattern has no wildcard.
func NewPattern(X ggl.Graph, wildcard string, constraints ...ggl.Constraint) (*Pattern, error) {
	if X == nil {
		return nil, ggl.ErrNilGraph
	}
	P := &Pattern{
		graph:       X,
		wildcard:    wildcard,
		hasWildcard: wildcard != "",
		constraints: append([]ggl.Constraint(nil), constraints...),
		adj:         newAdjacency(X),
	}

	N := X.NodeCount()
	for ci := range P.constraints {
		c := &P.constraints[ci]
		if c.Kind < ggl.NodeLabelConstraint || c.Kind > ggl.AdjacencyConstraint {
			return nil, errors.Wrapf(ggl.ErrBadConstraint, "constraint %d: kind %v", ci, c.Kind)
		}
		for _, ni := range c.Nodes(nil) {
			if ni < 0 || ni >= N {
				return nil, errors.Wrapf(ggl.ErrBadConstraint, "constraint %d: node %d out of range", ci, ni)
			}
		}
	}

	P.order = make([]int, 0, N)
	P.parent = make([]int, N)
	P.compOf = make([]int, N)
	seen := make([]bool, N)
	for i := 0; i < N; i++ {
		if seen[i] {
			continue
		}
		comp := P.numComps
		P.numComps++
		bfsOrder(X, []int{i}, seen, func(node, parent int) {
			P.order = append(P.order, node)
			P.parent[node] = parent
			P.compOf[node] = comp
		})
	}

	return P, nil
}

// MustPattern is NewPattern() for arguments known to be valid.
func MustPattern(X ggl.Graph, wildcard string, constraints ...ggl.Constraint) *Pattern {
	P, err := NewPattern(X, wildcard, constraints...)
	if err != nil {
		panic(err)
	}
	return P
}

// asPattern returns P as a *Pattern, building one if P is some other ggl.Pattern.
func asPattern(P ggl.Pattern) *Pattern {
	if impl, ok := P.(*Pattern); ok {
		return impl
	}
	wildcard, _ := P.Wildcard()
	impl, err := NewPattern(P.Graph(), wildcard, P.Constraints()...)
	if err != nil {
		panic(err)
	}
	return impl
}

func (P *Pattern) Graph() ggl.Graph {
	return P.graph
}

func (P *Pattern) Wildcard() (string, bool) {
	return P.wildcard, P.hasWildcard
}

func (P *Pattern) Constraints() []ggl.Constraint {
	return P.constraints
}

func (P *Pattern) NodeCount() int {
	return P.adj.nodeCount()
}

func (P *Pattern) NumEdges() int {
	return P.adj.numEdges
}

// NumComponents returns the number of connected components of the pattern graph.
func (P *Pattern) NumComponents() int {
	return P.numComps
}

// ComponentOf returns the component index of pattern node i.
func (P *Pattern) ComponentOf(i int) int {
	return P.compOf[i]
}

// componentOrder returns the BFS search order restricted to the given component.
func (P *Pattern) componentOrder(comp int) []int {
	order := make([]int, 0, len(P.order))
	for _, p := range P.order {
		if P.compOf[p] == comp {
			order = append(order, p)
		}
	}
	return order
}
