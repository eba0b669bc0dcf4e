package libggl

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fine-structures/graph-grammar/ggl"
)

// Graph is an undirected labeled multigraph with dense node indices.
//
// Each edge is stored once (with From <= To) and is enumerated from both of its nodes by AppendOutEdges.
// A self-loop is enumerated once.
type Graph struct {
	labels   []string
	edges    []ggl.Edge
	incident [][]int32 // edge indices touching each node
}

func NewGraph(Xsrc *Graph) *Graph {
	X := graphPool.Get().(*Graph)
	X.Init(Xsrc)
	return X
}

// NewGraphFromView returns a new Graph holding a copy of the given graph view.
func NewGraphFromView(Xsrc ggl.Graph) *Graph {
	X := NewGraph(nil)
	X.Concatenate(Xsrc)
	return X
}

func (X *Graph) Init(Xsrc *Graph) {
	if X == Xsrc {
		return
	}

	X.labels = X.labels[:0]
	X.edges = X.edges[:0]
	if Xsrc != nil {
		X.labels = append(X.labels, Xsrc.labels...)
		X.edges = append(X.edges, Xsrc.edges...)
	}
	X.onGraphChanged()
}

func (X *Graph) Reclaim() {
	if X != nil {
		X.Init(nil)
		graphPool.Put(X)
	}
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return new(Graph)
	},
}

func (X *Graph) MakeCopy() ggl.GraphState {
	return NewGraph(X)
}

func (X *Graph) NodeCount() int {
	return len(X.labels)
}

func (X *Graph) NodeLabel(i int) string {
	return X.labels[i]
}

func (X *Graph) NumEdges() int {
	return len(X.edges)
}

// Edges returns this graph's edges (each with From <= To).  The slice should be considered read-only.
func (X *Graph) Edges() []ggl.Edge {
	return X.edges
}

func (X *Graph) EdgeAt(ei int) ggl.Edge {
	return X.edges[ei]
}

func (X *Graph) AppendOutEdges(from int, dst []ggl.Edge) []ggl.Edge {
	for _, ei := range X.incidentEdges(from) {
		e := X.edges[ei]
		if e.From == from {
			dst = append(dst, e)
		} else {
			dst = append(dst, ggl.Edge{From: from, To: e.From, Label: e.Label})
		}
	}
	return dst
}

// AddNode appends a node with the given label and returns its index.
func (X *Graph) AddNode(label string) int {
	X.labels = append(X.labels, label)
	X.incident = append(X.incident, nil)
	return len(X.labels) - 1
}

func (X *Graph) SetNodeLabel(i int, label string) {
	X.labels[i] = label
}

// AddEdge adds an undirected edge between nodes a and b and returns its edge index.
func (X *Graph) AddEdge(a, b int, label string) int {
	N := len(X.labels)
	if a < 0 || b < 0 || a >= N || b >= N {
		panic(fmt.Sprintf("AddEdge: node index out of range (%d, %d; %d nodes)", a, b, N))
	}
	if b < a {
		a, b = b, a
	}
	ei := len(X.edges)
	X.edges = append(X.edges, ggl.Edge{From: a, To: b, Label: label})
	X.incident[a] = append(X.incident[a], int32(ei))
	if a != b {
		X.incident[b] = append(X.incident[b], int32(ei))
	}
	return ei
}

// RemoveEdges removes the edges at the given edge indices (in any order, no duplicates).
func (X *Graph) RemoveEdges(edgeIdx []int) {
	if len(edgeIdx) == 0 {
		return
	}
	sort.Sort(sort.Reverse(sort.IntSlice(edgeIdx)))
	for _, ei := range edgeIdx {
		X.edges = append(X.edges[:ei], X.edges[ei+1:]...)
	}
	X.onGraphChanged()
}

// RemoveNode removes node i and every edge touching it.  Nodes above i shift down by one.
func (X *Graph) RemoveNode(i int) {
	keep := X.edges[:0]
	for _, e := range X.edges {
		if e.From == i || e.To == i {
			continue
		}
		if e.From > i {
			e.From--
		}
		if e.To > i {
			e.To--
		}
		keep = append(keep, e)
	}
	X.edges = keep
	X.labels = append(X.labels[:i], X.labels[i+1:]...)
	X.onGraphChanged()
}

// EdgesBetween appends the indices of edges connecting a and b (in edge index order).
func (X *Graph) EdgesBetween(a, b int, dst []int) []int {
	if b < a {
		a, b = b, a
	}
	for _, ei := range X.incidentEdges(a) {
		e := X.edges[ei]
		if e.From == a && e.To == b {
			dst = append(dst, int(ei))
		}
	}
	return dst
}

// Concatenates Xsrc to the "end" of X, returning the index offset of Xsrc's first node.
func (X *Graph) Concatenate(Xsrc ggl.Graph) int {
	v0 := len(X.labels)
	Nv := Xsrc.NodeCount()
	for i := 0; i < Nv; i++ {
		X.labels = append(X.labels, Xsrc.NodeLabel(i))
	}

	var buf [16]ggl.Edge
	for i := 0; i < Nv; i++ {
		for _, e := range Xsrc.AppendOutEdges(i, buf[:0]) {
			if e.To >= i {
				X.edges = append(X.edges, ggl.Edge{From: v0 + i, To: v0 + e.To, Label: e.Label})
			}
		}
	}

	X.onGraphChanged()
	return v0
}

// onGraphChanged rebuilds the incidence lists after a bulk edit.
// Incidence is kept current on every edit so that concurrent readers never write.
func (X *Graph) onGraphChanged() {
	N := len(X.labels)
	if cap(X.incident) < N {
		X.incident = make([][]int32, N)
	}
	X.incident = X.incident[:N]
	for i := range X.incident {
		X.incident[i] = X.incident[i][:0]
	}
	for ei, e := range X.edges {
		X.incident[e.From] = append(X.incident[e.From], int32(ei))
		if e.To != e.From {
			X.incident[e.To] = append(X.incident[e.To], int32(ei))
		}
	}
}

func (X *Graph) incidentEdges(i int) []int32 {
	return X.incident[i]
}

// Components returns the connected components of X, each as an ascending list of node indices.
// Components are ordered by their lowest node index.
func (X *Graph) Components() [][]int {
	return Components(X)
}

// ComponentCount returns the number of connected components in X.
func (X *Graph) ComponentCount() int {
	return len(Components(X))
}

// Subgraph returns a new Graph containing the given nodes (in the given order) and every edge between them.
func (X *Graph) Subgraph(nodes []int) *Graph {
	remap := make(map[int]int, len(nodes))
	Y := NewGraph(nil)
	for _, i := range nodes {
		remap[i] = Y.AddNode(X.labels[i])
	}
	for _, e := range X.edges {
		a, aok := remap[e.From]
		b, bok := remap[e.To]
		if aok && bok {
			Y.AddEdge(a, b, e.Label)
		}
	}
	return Y
}

func (X *Graph) GetInfo() ggl.GraphInfo {
	info := ggl.GraphInfo{
		NumNodes:      len(X.labels),
		NumEdges:      len(X.edges),
		NumComponents: X.ComponentCount(),
	}
	for _, e := range X.edges {
		if e.From == e.To {
			info.NumLoops++
		}
	}
	return info
}

func (X *Graph) String() string {
	buf := strings.Builder{}
	X.WriteAsGraphExprStr(&buf)
	return buf.String()
}

func (X *Graph) WriteAsString(out io.Writer, opts ggl.PrintOpts) {
	if opts.Info {
		info := X.GetInfo()
		fmt.Fprintf(out, "n=%d,e=%d,c=%d,", info.NumNodes, info.NumEdges, info.NumComponents)
	}
	if opts.Signature {
		sig := Signature(X)
		fmt.Fprintf(out, "%s,", sig.String())
	}
	if opts.Graph {
		out.Write([]byte{'"'})
		X.WriteAsGraphExprStr(out)
		out.Write([]byte{'"'})
	}
}

// WriteAsGraphExprStr writes X as a graph expression that InitFromString() reads back into an identical graph.
func (X *Graph) WriteAsGraphExprStr(out io.Writer) {
	labeled := make([]bool, len(X.labels))
	var buf [24]byte

	writeNode := func(i int) {
		out.Write(PrintInt(buf[:], int64(i+1)))
		if !labeled[i] {
			labeled[i] = true
			out.Write([]byte{'('})
			io.WriteString(out, X.labels[i])
			out.Write([]byte{')'})
		}
	}

	runs := 0
	for _, e := range X.edges {
		if runs > 0 {
			out.Write([]byte{','})
		}
		runs++
		writeNode(e.From)
		io.WriteString(out, "-[")
		io.WriteString(out, e.Label)
		io.WriteString(out, "]-")
		writeNode(e.To)
	}
	for i := range X.labels {
		if !labeled[i] {
			if runs > 0 {
				out.Write([]byte{','})
			}
			runs++
			writeNode(i)
		}
	}
}

// PrintInt prints the given integer in base 10, right justified in the buffer.
// Returns the tight-fitting slice of the output digits (a slice of []dst)
func PrintInt(dst []byte, val int64) []byte {
	sign := int(1)
	if val < 0 {
		sign = -1
		val = -val
	}
	L := len(dst)
	i := L
	for {
		next := val / 10
		digit := val - 10*next
		val = next
		i--
		dst[i] = '0' + byte(digit)
		if val == 0 {
			break
		}
	}
	if sign < 0 {
		i--
		dst[i] = '-'
	}
	return dst[i:]
}
