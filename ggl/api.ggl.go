package ggl

import (
	"io"
)

// DefaultWildcard is the wildcard label used by expression and YAML rule loaders when none is given.
const DefaultWildcard = "*"

// Edge is one direction of a labeled graph edge.
type Edge struct {
	From  int
	To    int
	Label string
}

// Graph is a read-only labeled multigraph view.
//
// Node indices are dense: 0..NodeCount()-1.
// An undirected edge between a and b is enumerated from a (as a->b) and from b (as b->a).
// A self-loop is enumerated exactly once from its node.
type Graph interface {

	// NodeCount returns the number of nodes in this graph.
	NodeCount() int

	// NodeLabel returns the label of node i.
	NodeLabel(i int) string

	// AppendOutEdges appends every edge leaving node i to dst and returns the extended slice.
	// Each appended Edge has From == i.
	AppendOutEdges(i int, dst []Edge) []Edge
}

// Context tags a rule node or rule edge with the side(s) of the rule it belongs to.
type Context byte

const (
	InContext   Context = iota // present on both sides and preserved
	LeftOnly                   // matched and then removed
	RightOnly                  // created by the rewrite
	LabelChange                // nodes only: present on both sides with a new label on the right
)

var contextNames = [...]string{"Context", "LeftOnly", "RightOnly", "LabelChange"}

func (ctx Context) String() string {
	if int(ctx) < len(contextNames) {
		return contextNames[ctx]
	}
	return "Context(?)"
}

// OnLeft returns true if an element with this context is part of a rule's left side.
func (ctx Context) OnLeft() bool {
	return ctx == InContext || ctx == LeftOnly || ctx == LabelChange
}

// OnRight returns true if an element with this context is part of a rule's right side.
func (ctx Context) OnRight() bool {
	return ctx == InContext || ctx == RightOnly || ctx == LabelChange
}

// RuleNode is a node of a rule core graph.
type RuleNode struct {
	Label      string  // left label (right label for RightOnly nodes)
	RightLabel string  // used only for LabelChange nodes
	Context    Context // Context, LeftOnly, RightOnly or LabelChange
}

// RuleEdge is an undirected edge of a rule core graph between core nodes A and B.
type RuleEdge struct {
	A       int
	B       int
	Label   string
	Context Context // Context, LeftOnly or RightOnly
}

// CopyAndPaste duplicates the edges on Source onto PasteTarget once a rewrite completes its node edits.
// Source and PasteTarget are rule core node indices.
type CopyAndPaste struct {
	Source      int
	PasteTarget int
	EdgeLabels  []string // edge labels to duplicate; empty (or containing the wildcard) means all
}

// RuleCore exposes a rule's core graph with its per-node and per-edge context tags.
type RuleCore interface {
	Core() Graph
	CoreNodes() []RuleNode
	CoreEdges() []RuleEdge
	LeftNodes() []int
	RightNodes() []int
	CopyAndPaste() []CopyAndPaste
}

// Pattern is a Graph used as a subgraph search query.
type Pattern interface {

	// Graph returns the pattern graph being searched for.
	Graph() Graph

	// Wildcard returns the wildcard label and true, or "" and false if this pattern has no wildcard.
	Wildcard() (string, bool)

	// Constraints returns the match constraints of this pattern.
	Constraints() []Constraint
}

// Match maps pattern node i to target node Match[i].
//
// A Match handed to a Reporter is only valid for the duration of the call; use Clone() to retain it.
type Match []int

func (m Match) Clone() Match {
	return append(Match(nil), m...)
}

// IsInjective returns true if no two pattern nodes map to the same target node.
func (m Match) IsInjective() bool {
	for i, ti := range m {
		for _, tj := range m[:i] {
			if ti == tj {
				return false
			}
		}
	}
	return true
}

// Less returns true if m precedes other lexicographically.
func (m Match) Less(other Match) bool {
	for i, ti := range m {
		if i >= len(other) {
			return false
		}
		if ti != other[i] {
			return ti < other[i]
		}
	}
	return len(m) < len(other)
}

// Reporter receives each accepted embedding from a search, synchronously and from within the search call.
//
// Returning false stops the search that invoked it.
// A Reporter may run nested searches but must use its own Matcher to do so.
type Reporter interface {
	ReportHit(P Pattern, X Graph, m Match) bool
}

// ReporterFunc adapts a func to a Reporter.
type ReporterFunc func(P Pattern, X Graph, m Match) bool

func (fn ReporterFunc) ReportHit(P Pattern, X Graph, m Match) bool {
	return fn(P, X, m)
}

// GraphState is a Graph that can travel through a GraphStream.
type GraphState interface {
	Graph

	// NumEdges returns the number of (undirected) edges in this graph.
	NumEdges() int

	WriteAsString(out io.Writer, opts PrintOpts)

	// Returns a new copy of this instance.
	MakeCopy() GraphState

	// Returns info about this graph
	GetInfo() GraphInfo

	// Recycles this GraphState instance into a pool for reuse.
	// Caller asserts that no more references to this instance will persist.
	Reclaim()
}

// Rewriter emits zero or more rewritten graphs for a given graph.
type Rewriter interface {

	// Rewrite calls onResult with each graph derived from X, passing ownership of each result.
	// Rewriting stops early if onResult returns false.
	// Returns the number of results emitted.
	Rewrite(X GraphState, onResult func(Y GraphState) bool) int
}

// OnGraphHit is a callback channel used to return Graph's meeting a set of selection criteria.
// Ownership of a Graph also travels through the channel.
type OnGraphHit chan<- GraphState

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs to be closed then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}

// CatalogOpts specifies params for opening a graph Catalog
type CatalogOpts struct {
	DbPathName string // omit for in-memory db
	ReadOnly   bool   // open in read-only mode
}

type GraphAdder interface {

	// Tries to add the given graph to this set.
	// If true is returned, no isomorphic graph existed and X was added.
	TryAddGraph(X GraphState) bool
}

// Catalog wraps a database of graphs, unique up to isomorphism.
type Catalog interface {
	GraphAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// NumGraphs returns the number of graphs in this catalog.
	NumGraphs() int64

	// Select sends each graph meeting the selection criteria to onHit.
	Select(sel GraphSelector, onHit OnGraphHit)

	Close() error
}

type GraphInfo struct {
	NumNodes      int
	NumEdges      int
	NumLoops      int
	NumComponents int
}

// GraphSelector is an operator that either selects a given Graph or not.
type GraphSelector struct {
	Min    GraphInfo // lower select bounds
	Max    GraphInfo // upper select bounds
	Labels []string  // if set, each label must appear on at least one node
}

// PrintOpts specifies what is printing when printing a graph
type PrintOpts struct {
	Label     string // Prefix label
	Graph     bool   // If set, prints graph construction expr
	Info      bool   // If set, prints node, edge and component counts
	Signature bool   // If set, prints the graph's isomorphism invariant
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{
	Graph: true,
}
