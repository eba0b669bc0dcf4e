package libggl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/pkg/errors"
)

// RuleDef declares a rule: a core graph whose nodes and edges carry a ggl.Context, plus copy-and-paste operations.
// Constraint node indices refer to core nodes, which must all be on the left side.
type RuleDef struct {
	Name         string
	Wildcard     string // "" denotes no wildcard
	Nodes        []ggl.RuleNode
	Edges        []ggl.RuleEdge
	CopyAndPaste []ggl.CopyAndPaste
	Constraints  []ggl.Constraint
}

// RuleCheck is a bitmask of rule consistency problems; zero means the rule is consistent.
type RuleCheck uint32

const (
	CheckEmptyLeft           RuleCheck = 1 << iota // the left side has no nodes
	CheckEmptyLabel                                // a node or edge has an empty label
	CheckNoLabelChange                             // a LabelChange node has equal left and right labels
	CheckBadContext                                // a context tag is out of range
	CheckBadEndpoint                               // an edge refers to a node that doesn't exist
	CheckEdgeLabelChange                           // an edge is tagged LabelChange
	CheckUnbalancedEdgeDel                         // a LeftOnly edge touches a RightOnly node
	CheckUnbalancedEdgeIns                         // a RightOnly edge touches a LeftOnly node
	CheckDanglingContextEdge                       // a Context edge touches a LeftOnly or RightOnly node
	CheckWildcardOnRight                           // a created node, relabel or created edge uses the wildcard
	CheckBadCopyAndPaste                           // a copy-and-paste source isn't on the left or its target isn't on the right
	CheckBadConstraint                             // a constraint is malformed or refers to a node not on the left
)

var ruleCheckReasons = [...]string{
	"left side is empty",
	"empty node or edge label",
	"label change node has identical labels",
	"bad context tag",
	"edge endpoint out of range",
	"edge tagged as label change",
	"removed edge touches a created node",
	"created edge touches a removed node",
	"context edge touches a removed or created node",
	"wildcard used on the right side",
	"bad copy-and-paste operation",
	"bad constraint",
}

// Reasons returns a human-readable reason for each problem flagged in chk.
func (chk RuleCheck) Reasons() []string {
	var reasons []string
	for i, reason := range ruleCheckReasons {
		if chk&(1<<i) != 0 {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

func (chk RuleCheck) String() string {
	if chk == 0 {
		return "ok"
	}
	return strings.Join(chk.Reasons(), "; ")
}

// Err returns nil if chk is zero, otherwise an error wrapping ggl.ErrBadRule.
func (chk RuleCheck) Err() error {
	if chk == 0 {
		return nil
	}
	return errors.Wrap(ggl.ErrBadRule, chk.String())
}

// Check returns the consistency problems of def (zero if none).
func (def *RuleDef) Check() RuleCheck {
	var chk RuleCheck

	N := len(def.Nodes)
	hasWild := def.Wildcard != ""
	isWild := func(label string) bool {
		return hasWild && label == def.Wildcard
	}
	nodeCtx := func(i int) ggl.Context {
		return def.Nodes[i].Context
	}
	onLeft := func(i int) bool {
		return i >= 0 && i < N && nodeCtx(i).OnLeft()
	}
	onRight := func(i int) bool {
		return i >= 0 && i < N && nodeCtx(i).OnRight()
	}

	numLeft := 0
	for _, rn := range def.Nodes {
		if rn.Context > ggl.LabelChange {
			chk |= CheckBadContext
			continue
		}
		if rn.Context.OnLeft() {
			numLeft++
		}
		if rn.Label == "" || (rn.Context == ggl.LabelChange && rn.RightLabel == "") {
			chk |= CheckEmptyLabel
		}
		switch rn.Context {
		case ggl.LabelChange:
			if rn.RightLabel == rn.Label {
				chk |= CheckNoLabelChange
			}
			if isWild(rn.RightLabel) {
				chk |= CheckWildcardOnRight
			}
		case ggl.RightOnly:
			if isWild(rn.Label) {
				chk |= CheckWildcardOnRight
			}
		}
	}
	if numLeft == 0 {
		chk |= CheckEmptyLeft
	}

	for _, re := range def.Edges {
		if re.A < 0 || re.B < 0 || re.A >= N || re.B >= N {
			chk |= CheckBadEndpoint
			continue
		}
		if re.Label == "" {
			chk |= CheckEmptyLabel
		}
		ca, cb := nodeCtx(re.A), nodeCtx(re.B)
		switch re.Context {
		case ggl.InContext:
			if ca == ggl.LeftOnly || ca == ggl.RightOnly || cb == ggl.LeftOnly || cb == ggl.RightOnly {
				chk |= CheckDanglingContextEdge
			}
		case ggl.LeftOnly:
			if ca == ggl.RightOnly || cb == ggl.RightOnly {
				chk |= CheckUnbalancedEdgeDel
			}
		case ggl.RightOnly:
			if ca == ggl.LeftOnly || cb == ggl.LeftOnly {
				chk |= CheckUnbalancedEdgeIns
			}
			if isWild(re.Label) {
				chk |= CheckWildcardOnRight
			}
		case ggl.LabelChange:
			chk |= CheckEdgeLabelChange
		default:
			chk |= CheckBadContext
		}
	}

	for _, cp := range def.CopyAndPaste {
		if !onLeft(cp.Source) || !onRight(cp.PasteTarget) || cp.Source == cp.PasteTarget {
			chk |= CheckBadCopyAndPaste
		}
	}

	var nodes []int
	for ci := range def.Constraints {
		c := &def.Constraints[ci]
		if c.Kind < ggl.NodeLabelConstraint || c.Kind > ggl.AdjacencyConstraint {
			chk |= CheckBadConstraint
			continue
		}
		nodes = c.Nodes(nodes[:0])
		for _, ni := range nodes {
			if !onLeft(ni) {
				chk |= CheckBadConstraint
			}
		}
	}

	return chk
}

// Rule is a checked, immutable graph grammar production.
// A Rule may be shared by any number of concurrent searches and rule appliers.
type Rule struct {
	Name string

	def          RuleDef
	core         *Graph
	left         RuleView
	right        RuleView
	leftPattern  *Pattern
	compOf       []int      // component of each left node
	compNodes    [][]int    // left nodes of each component
	compPatterns []*Pattern // pattern of each component, indexed by position within compNodes

	autOnce sync.Once
	auts    [][]int
}

// NewRule checks def and returns the compiled Rule.
func NewRule(def RuleDef) (*Rule, error) {
	if chk := def.Check(); chk != 0 {
		return nil, errors.Wrapf(chk.Err(), "rule %q", def.Name)
	}

	r := &Rule{
		Name: def.Name,
		def:  def,
		core: NewGraph(nil),
	}
	for _, rn := range def.Nodes {
		r.core.AddNode(rn.Label)
	}
	for _, re := range def.Edges {
		r.core.AddEdge(re.A, re.B, re.Label)
	}

	r.left = newRuleView(r, ggl.LeftOnly)
	r.right = newRuleView(r, ggl.RightOnly)

	leftCons := make([]ggl.Constraint, len(def.Constraints))
	for ci, c := range def.Constraints {
		leftCons[ci] = c.Remap(r.left.ViewIndex)
	}

	var err error
	r.leftPattern, err = NewPattern(&r.left, def.Wildcard, leftCons...)
	if err != nil {
		return nil, errors.Wrapf(err, "rule %q", def.Name)
	}

	// Per-component patterns drive multi-target application.
	leftGraph := NewGraphFromView(&r.left)
	r.compOf = make([]int, leftGraph.NodeCount())
	r.compNodes = leftGraph.Components()
	for ci, nodes := range r.compNodes {
		for _, li := range nodes {
			r.compOf[li] = ci
		}
	}
	for ci, nodes := range r.compNodes {
		pos := make(map[int]int, len(nodes))
		for k, li := range nodes {
			pos[li] = k
		}
		var compCons []ggl.Constraint
		for _, c := range leftCons {
			inComp := true
			for _, li := range c.Nodes(nil) {
				if r.compOf[li] != ci {
					inComp = false
				}
			}
			if inComp {
				compCons = append(compCons, c.Remap(func(li int) int { return pos[li] }))
			}
		}
		P, err := NewPattern(leftGraph.Subgraph(nodes), def.Wildcard, compCons...)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q component %d", def.Name, ci)
		}
		r.compPatterns = append(r.compPatterns, P)
	}

	return r, nil
}

func (r *Rule) String() string {
	return fmt.Sprintf("rule %q (%d nodes, %d edges)", r.Name, len(r.def.Nodes), len(r.def.Edges))
}

// Def returns a copy of the definition r was compiled from.
func (r *Rule) Def() RuleDef {
	return r.def
}

// Check re-runs the consistency check (always zero for a Rule returned by NewRule).
func (r *Rule) Check() RuleCheck {
	return r.def.Check()
}

func (r *Rule) Core() ggl.Graph {
	return r.core
}

func (r *Rule) CoreNodes() []ggl.RuleNode {
	return r.def.Nodes
}

func (r *Rule) CoreEdges() []ggl.RuleEdge {
	return r.def.Edges
}

// LeftNodes returns the core indices of the left side nodes, in left view order.
func (r *Rule) LeftNodes() []int {
	return r.left.nodes
}

// RightNodes returns the core indices of the right side nodes, in right view order.
func (r *Rule) RightNodes() []int {
	return r.right.nodes
}

func (r *Rule) CopyAndPaste() []ggl.CopyAndPaste {
	return r.def.CopyAndPaste
}

func (r *Rule) Wildcard() (string, bool) {
	return r.def.Wildcard, r.def.Wildcard != ""
}

// Left returns the left side of r as a graph view.
func (r *Rule) Left() *RuleView {
	return &r.left
}

// Right returns the right side of r as a graph view.
func (r *Rule) Right() *RuleView {
	return &r.right
}

// LeftPattern returns the pattern searched for when applying r.
// Matches of this pattern are indexed by left view node.
func (r *Rule) LeftPattern() *Pattern {
	return r.leftPattern
}

// NumComponents returns the number of connected components of the left side.
func (r *Rule) NumComponents() int {
	return len(r.compNodes)
}

// RuleView is one side of a rule, exposed as a graph view by filtering the rule core.
type RuleView struct {
	rule   *Rule
	side   ggl.Context // LeftOnly for the left side, RightOnly for the right side
	nodes  []int       // core index of each view node
	toView []int       // view index of each core node (or -1)
}

func newRuleView(r *Rule, side ggl.Context) RuleView {
	view := RuleView{
		rule:   r,
		side:   side,
		toView: make([]int, len(r.def.Nodes)),
	}
	for ci, rn := range r.def.Nodes {
		view.toView[ci] = -1
		if view.includes(rn.Context) {
			view.toView[ci] = len(view.nodes)
			view.nodes = append(view.nodes, ci)
		}
	}
	return view
}

func (view *RuleView) includes(ctx ggl.Context) bool {
	if view.side == ggl.LeftOnly {
		return ctx.OnLeft()
	}
	return ctx.OnRight()
}

func (view *RuleView) NodeCount() int {
	return len(view.nodes)
}

func (view *RuleView) NodeLabel(i int) string {
	rn := &view.rule.def.Nodes[view.nodes[i]]
	if view.side == ggl.RightOnly && rn.Context == ggl.LabelChange {
		return rn.RightLabel
	}
	return rn.Label
}

func (view *RuleView) AppendOutEdges(i int, dst []ggl.Edge) []ggl.Edge {
	ci := view.nodes[i]
	core := view.rule.core
	for _, ei := range core.incidentEdges(ci) {
		re := &view.rule.def.Edges[ei]
		if !view.includes(re.Context) {
			continue
		}
		other := re.B
		if other == ci {
			other = re.A
		}
		dst = append(dst, ggl.Edge{From: i, To: view.toView[other], Label: re.Label})
	}
	return dst
}

// CoreIndex returns the core node index of view node i.
func (view *RuleView) CoreIndex(i int) int {
	return view.nodes[i]
}

// ViewIndex returns the view index of core node ci, or -1 if ci isn't on this side.
func (view *RuleView) ViewIndex(ci int) int {
	return view.toView[ci]
}
