package libggl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/pkg/errors"
)

// GraphExpr is a graph or rule expression, e.g.
//
//	1(C)-[x]-2(C)-[y]-3(O), 4(N)
//	1(C)-[-x]-2(O), 1-[+y]-3(+N), 4(C>N) ; copy 2 > 3 [a b]
//
// Node IDs are one-based and dense; each node is labeled at one (or more, identically) of its mentions.
// In rules, a "-" mark denotes LeftOnly, "+" denotes RightOnly, and "L>R" denotes a LabelChange node.
type GraphExpr struct {
	Runs   []*EdgeRun  `parser:"@@ ( \",\" @@ )*"`
	Copies []*CopyExpr `parser:"( \";\" @@ )*"`
}

type EdgeRun struct {
	Start *NodeExpr  `parser:"@@"`
	Hops  []*EdgeHop `parser:"@@*"`
}

type EdgeHop struct {
	Edge *LabelExpr `parser:"\"-\" \"[\" @@ \"]\" \"-\""`
	End  *NodeExpr  `parser:"@@"`
}

type NodeExpr struct {
	ID    int        `parser:"@Int"`
	Label *LabelExpr `parser:"( \"(\" @@ \")\" )?"`
}

type LabelExpr struct {
	Mark  string `parser:"@( \"+\" | \"-\" )?"`
	Label string `parser:"@( Label | Int )"`
	Right string `parser:"( \">\" @( Label | Int ) )?"`
}

type CopyExpr struct {
	Source int      `parser:"\"copy\" @Int"`
	Target int      `parser:"\">\" @Int"`
	Labels []string `parser:"( \"[\" @( Label | Int )* \"]\" )?"`
}

var graphExprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Label", Pattern: `[A-Za-z_*#@.:=!?$%&^~][A-Za-z0-9_*#@.:=!?$%&^~]*`},
	{Name: "Punct", Pattern: `[-+()\[\],;>]`},
	{Name: "whitespace", Pattern: `[ \t\r\n]+`},
})

var parseGraphExpr = participle.MustBuild[GraphExpr](
	participle.Lexer(graphExprLexer),
)

// exprBuilder gathers the nodes and edges of a GraphExpr, keyed by one-based node ID.
type exprBuilder struct {
	nodes  []ggl.RuleNode
	known  []bool
	edges  []ggl.RuleEdge
	copies []ggl.CopyAndPaste
}

func markToContext(mark string) ggl.Context {
	switch mark {
	case "-":
		return ggl.LeftOnly
	case "+":
		return ggl.RightOnly
	}
	return ggl.InContext
}

func (Xb *exprBuilder) tallyNode(node *NodeExpr) error {
	if node.ID < 1 {
		return errors.Wrapf(ggl.ErrBadNodeID, "node ID %d", node.ID)
	}
	idx := node.ID - 1
	for len(Xb.nodes) <= idx {
		Xb.nodes = append(Xb.nodes, ggl.RuleNode{})
		Xb.known = append(Xb.known, false)
	}
	if node.Label == nil {
		return nil
	}

	rn := ggl.RuleNode{
		Label:   node.Label.Label,
		Context: markToContext(node.Label.Mark),
	}
	if node.Label.Right != "" {
		if node.Label.Mark != "" {
			return errors.Wrapf(ggl.ErrBadExpr, "node %d: a label change can't also be marked %q", node.ID, node.Label.Mark)
		}
		rn.Context = ggl.LabelChange
		rn.RightLabel = node.Label.Right
	}

	if Xb.known[idx] {
		if Xb.nodes[idx] != rn {
			return errors.Wrapf(ggl.ErrBadExpr, "node %d is labeled inconsistently", node.ID)
		}
		return nil
	}
	Xb.nodes[idx] = rn
	Xb.known[idx] = true
	return nil
}

func (Xb *exprBuilder) applyRun(run *EdgeRun) error {
	onNode := run.Start
	if err := Xb.tallyNode(onNode); err != nil {
		return err
	}

	for _, hop := range run.Hops {
		nextNode := hop.End
		if err := Xb.tallyNode(nextNode); err != nil {
			return err
		}
		if hop.Edge.Right != "" {
			return errors.Wrapf(ggl.ErrBadEdge, "edge %d-%d: edges can't change label", onNode.ID, nextNode.ID)
		}
		Xb.edges = append(Xb.edges, ggl.RuleEdge{
			A:       onNode.ID - 1,
			B:       nextNode.ID - 1,
			Label:   hop.Edge.Label,
			Context: markToContext(hop.Edge.Mark),
		})
		onNode = nextNode
	}

	return nil
}

func buildFromExpr(exprStr string) (*exprBuilder, error) {
	expr, err := parseGraphExpr.ParseString("", exprStr)
	if err != nil {
		return nil, errors.Wrap(ggl.ErrBadExpr, err.Error())
	}

	Xb := &exprBuilder{}
	for _, run := range expr.Runs {
		if err = Xb.applyRun(run); err != nil {
			return nil, err
		}
	}
	for i, known := range Xb.known {
		if !known {
			return nil, errors.Wrapf(ggl.ErrMissingNodeLabel, "node %d", i+1)
		}
	}
	for _, cp := range expr.Copies {
		Xb.copies = append(Xb.copies, ggl.CopyAndPaste{
			Source:      cp.Source - 1,
			PasteTarget: cp.Target - 1,
			EdgeLabels:  cp.Labels,
		})
	}
	return Xb, nil
}

// NewGraphFromString returns a new Graph from the given graph expression.
func NewGraphFromString(graphExpr string) (*Graph, error) {
	X := NewGraph(nil)
	if err := X.InitFromString(graphExpr); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}

// MustGraph is NewGraphFromString() for expressions known to be valid.
func MustGraph(graphExpr string) *Graph {
	X, err := NewGraphFromString(graphExpr)
	if err != nil {
		panic(err)
	}
	return X
}

// InitFromString resets X to the graph expressed by graphExpr.
func (X *Graph) InitFromString(graphExpr string) error {
	X.Init(nil)

	Xb, err := buildFromExpr(graphExpr)
	if err != nil {
		return err
	}
	if len(Xb.copies) > 0 {
		return ggl.ErrRuleMarkInGraph
	}
	for _, rn := range Xb.nodes {
		if rn.Context != ggl.InContext {
			return ggl.ErrRuleMarkInGraph
		}
		X.AddNode(rn.Label)
	}
	for _, re := range Xb.edges {
		if re.Context != ggl.InContext {
			return ggl.ErrRuleMarkInGraph
		}
		X.AddEdge(re.A, re.B, re.Label)
	}
	return nil
}

// RuleDefFromString reads a rule expression into a RuleDef with the default wildcard.
func RuleDefFromString(name, ruleExpr string) (RuleDef, error) {
	Xb, err := buildFromExpr(ruleExpr)
	if err != nil {
		return RuleDef{}, errors.Wrapf(err, "rule %q", name)
	}
	def := RuleDef{
		Name:         name,
		Wildcard:     ggl.DefaultWildcard,
		Nodes:        Xb.nodes,
		Edges:        Xb.edges,
		CopyAndPaste: Xb.copies,
	}
	return def, nil
}

// NewRuleFromString reads and checks a rule expression.
func NewRuleFromString(name, ruleExpr string) (*Rule, error) {
	def, err := RuleDefFromString(name, ruleExpr)
	if err != nil {
		return nil, err
	}
	return NewRule(def)
}

// MustRule is NewRuleFromString() for rules known to be valid.
func MustRule(name, ruleExpr string) *Rule {
	rule, err := NewRuleFromString(name, ruleExpr)
	if err != nil {
		panic(err)
	}
	return rule
}
