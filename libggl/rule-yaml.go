package libggl

import (
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"gopkg.in/yaml.v3"
)

// RuleFile is the YAML form of a list of rules:
//
//	rules:
//	  - name: oxidize
//	    expr: "1(C)-[-h]-2(H), 1-[+o]-3(+O)"
//	  - name: bond
//	    wildcard: "*"
//	    nodes:
//	      - {id: 1, label: C}
//	      - {id: 2, label: C, context: change, right_label: N}
//	    edges:
//	      - {a: 1, b: 2, label: "*", context: left}
//	    constraints:
//	      - {kind: adjacency, node: 1, labels: [h], op: "<", count: 3}
//
// Node ids are one-based.  A rule gives either expr or nodes (and edges); expr accepts the graph expression
// syntax with rule marks.  Constraints may be given in either case.
type RuleFile struct {
	Rules []RuleYAML `yaml:"rules"`
}

type RuleYAML struct {
	Name        string           `yaml:"name"`
	Wildcard    *string          `yaml:"wildcard,omitempty"` // omitted denotes ggl.DefaultWildcard; "" denotes none
	Expr        string           `yaml:"expr,omitempty"`
	Nodes       []NodeYAML       `yaml:"nodes,omitempty"`
	Edges       []EdgeYAML       `yaml:"edges,omitempty"`
	Copy        []CopyYAML       `yaml:"copy,omitempty"`
	Constraints []ConstraintYAML `yaml:"constraints,omitempty"`
}

type NodeYAML struct {
	ID         int    `yaml:"id"`
	Label      string `yaml:"label"`
	Context    string `yaml:"context,omitempty"`
	RightLabel string `yaml:"right_label,omitempty"`
}

type EdgeYAML struct {
	A       int    `yaml:"a"`
	B       int    `yaml:"b"`
	Label   string `yaml:"label"`
	Context string `yaml:"context,omitempty"`
}

type CopyYAML struct {
	Source int      `yaml:"source"`
	Target int      `yaml:"target"`
	Labels []string `yaml:"labels,omitempty"`
}

type ConstraintYAML struct {
	Kind       string   `yaml:"kind"`
	Node       int      `yaml:"node"`
	Other      int      `yaml:"other,omitempty"`
	Labels     []string `yaml:"labels,omitempty"`
	NodeLabels []string `yaml:"node_labels,omitempty"`
	Negate     bool     `yaml:"negate,omitempty"`
	Op         string   `yaml:"op,omitempty"`
	Count      int      `yaml:"count,omitempty"`
}

var contextByName = map[string]ggl.Context{
	"":        ggl.InContext,
	"context": ggl.InContext,
	"left":    ggl.LeftOnly,
	"right":   ggl.RightOnly,
	"change":  ggl.LabelChange,
}

func parseContext(name string) (ggl.Context, error) {
	ctx, ok := contextByName[name]
	if !ok {
		return 0, errors.Wrapf(ggl.ErrBadRule, "unknown context %q", name)
	}
	return ctx, nil
}

// RuleDef converts ry into a RuleDef (one-based ids become core indices).
func (ry *RuleYAML) RuleDef() (RuleDef, error) {
	var def RuleDef
	var err error

	if ry.Expr != "" {
		if len(ry.Nodes) > 0 || len(ry.Edges) > 0 {
			return def, errors.Wrapf(ggl.ErrBadRule, "rule %q: give either expr or nodes", ry.Name)
		}
		if def, err = RuleDefFromString(ry.Name, ry.Expr); err != nil {
			return def, err
		}
	} else {
		def.Name = ry.Name
		def.Wildcard = ggl.DefaultWildcard
		def.Nodes = make([]ggl.RuleNode, len(ry.Nodes))
		seen := make([]bool, len(ry.Nodes))
		for _, ny := range ry.Nodes {
			idx := ny.ID - 1
			if idx < 0 || idx >= len(ry.Nodes) || seen[idx] {
				return def, errors.Wrapf(ggl.ErrBadNodeID, "rule %q: node id %d", ry.Name, ny.ID)
			}
			seen[idx] = true
			ctx, err := parseContext(ny.Context)
			if err != nil {
				return def, errors.Wrapf(err, "rule %q node %d", ry.Name, ny.ID)
			}
			def.Nodes[idx] = ggl.RuleNode{
				Label:      ny.Label,
				RightLabel: ny.RightLabel,
				Context:    ctx,
			}
		}
		for _, ey := range ry.Edges {
			ctx, err := parseContext(ey.Context)
			if err != nil {
				return def, errors.Wrapf(err, "rule %q edge %d-%d", ry.Name, ey.A, ey.B)
			}
			def.Edges = append(def.Edges, ggl.RuleEdge{
				A:       ey.A - 1,
				B:       ey.B - 1,
				Label:   ey.Label,
				Context: ctx,
			})
		}
	}

	if ry.Wildcard != nil {
		def.Wildcard = *ry.Wildcard
	}
	for _, cy := range ry.Copy {
		def.CopyAndPaste = append(def.CopyAndPaste, ggl.CopyAndPaste{
			Source:      cy.Source - 1,
			PasteTarget: cy.Target - 1,
			EdgeLabels:  cy.Labels,
		})
	}
	for i, cy := range ry.Constraints {
		c, err := cy.Constraint()
		if err != nil {
			return def, errors.Wrapf(err, "rule %q constraint %d", ry.Name, i)
		}
		def.Constraints = append(def.Constraints, c)
	}
	return def, nil
}

// Constraint converts cy into a ggl.Constraint (one-based ids become core indices).
func (cy *ConstraintYAML) Constraint() (ggl.Constraint, error) {
	kind, err := ggl.ParseConstraintKind(cy.Kind)
	if err != nil {
		return ggl.Constraint{}, err
	}
	c := ggl.Constraint{
		Kind:       kind,
		Node:       cy.Node - 1,
		Other:      cy.Other - 1,
		Labels:     cy.Labels,
		NodeLabels: cy.NodeLabels,
		Negate:     cy.Negate,
		Count:      cy.Count,
	}
	if kind == ggl.AdjacencyConstraint {
		op := cy.Op
		if op == "" {
			op = "="
		}
		if c.Op, err = ggl.ParseCompareOp(op); err != nil {
			return c, err
		}
	}
	return c, nil
}

// ReadRuleFile reads and checks every rule in the given YAML file.
func ReadRuleFile(pathname string) ([]*Rule, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rule file %q", pathname)
	}
	rules, err := ParseRules(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "rule file %q", pathname)
	}
	return rules, nil
}

// ParseRules reads and checks every rule in the given YAML document.
func ParseRules(buf []byte) ([]*Rule, error) {
	var file RuleFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, errors.Wrap(err, "parsing rules")
	}

	rules := make([]*Rule, 0, len(file.Rules))
	for i := range file.Rules {
		def, err := file.Rules[i].RuleDef()
		if err != nil {
			return nil, err
		}
		rule, err := NewRule(def)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRuleFiles reads the rule files matching each glob pattern (doublestar syntax, e.g. "rules/**/*.yaml").
// Files are read in sorted order, each once.
func LoadRuleFiles(patterns ...string) ([]*Rule, error) {
	paths := treeset.NewWithStringComparator()
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "rule glob %q", pattern)
		}
		if len(matches) == 0 {
			klog.Warningf("rule glob %q matched no files", pattern)
		}
		for _, path := range matches {
			paths.Add(path)
		}
	}

	var rules []*Rule
	for _, val := range paths.Values() {
		path := val.(string)
		fileRules, err := ReadRuleFile(path)
		if err != nil {
			return nil, err
		}
		klog.V(2).Infof("loaded %d rules from %s", len(fileRules), path)
		rules = append(rules, fileRules...)
	}
	return rules, nil
}
