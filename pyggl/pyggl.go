// Package pyggl registers the gpython module "_ggl", exposing graphs, rules, matching, rewriting and catalogs to scripts.
package pyggl

import (
	"context"
	"os"
	"strings"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/fine-structures/graph-grammar/libggl/catalog"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyGraphType     = py.NewType("Graph", "a labeled multigraph")
	pyRuleType      = py.NewType("Rule", "a graph rewriting rule")
	pyCatalogType   = py.NewType("Catalog", "a database of graphs, unique up to isomorphism")
	pyWorkspaceType = py.NewType("Workspace", "collects active session resources and catalogs")
)

type pyGraph struct {
	*libggl.Graph
}

func (X pyGraph) Type() *py.Type {
	return pyGraphType
}

func (X pyGraph) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	X.WriteAsString(&writer, ggl.DefaultPrintOpts)
	return py.String(writer.String()), nil
}

func (X pyGraph) M__repr__() (py.Object, error) {
	return X.M__str__()
}

type pyRule struct {
	*libggl.Rule
}

func (r pyRule) Type() *py.Type {
	return pyRuleType
}

func (r pyRule) M__str__() (py.Object, error) {
	return py.String(r.Rule.String()), nil
}

// getGraph accepts a Graph object or a graph expression string.
func getGraph(obj py.Object) (*libggl.Graph, error) {
	switch v := obj.(type) {
	case pyGraph:
		return v.Graph, nil
	case py.String:
		X, err := libggl.NewGraphFromString(string(v))
		if err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
		return X, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected Graph object (got %v)", obj.Type().Name)
}

func getRule(obj py.Object) (*libggl.Rule, error) {
	r, ok := obj.(pyRule)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Rule object (got %v)", obj.Type().Name)
	}
	return r.Rule, nil
}

// getItems returns the items of a tuple or list.
func getItems(obj py.Object) ([]py.Object, error) {
	switch v := obj.(type) {
	case py.Tuple:
		return v, nil
	case *py.List:
		return v.Items, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected tuple or list (got %v)", obj.Type().Name)
}

func wrapGraphs(graphs []*libggl.Graph) py.Tuple {
	tuple := make(py.Tuple, len(graphs))
	for i, X := range graphs {
		tuple[i] = pyGraph{X}
	}
	return tuple
}

// Arg 1 (str): graph expression
func py_Graph(module py.Object, args py.Tuple) (py.Object, error) {
	var expr py.Object
	if err := py.ParseTuple(args, "s", &expr); err != nil {
		return nil, err
	}
	X, err := getGraph(expr)
	if err != nil {
		return nil, err
	}
	return pyGraph{X}, nil
}

// Arg 1 (str): rule name
// Arg 2 (str): rule expression
func py_Rule(module py.Object, args py.Tuple) (py.Object, error) {
	var name, expr py.Object
	if err := py.ParseTuple(args, "ss", &name, &expr); err != nil {
		return nil, err
	}
	r, err := libggl.NewRuleFromString(string(name.(py.String)), string(expr.(py.String)))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return pyRule{r}, nil
}

// Arg 1 (Graph|str): pattern (the default wildcard label matches any label)
// Arg 2 (Graph|str): target
// Arg 3 (bool, optional): report one match per pattern automorphism class
//
// Returns a tuple of matches, each a tuple of target node indices.
func py_Match(module py.Object, args py.Tuple) (py.Object, error) {
	var patternObj, targetObj py.Object
	var symmetry py.Object = py.False
	if err := py.ParseTuple(args, "OO|O", &patternObj, &targetObj, &symmetry); err != nil {
		return nil, err
	}
	Pg, err := getGraph(patternObj)
	if err != nil {
		return nil, err
	}
	X, err := getGraph(targetObj)
	if err != nil {
		return nil, err
	}
	P, err := libggl.NewPattern(Pg, ggl.DefaultWildcard)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}

	collector := &ggl.CollectingReporter{}
	var rep ggl.Reporter = collector
	if symmetry == py.True {
		rep = libggl.NewSymmetryFilter(P, rep)
	}
	libggl.NewMatcher(libggl.MatchOpts{}).Search(P, X, rep)

	matches := make(py.Tuple, len(collector.Matches))
	for i, m := range collector.Matches {
		tuple := make(py.Tuple, len(m))
		for j, ti := range m {
			tuple[j] = py.Int(ti)
		}
		matches[i] = tuple
	}
	return matches, nil
}

// Arg 1 (Rule): rule
// Arg 2 (Graph|str): target
//
// Returns a tuple of result graphs, one per match class.
func py_Apply(module py.Object, args py.Tuple) (py.Object, error) {
	var ruleObj, targetObj py.Object
	if err := py.ParseTuple(args, "OO", &ruleObj, &targetObj); err != nil {
		return nil, err
	}
	r, err := getRule(ruleObj)
	if err != nil {
		return nil, err
	}
	X, err := getGraph(targetObj)
	if err != nil {
		return nil, err
	}
	results := libggl.ApplyRuleAll(r, X, libggl.ApplyOpts{Symmetry: true})
	return wrapGraphs(results), nil
}

// Arg 1 (tuple|list): seed graphs
// Arg 2 (tuple|list): rules
// Arg 3 (int): max rounds
//
// Returns every distinct graph reached, seeds first.
func py_Expand(module py.Object, args py.Tuple) (py.Object, error) {
	var seedsObj, rulesObj, roundsObj py.Object
	if err := py.ParseTuple(args, "OOi", &seedsObj, &rulesObj, &roundsObj); err != nil {
		return nil, err
	}
	rounds, err := py.GetInt(roundsObj)
	if err != nil {
		return nil, err
	}

	items, err := getItems(seedsObj)
	if err != nil {
		return nil, err
	}
	seeds := make([]*libggl.Graph, len(items))
	for i, item := range items {
		if seeds[i], err = getGraph(item); err != nil {
			return nil, err
		}
	}

	if items, err = getItems(rulesObj); err != nil {
		return nil, err
	}
	rs := libggl.NewRuleSet(libggl.ApplyOpts{Symmetry: true})
	for _, item := range items {
		r, err := getRule(item)
		if err != nil {
			return nil, err
		}
		rs.Add(r)
	}

	seen := libggl.NewDropDupes()
	defer seen.Close()
	all, err := libggl.Expand(context.Background(), seeds, rs, libggl.ExpandOpts{MaxRounds: int(rounds)}, seen)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return wrapGraphs(all), nil
}

func py_Graph_NumNodes(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(X.NodeCount()), nil
}

func py_Graph_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Int(X.NumEdges()), nil
}

func py_Graph_Signature(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.String(libggl.Signature(X.Graph).String()), nil
}

func py_Graph_IsIsomorphic(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	var other py.Object
	if err := py.ParseTuple(args, "O", &other); err != nil {
		return nil, err
	}
	Y, err := getGraph(other)
	if err != nil {
		return nil, err
	}
	return py.NewBool(libggl.IsIsomorphic(X.Graph, Y)), nil
}

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx ggl.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: ggl.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

// Arg 1 (str): db pathname ("" for an in-memory catalog)
// Arg 2 (int): flags (READ_ONLY)
func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := ggl.CatalogOpts{
		ReadOnly:   (flags & READ_ONLY) != 0,
		DbPathName: pathname,
	}
	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return pyCatalog{cat}, nil
}

type pyCatalog struct {
	ggl.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_NumGraphs(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	return py.Int(cat.NumGraphs()), nil
}

// Arg 1 (Graph|str): graph to add
//
// Returns True if the graph was added (no isomorphic graph was present).
func py_Catalog_Add(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "%v", ggl.ErrCatalogReadOnly)
	}
	var obj py.Object
	if err := py.ParseTuple(args, "O", &obj); err != nil {
		return nil, err
	}
	X, err := getGraph(obj)
	if err != nil {
		return nil, err
	}
	return py.NewBool(cat.TryAddGraph(X)), nil
}

// Arg 1 (str, optional): a label each selected graph must carry
//
// Returns a tuple of the selected graphs.
func py_Catalog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	sel := ggl.DefaultGraphSelector
	var label string
	if err := py.LoadTuple(args, []interface{}{&label}); err != nil {
		return nil, err
	}
	if label != "" {
		sel.Labels = []string{label}
	}

	var graphs []*libggl.Graph
	for X := range ggl.SelectFromCatalog(cat, sel).Outlet {
		graphs = append(graphs, X.(*libggl.Graph))
	}
	return wrapGraphs(graphs), nil
}

func init() {

	/////////////////////////////////
	// Graph
	{
		pyGraphType.Dict["NumNodes"] = py.MustNewMethod("NumNodes", py_Graph_NumNodes, 0, "")
		pyGraphType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_Graph_NumEdges, 0, "")
		pyGraphType.Dict["Signature"] = py.MustNewMethod("Signature", py_Graph_Signature, 0, "returns the isomorphism-invariant signature of this Graph")
		pyGraphType.Dict["IsIsomorphic"] = py.MustNewMethod("IsIsomorphic", py_Graph_IsIsomorphic, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Add"] = py.MustNewMethod("Add", py_Catalog_Add, 0, "")
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumGraphs"] = py.MustNewMethod("NumGraphs", py_Catalog_NumGraphs, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("Graph", py_Graph, 0, "parses a graph expression"),
			py.MustNewMethod("Rule", py_Rule, 0, "parses a rule expression"),
			py.MustNewMethod("Match", py_Match, 0, "finds the embeddings of a pattern in a target graph"),
			py.MustNewMethod("Apply", py_Apply, 0, "applies a rule at each match in a target graph"),
			py.MustNewMethod("Expand", py_Expand, 0, "closes a set of seed graphs under a list of rules"),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"WILDCARD":    py.String(ggl.DefaultWildcard),
			"READ_ONLY":   py.Int(READ_ONLY),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_ggl",
				Doc:  "graph grammar gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
