package pyggl_test

import (
	"testing"

	_ "github.com/fine-structures/graph-grammar/pyggl"
	"github.com/go-python/gpython/py"
	_ "github.com/go-python/gpython/stdlib"
)

const script = `
import _ggl

X = _ggl.Graph("1(C)-[x]-2(C)-[x]-3(C)")
assert X.NumNodes() == 3
assert X.NumEdges() == 2
assert X.IsIsomorphic("1(C)-[x]-2(C), 2-[x]-3(C)")
assert X.Signature() == _ggl.Graph("1(C)-[x]-3(C)-[x]-2(C)").Signature()

assert len(_ggl.Match("1(C)-[x]-2(C)", X)) == 4
assert len(_ggl.Match("1(C)-[x]-2(C)", X, True)) == 2
assert len(_ggl.Match("1(*)-[*]-2(*)", X, True)) == 2

grow = _ggl.Rule("grow", "1(C)-[+x]-2(+C)")
assert len(_ggl.Apply(grow, X)) == 3

all = _ggl.Expand(["1(C)"], [grow], 2)
assert len(all) == 3
assert all[2].IsIsomorphic(X)

ws = _ggl.GetWorkspace()
cat = ws.OpenCatalog("", 0)
for Y in all:
    assert cat.Add(Y)
assert not cat.Add("1(C)-[x]-3(C)-[x]-2(C)")
assert cat.NumGraphs() == 3
assert len(cat.Select()) == 3
cat.Close()
`

func TestScript(t *testing.T) {
	ctx := py.NewContext(py.DefaultContextOpts())
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	_, err := py.RunSrc(ctx, script, "pyggl_test", nil)
	if err != nil {
		py.TracebackDump(err)
		t.Fatal(err)
	}
}
