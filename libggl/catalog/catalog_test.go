package catalog_test

import (
	"path/filepath"
	"testing"

	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/fine-structures/graph-grammar/libggl/catalog"
	"github.com/stretchr/testify/require"
)

var seedGraphs = []string{
	"1(C)",
	"1(O)",
	"1(C)-[x]-2(O)",
	"1(C)-[x]-2(C)-[x]-3(C)-[x]-4(C)",
	"1(C)-[x]-2(C)-[x]-3(C), 2-[x]-4(C)",
	"1(C)-[x]-2(C)-[x]-3(C)-[x]-1, 2-[l]-2",
}

func selectAll(cat ggl.Catalog, sel ggl.GraphSelector) []string {
	onHit := make(chan ggl.GraphState)
	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	var exprs []string
	for X := range onHit {
		exprs = append(exprs, X.(*libggl.Graph).String())
		X.Reclaim()
	}
	return exprs
}

func TestBasics(t *testing.T) {
	ctx := ggl.NewCatalogContext()
	defer ctx.Close()

	cat, err := catalog.OpenCatalog(ctx, ggl.CatalogOpts{})
	require.NoError(t, err)
	defer cat.Close()
	require.False(t, cat.IsReadOnly())

	for _, expr := range seedGraphs {
		X := libggl.MustGraph(expr)
		require.True(t, cat.TryAddGraph(X), expr)
		require.False(t, cat.TryAddGraph(X), expr)
		X.Reclaim()
	}

	// isomorphic to an existing entry
	X := libggl.MustGraph("1(O)-[x]-2(C)")
	require.False(t, cat.TryAddGraph(X))
	X.Reclaim()

	require.EqualValues(t, len(seedGraphs), cat.NumGraphs())
	require.Len(t, selectAll(cat, ggl.DefaultGraphSelector), len(seedGraphs))

	sel := ggl.DefaultGraphSelector
	sel.Min.NumEdges = 3
	sel.Max.NumLoops = 0
	require.Len(t, selectAll(cat, sel), 2)

	sel = ggl.DefaultGraphSelector
	sel.Labels = []string{"O"}
	require.Len(t, selectAll(cat, sel), 2)
}

func TestPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "TestPersistence")

	ctx := ggl.NewCatalogContext()
	defer ctx.Close()

	cat, err := catalog.OpenCatalog(ctx, ggl.CatalogOpts{DbPathName: dbPath})
	require.NoError(t, err)
	for _, expr := range seedGraphs {
		X := libggl.MustGraph(expr)
		require.True(t, cat.TryAddGraph(X))
		X.Reclaim()
	}
	require.NoError(t, cat.Close())

	cat, err = catalog.OpenCatalog(ctx, ggl.CatalogOpts{DbPathName: dbPath, ReadOnly: true})
	require.NoError(t, err)
	defer cat.Close()

	require.True(t, cat.IsReadOnly())
	require.EqualValues(t, len(seedGraphs), cat.NumGraphs())

	X := libggl.MustGraph("1(N)")
	require.False(t, cat.TryAddGraph(X))
	X.Reclaim()

	exprs := selectAll(cat, ggl.DefaultGraphSelector)
	require.Len(t, exprs, len(seedGraphs))
	for _, expr := range seedGraphs {
		Y := libggl.MustGraph(expr)
		found := false
		for _, got := range exprs {
			Z := libggl.MustGraph(got)
			found = found || libggl.IsIsomorphic(Y, Z)
			Z.Reclaim()
		}
		require.True(t, found, expr)
		Y.Reclaim()
	}
}

func TestBadParams(t *testing.T) {
	ctx := ggl.NewCatalogContext()
	defer ctx.Close()

	_, err := catalog.OpenCatalog(ctx, ggl.CatalogOpts{ReadOnly: true})
	require.ErrorIs(t, err, ggl.ErrBadCatalogParam)
}
