package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fine-structures/graph-grammar/config"
	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.True(t, *cfg.Match.Symmetry)
	require.Equal(t, config.ComponentsInjective, cfg.Match.Components)
	require.Equal(t, ggl.DefaultWildcard, *cfg.Wildcard)

	opts := cfg.ApplyOpts()
	require.True(t, opts.Symmetry)
	require.Equal(t, libggl.ComponentsInjective, opts.Match.Components)
	require.Zero(t, opts.Match.MaxHits)

	catOpts := cfg.CatalogOpts()
	require.Empty(t, catOpts.DbPathName)
	require.False(t, catOpts.ReadOnly)
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(`
log:
  verbosity: 2
match:
  max_hits: 10
  symmetry: false
  components: independent
apply:
  distinct_targets: true
expand:
  max_rounds: 3
  max_graphs: 1000
catalog:
  path: /tmp/ggl.db
  read_only: true
ledger:
  path: ledger.db
rules:
  - "rules/**/*.yaml"
`))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Log.Verbosity)

	opts := cfg.ApplyOpts()
	require.False(t, opts.Symmetry)
	require.True(t, opts.RequireDistinctTargets)
	require.Equal(t, 10, opts.Match.MaxHits)
	require.Equal(t, libggl.ComponentsIndependent, opts.Match.Components)

	require.Equal(t, libggl.ExpandOpts{MaxRounds: 3, MaxGraphs: 1000}, cfg.ExpandOpts())
	require.Equal(t, ggl.CatalogOpts{DbPathName: "/tmp/ggl.db", ReadOnly: true}, cfg.CatalogOpts())
	require.Equal(t, "ledger.db", cfg.Ledger.Path)
	require.Equal(t, []string{"rules/**/*.yaml"}, cfg.Rules)
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		"match: [",
		"match: {components: sideways}",
		"match: {max_hits: -1}",
		"expand: {max_rounds: -2}",
		"catalog: {read_only: true}",
	} {
		_, err := config.Parse([]byte(doc))
		require.ErrorIs(t, err, ggl.ErrBadConfig, doc)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules", "grow.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(rulesPath), 0700))
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
rules:
  - name: grow
    expr: "1(C)-[+x]-2(+C)"
  - name: relabel
    expr: "1(?)-[x]-2(C>N)"
`), 0600))

	cfgPath := filepath.Join(dir, "ggl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
wildcard: "?"
rules:
  - `+filepath.Join(dir, "rules", "**", "*.yaml")+`
`), 0600))

	cfg, path, err := config.LoadFromPath(cfgPath)
	require.NoError(t, err)
	require.Equal(t, cfgPath, path)

	rules, err := cfg.LoadRules()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, "grow", rules[0].Name)

	wild, ok := rules[1].Wildcard()
	require.True(t, ok)
	require.Equal(t, "?", wild)

	_, _, err = config.LoadFromPath(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
