package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fine-structures/graph-grammar/config"
	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/fine-structures/graph-grammar/libggl/catalog"
	"github.com/fine-structures/graph-grammar/libggl/ledger"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

// app holds the flags and resources shared by the subcommands.
type app struct {
	gofs *flag.FlagSet

	cfgPath     string
	catalogPath string
	ruleExprs   []string
	ruleGlobs   []string

	cfg    *config.Config
	catCtx ggl.CatalogContext
}

func newRootCmd(gofs *flag.FlagSet) *cobra.Command {
	a := &app{gofs: gofs}

	root := &cobra.Command{
		Use:           "ggl",
		Short:         "graph grammar toolkit: subgraph matching and rule rewriting",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.catCtx != nil {
				a.catCtx.Close()
				<-a.catCtx.Done()
			}
		},
	}
	if gofs != nil {
		root.PersistentFlags().AddGoFlagSet(gofs)
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default: $GGL_CONFIG or ./ggl.yaml)")
	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "catalog db path (overrides catalog.path)")
	root.PersistentFlags().StringArrayVarP(&a.ruleExprs, "rule", "r", nil, "rule expression (repeatable)")
	root.PersistentFlags().StringArrayVar(&a.ruleGlobs, "rules", nil, "YAML rule file glob (repeatable)")

	root.AddCommand(
		a.matchCmd(),
		a.applyCmd(),
		a.expandCmd(),
		a.selectCmd(),
		a.runCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	var err error
	if a.cfgPath != "" {
		a.cfg, _, err = config.LoadFromPath(a.cfgPath)
	} else {
		var path string
		a.cfg, path, err = config.Load()
		if path != "" {
			klog.V(1).Infof("using config %s", path)
		}
	}
	if err != nil {
		return err
	}

	if a.catalogPath != "" {
		a.cfg.Catalog.Path = a.catalogPath
	}
	if a.gofs != nil && a.cfg.Log.Verbosity > 0 {
		if vflag := a.gofs.Lookup("v"); vflag != nil && vflag.Value.String() == "0" {
			a.gofs.Set("v", strconv.Itoa(a.cfg.Log.Verbosity))
		}
	}
	return nil
}

// rules gathers the rules given by --rule, --rules and the config, in that order.
func (a *app) rules() (*libggl.RuleSet, error) {
	rs := libggl.NewRuleSet(a.cfg.ApplyOpts())
	for i, expr := range a.ruleExprs {
		def, err := libggl.RuleDefFromString(fmt.Sprintf("rule%d", i+1), expr)
		if err != nil {
			return nil, err
		}
		def.Wildcard = *a.cfg.Wildcard
		r, err := libggl.NewRule(def)
		if err != nil {
			return nil, err
		}
		rs.Add(r)
	}
	if len(a.ruleGlobs) > 0 {
		fileRules, err := libggl.LoadRuleFiles(a.ruleGlobs...)
		if err != nil {
			return nil, err
		}
		rs.Add(fileRules...)
	}
	cfgRules, err := a.cfg.LoadRules()
	if err != nil {
		return nil, err
	}
	rs.Add(cfgRules...)

	if len(rs.Rules) == 0 {
		return nil, errors.Wrap(ggl.ErrBadRule, "no rules given (use --rule, --rules or the config's rules)")
	}
	return rs, nil
}

func parseGraphs(exprs []string) ([]*libggl.Graph, error) {
	graphs := make([]*libggl.Graph, len(exprs))
	for i, expr := range exprs {
		X, err := libggl.NewGraphFromString(expr)
		if err != nil {
			return nil, err
		}
		graphs[i] = X
	}
	return graphs, nil
}

func asStates(graphs []*libggl.Graph) []ggl.GraphState {
	states := make([]ggl.GraphState, len(graphs))
	for i, X := range graphs {
		states[i] = X
	}
	return states
}

// openCatalog opens the configured catalog, or returns nil if none is configured.
func (a *app) openCatalog() (ggl.Catalog, error) {
	if a.cfg.Catalog.Path == "" {
		return nil, nil
	}
	if a.catCtx == nil {
		a.catCtx = ggl.NewCatalogContext()
	}
	return catalog.OpenCatalog(a.catCtx, a.cfg.CatalogOpts())
}

// openLedger opens the configured ledger and hooks it to rs, or returns nil if none is configured.
func (a *app) openLedger(rs *libggl.RuleSet) (*ledger.Ledger, error) {
	if a.cfg.Ledger.Path == "" {
		return nil, nil
	}
	lg, err := ledger.Open(a.cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	rs.OnApplied = lg.Hook()
	return lg, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// emit prints each graph of stream, adds it to the configured catalog, and returns the number printed.
func (a *app) emit(cmd *cobra.Command, stream *ggl.GraphStream, label string) (int, error) {
	cat, err := a.openCatalog()
	if err != nil {
		return 0, err
	}
	if cat != nil && cat.IsReadOnly() {
		cat.Close()
		return 0, ggl.ErrCatalogReadOnly
	}

	stream = stream.Print(nopCloser{cmd.OutOrStdout()}, ggl.PrintOpts{
		Label: label,
		Graph: true,
	})
	if cat != nil {
		defer cat.Close()
		counted := 0
		for X := range stream.Outlet {
			counted++
			if cat.TryAddGraph(X) {
				klog.V(2).Infof("catalog: added %v", X)
			}
			X.Reclaim()
		}
		klog.Infof("catalog %s now holds %d graphs", a.cfg.Catalog.Path, cat.NumGraphs())
		return counted, nil
	}
	return stream.PullAll(), nil
}

func (a *app) matchCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "match <pattern> <target>",
		Short: "List the embeddings of a pattern graph in a target graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			graphs, err := parseGraphs(args)
			if err != nil {
				return err
			}
			P, err := libggl.NewPattern(graphs[0], *a.cfg.Wildcard)
			if err != nil {
				return err
			}
			X := graphs[1]

			out := cmd.OutOrStdout()
			count := 0
			var rep ggl.Reporter = ggl.ReporterFunc(func(_ ggl.Pattern, _ ggl.Graph, m ggl.Match) bool {
				count++
				ids := make([]string, len(m))
				for i, ti := range m {
					ids[i] = strconv.Itoa(ti + 1)
				}
				fmt.Fprintf(out, "match,%06d,%s\n", count, strings.Join(ids, " "))
				return true
			})
			rep = ggl.NewCountingReporter("match", rep)

			// max_hits bounds the printed matches, so the limit goes after the symmetry filter
			opts := a.cfg.MatchOpts()
			if opts.MaxHits > 0 {
				rep = ggl.StopAfter(opts.MaxHits, rep)
				opts.MaxHits = 0
			}
			if *a.cfg.Match.Symmetry && !all {
				rep = libggl.NewSymmetryFilter(P, rep)
			}
			libggl.NewMatcher(opts).Search(P, X, rep)
			klog.V(1).Infof("%d matches", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "report every embedding (no symmetry breaking)")
	return cmd
}

func (a *app) applyCmd() *cobra.Command {
	var keepDupes, across bool
	cmd := &cobra.Command{
		Use:   "apply <graph>...",
		Short: "Apply the rules to each graph and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := a.rules()
			if err != nil {
				return err
			}
			targets, err := parseGraphs(args)
			if err != nil {
				return err
			}
			lg, err := a.openLedger(rs)
			if err != nil {
				return err
			}
			if lg != nil {
				defer lg.Close()
			}

			var stream *ggl.GraphStream
			switch {
			case across:
				// multi-component rules place their components across the given graphs
				var results []*libggl.Graph
				targetGraphs := make([]ggl.Graph, len(targets))
				for i, X := range targets {
					targetGraphs[i] = X
				}
				for _, rule := range rs.Rules {
					libggl.ApplyToTargets(rule, targetGraphs, rs.Opts, func(Y *libggl.Graph) bool {
						results = append(results, Y)
						return true
					})
				}
				stream = ggl.StreamGraphs(asStates(results))
			case a.cfg.Apply.Parallel:
				var results []*libggl.Graph
				for _, X := range targets {
					perRule, err := rs.ApplyParallel(cmd.Context(), X)
					for _, Ys := range perRule {
						results = append(results, Ys...)
					}
					if err != nil {
						return err
					}
				}
				stream = ggl.StreamGraphs(asStates(results))
			default:
				stream = ggl.StreamGraphs(asStates(targets)).Rewrite(rs)
			}

			if !keepDupes {
				dupes := libggl.NewDropDupes()
				defer dupes.Close()
				stream = stream.AddTo(dupes)
			}
			n, err := a.emit(cmd, stream, "apply")
			klog.V(1).Infof("%d results", n)
			return err
		},
	}
	cmd.Flags().BoolVar(&keepDupes, "keep-dupes", false, "print isomorphic results more than once")
	cmd.Flags().BoolVar(&across, "across", false, "let rule components match across the given graphs")
	return cmd
}

func (a *app) expandCmd() *cobra.Command {
	var large bool
	cmd := &cobra.Command{
		Use:   "expand <seed>...",
		Short: "Print the closure of the seed graphs under the rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := a.rules()
			if err != nil {
				return err
			}
			seeds, err := parseGraphs(args)
			if err != nil {
				return err
			}
			lg, err := a.openLedger(rs)
			if err != nil {
				return err
			}
			if lg != nil {
				defer lg.Close()
			}

			var seen ggl.GraphAdder
			if large {
				set := libggl.NewGraphSet()
				defer set.Close()
				seen = set
			} else {
				set := libggl.NewDropDupes()
				defer set.Close()
				seen = set
			}

			all, expandErr := libggl.Expand(cmd.Context(), seeds, rs, a.cfg.ExpandOpts(), seen)
			if _, err := a.emit(cmd, ggl.StreamGraphs(asStates(all)), "expand"); err != nil {
				return err
			}
			return expandErr
		},
	}
	cmd.Flags().BoolVar(&large, "large", false, "track seen graphs in an in-memory db rather than the heap")
	return cmd
}

func (a *app) selectCmd() *cobra.Command {
	sel := ggl.DefaultGraphSelector
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the catalog graphs meeting the given bounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Catalog.Path == "" {
				return errors.Wrap(ggl.ErrBadCatalogParam, "select needs --catalog or catalog.path")
			}
			opts := a.cfg.CatalogOpts()
			opts.ReadOnly = true
			if a.catCtx == nil {
				a.catCtx = ggl.NewCatalogContext()
			}
			cat, err := catalog.OpenCatalog(a.catCtx, opts)
			if err != nil {
				return err
			}
			defer cat.Close()

			ggl.SelectFromCatalog(cat, sel).
				Print(nopCloser{cmd.OutOrStdout()}, ggl.PrintOpts{Label: "select", Graph: true, Info: true}).
				PullAll()
			return nil
		},
	}
	cmd.Flags().IntVar(&sel.Min.NumNodes, "min-nodes", 0, "")
	cmd.Flags().IntVar(&sel.Max.NumNodes, "max-nodes", sel.Max.NumNodes, "")
	cmd.Flags().IntVar(&sel.Min.NumEdges, "min-edges", 0, "")
	cmd.Flags().IntVar(&sel.Max.NumEdges, "max-edges", sel.Max.NumEdges, "")
	cmd.Flags().StringSliceVar(&sel.Labels, "label", nil, "node label each selected graph must carry (repeatable)")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [script.py]",
		Short: "Run a gpython script with the _ggl module (REPL if no script is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathname := ""
			if len(args) > 0 {
				pathname = args[0]
			}
			return runGpython(pathname)
		},
	}
}
