package main

import (
	"fmt"
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"

	_ "github.com/fine-structures/graph-grammar/pyggl"
	_ "github.com/go-python/gpython/stdlib"
)

const replStartup = `
import _ggl
from _ggl import Graph, Rule, Match, Apply, Expand
print("_ggl", _ggl.LIB_VERSION)
`

// runGpython runs the given script, or a REPL with the _ggl module imported if pathname is empty.
func runGpython(pathname string) error {
	ctx := py.NewContext(py.DefaultContextOpts())

	var err error
	if len(pathname) == 0 {
		replCtx := repl.New(ctx)

		_, err = py.RunSrc(ctx, replStartup, "<startup>", replCtx.Module)
		if err == nil {
			cli.RunREPL(replCtx)
		}

	} else {
		startTime := time.Now()
		fmt.Printf("<<<>>>   executing '%s'   <<<>>>\n", pathname)

		_, err = py.RunFile(ctx, pathname, py.CompileOpts{}, nil)

		if err == nil {
			elapsed := time.Since(startTime)
			fmt.Printf("<<<>>>   execution complete: %v   <<<>>>\n", elapsed)
		}
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
	}
	return err
}
