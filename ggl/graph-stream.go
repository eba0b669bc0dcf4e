package ggl

import (
	"fmt"
	"io"
	"strings"
)

type GraphStream struct {
	Outlet chan GraphState
}

func NewGraphStream() *GraphStream {
	stream := &GraphStream{
		Outlet: make(chan GraphState),
	}
	return stream
}

func StreamGraph(X GraphState) *GraphStream {
	return StreamGraphs([]GraphState{X})
}

// StreamGraphs emits a copy of each given graph, in order.
func StreamGraphs(graphs []GraphState) *GraphStream {
	next := NewGraphStream()

	go func() {
		for _, X := range graphs {
			next.Outlet <- X.MakeCopy()
		}
		next.Close()
	}()

	return next
}

func (stream *GraphStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *GraphStream) PushGraph(X GraphState) {
	stream.Outlet <- X.MakeCopy()
}

func (stream *GraphStream) PullGraph() GraphState {
	X := <-stream.Outlet
	return X
}

func (stream *GraphStream) PullAll() int {
	count := int(0)
	for X := range stream.Outlet {
		count++
		X.Reclaim()
	}
	return count
}

// Collect drains this stream, returning every graph it emitted.
func (stream *GraphStream) Collect() []GraphState {
	var all []GraphState
	for X := range stream.Outlet {
		all = append(all, X)
	}
	return all
}

func (stream *GraphStream) Print(
	out io.WriteCloser,
	opts PrintOpts) *GraphStream {

	next := &GraphStream{
		Outlet: make(chan GraphState, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for X := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%06d,", count)
			X.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- X
		}
		out.Close()
		next.Close()
	}()

	return next
}

func (stream *GraphStream) AddTo(target GraphAdder) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan GraphState, 1),
	}

	go func() {
		for X := range stream.Outlet {
			wasAdded := target.TryAddGraph(X)
			if wasAdded {
				next.Outlet <- X
			} else {
				X.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

func SelectFromCatalog(cat Catalog, sel GraphSelector) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan GraphState, 1),
	}

	onHit := make(chan GraphState, 4)

	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	go func() {
		for X := range onHit {
			if sel.SelectsGraph(X) {
				next.Outlet <- X
			} else {
				X.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

func (stream *GraphStream) SelectFromStream(sel GraphSelector) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan GraphState, 1),
	}

	go func() {
		for X := range stream.Outlet {
			if sel.SelectsGraph(X) {
				next.Outlet <- X
			} else {
				X.Reclaim()
			}
		}
		next.Close()
	}()

	return next
}

// Rewrite emits every graph rw derives from each incoming graph.
// Incoming graphs are reclaimed once rewritten.
func (stream *GraphStream) Rewrite(rw Rewriter) *GraphStream {
	next := &GraphStream{
		Outlet: make(chan GraphState, 1),
	}

	go func() {
		for Xsrc := range stream.Outlet {
			rw.Rewrite(Xsrc, func(Y GraphState) bool {
				next.Outlet <- Y
				return true
			})
			Xsrc.Reclaim()
		}
		next.Close()
	}()

	return next
}
