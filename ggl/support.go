package ggl

import (
	"sync"
)

func NewCatalogContext() CatalogContext {
	ctx := &catalogContext{
		openCatalogs: make(map[Catalog]struct{}),
		closing:      make(chan struct{}),
		closed:       make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.Closing()
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type catalogContext struct {
	mu           sync.Mutex
	openCount    sync.WaitGroup
	openCatalogs map[Catalog]struct{}
	closing      chan struct{}
	closed       chan struct{}
	closeOnce    sync.Once
}

func (ctx *catalogContext) AttachCatalog(cat Catalog) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.openCatalogs[cat] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) DetachCatalog(cat Catalog) {
	ctx.mu.Lock()
	if _, exists := ctx.openCatalogs[cat]; exists {
		delete(ctx.openCatalogs, cat)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) Closing() <-chan struct{} {
	return ctx.closing
}

func (ctx *catalogContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *catalogContext) Close() {
	ctx.closeOnce.Do(func() {
		close(ctx.closing)
		ctx.mu.Lock()
		for cat := range ctx.openCatalogs {
			go cat.Close()
		}
		ctx.mu.Unlock()
	})
}

// DefaultGraphSelector selects all graphs.
var DefaultGraphSelector = GraphSelector{
	Min: GraphInfo{},
	Max: GraphInfo{
		NumNodes:      1 << 30,
		NumEdges:      1 << 30,
		NumLoops:      1 << 30,
		NumComponents: 1 << 30,
	},
}

// SelectsGraph is a convenience function used to see if a Graph is selected according to a GraphSelector.
func (sel *GraphSelector) SelectsGraph(X GraphState) bool {
	info := X.GetInfo()
	if info.NumNodes < sel.Min.NumNodes || info.NumEdges < sel.Min.NumEdges || info.NumLoops < sel.Min.NumLoops || info.NumComponents < sel.Min.NumComponents {
		return false
	}
	if info.NumNodes > sel.Max.NumNodes || info.NumEdges > sel.Max.NumEdges || info.NumLoops > sel.Max.NumLoops || info.NumComponents > sel.Max.NumComponents {
		return false
	}
	for _, label := range sel.Labels {
		found := false
		for i, N := 0, X.NodeCount(); i < N && !found; i++ {
			found = X.NodeLabel(i) == label
		}
		if !found {
			return false
		}
	}
	return true
}
