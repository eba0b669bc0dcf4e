package libggl

import (
	"github.com/fine-structures/graph-grammar/ggl"
)

// DropDupes is an in-memory ggl.GraphAdder that admits one graph per isomorphism class.
// Graphs are bucketed by Signature and compared exactly within a bucket.
type DropDupes struct {
	buckets map[GraphSig][]*Graph
	count   int
}

func NewDropDupes() *DropDupes {
	return &DropDupes{
		buckets: make(map[GraphSig][]*Graph),
	}
}

// NumGraphs returns the number of graphs admitted so far.
func (dd *DropDupes) NumGraphs() int {
	return dd.count
}

func (dd *DropDupes) Reset() {
	for sig, bucket := range dd.buckets {
		for _, X := range bucket {
			X.Reclaim()
		}
		delete(dd.buckets, sig)
	}
	dd.count = 0
}

func (dd *DropDupes) Close() {
	dd.Reset()
	dd.buckets = nil
}

// TryAddGraph adds a copy of X if no isomorphic graph has been added, returning true if X was added.
func (dd *DropDupes) TryAddGraph(X ggl.GraphState) bool {
	sig := Signature(X)
	bucket := dd.buckets[sig]
	for _, existing := range bucket {
		if IsIsomorphic(existing, X) {
			return false
		}
	}

	dd.buckets[sig] = append(bucket, NewGraphFromView(X))
	dd.count++
	return true
}
