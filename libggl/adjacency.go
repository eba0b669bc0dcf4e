package libggl

import (
	"fmt"
	"slices"
	"sort"

	"github.com/fine-structures/graph-grammar/ggl"
)

// adjacency is a search-friendly snapshot of a ggl.Graph.
type adjacency struct {
	labels   []string
	nbrs     [][]int            // distinct neighbours of each node (self excluded), ascending
	pairs    []map[int][]string // pairs[i][j]: sorted labels of the edges between i and j (j == i for loops)
	degree   []int              // incident edge count (a loop counts once)
	numEdges int
}

func newAdjacency(X ggl.Graph) *adjacency {
	N := X.NodeCount()
	adj := &adjacency{
		labels: make([]string, N),
		nbrs:   make([][]int, N),
		pairs:  make([]map[int][]string, N),
		degree: make([]int, N),
	}

	var edges []ggl.Edge
	for i := 0; i < N; i++ {
		adj.labels[i] = X.NodeLabel(i)
		pairs := make(map[int][]string)
		edges = X.AppendOutEdges(i, edges[:0])
		for _, e := range edges {
			if e.From != i {
				panic("graph view yielded an edge not leaving its node")
			}
			if _, exists := pairs[e.To]; !exists && e.To != i {
				adj.nbrs[i] = append(adj.nbrs[i], e.To)
			}
			pairs[e.To] = append(pairs[e.To], e.Label)
			if e.To >= i {
				adj.numEdges++
			}
		}
		for _, labels := range pairs {
			sort.Strings(labels)
		}
		sort.Ints(adj.nbrs[i])
		adj.pairs[i] = pairs
		adj.degree[i] = len(edges)
	}

	// each non-loop edge must be enumerated from both of its nodes
	for i, pairs := range adj.pairs {
		for j, labels := range pairs {
			if j != i && !slices.Equal(labels, adj.pairs[j][i]) {
				panic(fmt.Sprintf("graph view is not undirected: edges %d->%d %q but %d->%d %q", i, j, labels, j, i, adj.pairs[j][i]))
			}
		}
	}
	return adj
}

func (adj *adjacency) nodeCount() int {
	return len(adj.labels)
}

// labelsContained returns true if every pattern edge label in P can be assigned a distinct counterpart in T.
// A concrete pattern label needs an equal target label (or a target wildcard); a pattern wildcard consumes any one label.
// P and T must be sorted.
func labelsContained(P, T []string, wild string, hasWild bool) bool {
	if len(P) > len(T) {
		return false
	}
	if len(P) == 0 {
		return true
	}

	var usedBuf [16]bool
	used := usedBuf[:0]
	if len(T) > len(usedBuf) {
		used = make([]bool, len(T))
	} else {
		used = usedBuf[:len(T)]
	}

	wildcards := 0
	unmatched := 0
	ti := 0
	for _, pl := range P {
		if hasWild && pl == wild {
			wildcards++
			continue
		}
		for ti < len(T) && T[ti] < pl {
			ti++
		}
		if ti < len(T) && T[ti] == pl {
			used[ti] = true
			ti++
		} else {
			unmatched++
		}
	}

	free := 0
	freeWild := 0
	for i, tl := range T {
		if !used[i] {
			free++
			if hasWild && tl == wild {
				freeWild++
			}
		}
	}

	// concrete pattern labels without an exact counterpart can only land on target wildcard edges
	if unmatched > freeWild {
		return false
	}
	return free-unmatched >= wildcards
}
