package libggl

import (
	"github.com/emirpasic/gods/queues/arrayqueue"
	"github.com/fine-structures/graph-grammar/ggl"
)

// bfsOrder visits every node reachable from the given roots (in root order) breadth first.
// visit is called once per node with the node index and the already-visited node it was reached from (-1 for roots).
func bfsOrder(X ggl.Graph, roots []int, seen []bool, visit func(node, parent int)) {
	queue := arrayqueue.New()
	var edges []ggl.Edge

	for _, root := range roots {
		if seen[root] {
			continue
		}
		seen[root] = true
		visit(root, -1)
		queue.Enqueue(root)

		for !queue.Empty() {
			val, _ := queue.Dequeue()
			node := val.(int)
			edges = X.AppendOutEdges(node, edges[:0])
			for _, e := range edges {
				if !seen[e.To] {
					seen[e.To] = true
					visit(e.To, node)
					queue.Enqueue(e.To)
				}
			}
		}
	}
}

// Components returns the connected components of X, each as an ascending list of node indices.
// Components are ordered by their lowest node index.
func Components(X ggl.Graph) [][]int {
	N := X.NodeCount()
	seen := make([]bool, N)
	compOf := make([]int, N)
	numComps := 0

	for i := 0; i < N; i++ {
		if seen[i] {
			continue
		}
		comp := numComps
		numComps++
		bfsOrder(X, []int{i}, seen, func(node, _ int) {
			compOf[node] = comp
		})
	}

	comps := make([][]int, numComps)
	for i, ci := range compOf {
		comps[ci] = append(comps[ci], i)
	}
	return comps
}

// ComponentLabels returns the component index of each node of X (components numbered as in Components).
func ComponentLabels(X ggl.Graph) (compOf []int, numComps int) {
	comps := Components(X)
	compOf = make([]int, X.NodeCount())
	for ci, comp := range comps {
		for _, i := range comp {
			compOf[i] = ci
		}
	}
	return compOf, len(comps)
}
