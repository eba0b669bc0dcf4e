package libggl

import (
	"github.com/fine-structures/graph-grammar/ggl"
)

func labelIn(label string, set []string, wild string, hasWild bool) bool {
	for _, s := range set {
		if s == label || (hasWild && s == wild) {
			return true
		}
	}
	return false
}

// evalConstraint reports whether c holds for the target X, where image maps each pattern node of c to its target node.
func evalConstraint(c *ggl.Constraint, image func(p int) int, X *adjacency, wild string, hasWild bool) bool {
	t := image(c.Node)

	switch c.Kind {
	case ggl.NodeLabelConstraint:
		in := labelIn(X.labels[t], c.Labels, wild, hasWild)
		return in != c.Negate

	case ggl.EdgeLabelConstraint:
		between := X.pairs[t][image(c.Other)]
		if len(between) == 0 {
			return false
		}
		for _, label := range between {
			if labelIn(label, c.Labels, wild, hasWild) == c.Negate {
				return false
			}
		}
		return true

	case ggl.NoEdgeConstraint:
		between := X.pairs[t][image(c.Other)]
		if len(c.Labels) == 0 {
			return len(between) == 0
		}
		for _, label := range between {
			if labelIn(label, c.Labels, wild, hasWild) {
				return false
			}
		}
		return true

	case ggl.AdjacencyConstraint:
		count := 0
		for u, labels := range X.pairs[t] {
			if len(c.NodeLabels) > 0 && !labelIn(X.labels[u], c.NodeLabels, wild, hasWild) {
				continue
			}
			for _, label := range labels {
				if len(c.Labels) == 0 || labelIn(label, c.Labels, wild, hasWild) {
					count++
				}
			}
		}
		return c.Op.Compare(count, c.Count)
	}

	return false
}
