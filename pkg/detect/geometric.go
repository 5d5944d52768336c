package detect

import "github.com/matzehuels/pardetect/pkg/pet"

// GeometricDecomposition reports loop nests in which neither the outer loop
// nor any nested loop carries a dependency across iterations. Reduction
// loops and loops with a pipeline coefficient are skipped.
type GeometricDecomposition struct{}

func (GeometricDecomposition) Pattern() Pattern { return PatternGeometric }

func (GeometricDecomposition) Detect(c *Context) ([]Result, error) {
	var results []Result
	for _, loop := range loops(c.Graph) {
		if loop.Flags.Reduction || (loop.Loop != nil && loop.Loop.PipelineCoefficient > 0) {
			continue
		}

		var nested []*pet.Node
		for _, n := range c.Graph.Subtree(loop.ID) {
			if n.ID != loop.ID && n.IsLoop() {
				nested = append(nested, n)
			}
		}
		if len(nested) == 0 || !independent(c.Graph, loop, nested) {
			continue
		}

		partitions := make([]pet.ID, len(nested))
		tasks := iterations(loop)
		for i, n := range nested {
			partitions[i] = n.ID
			if it := iterations(n); it >= 0 && (tasks < 0 || it < tasks) {
				tasks = it
			}
		}
		if tasks < 0 {
			tasks = 0
		}

		loop.Flags.GeometricDecomposition = true
		results = append(results, &GDInfo{
			Anchor:     c.anchor(loop),
			Partitions: partitions,
			Dimension:  nestingDepth(c.Graph, loop, map[pet.ID]bool{}),
			NumTasks:   tasks,
		})
	}
	return results, nil
}

func independent(g pet.View, loop *pet.Node, nested []*pet.Node) bool {
	if len(loopCarried(g, loop)) > 0 {
		return false
	}
	for _, n := range nested {
		if len(loopCarried(g, n)) > 0 {
			return false
		}
	}
	return true
}

// nestingDepth counts loops on the deepest Child path starting at n.
func nestingDepth(g pet.View, n *pet.Node, seen map[pet.ID]bool) int {
	seen[n.ID] = true
	deepest := 0
	for _, c := range g.Children(n.ID) {
		if seen[c.ID] {
			continue
		}
		deepest = max(deepest, nestingDepth(g, c, seen))
	}
	if n.IsLoop() {
		return deepest + 1
	}
	return deepest
}
