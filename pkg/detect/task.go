package detect

import (
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Task reports functions whose body holds at least two independent worker
// units. It ignores the shared graph and builds a private, unnormalized
// graph from Context.Input, on which it sets each classified unit's MWType.
//
// A unit's footprint is its subtree plus the bodies of every function it
// calls, transitively, so dependencies inside callees order their callers.
// Successor edges are not read: siblings are ordered by source line.
type Task struct{}

func (Task) Pattern() Pattern { return PatternTask }

func (d Task) Detect(c *Context) ([]Result, error) {
	if c.Input == nil {
		return nil, nil
	}
	// Build warnings were already logged for the shared graph.
	g, err := pet.Build(c.Input, nil)
	if err != nil {
		return nil, &DetectionError{Pattern: d.Pattern(), Cause: err}
	}
	c.logger().Debug("task graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "build_dir", c.Task.BuildDir)

	var results []Result
	for _, fn := range g.AllNodes() {
		if !fn.IsFunction() {
			continue
		}
		var units []*pet.Node
		for _, n := range childrenByLine(g, fn.ID) {
			if !n.IsDummy() {
				units = append(units, n)
			}
		}
		if len(units) < 2 {
			continue
		}

		sets := make([]unitSet, len(units))
		for i, n := range units {
			sets[i] = footprint(g, n.ID, fn.ID)
		}

		var workers, barriers []pet.ID
		for i, n := range units {
			deps := 0
			for j := 0; j < i; j++ {
				if reaches(g, sets[i], sets[j]) {
					deps++
				}
			}
			switch {
			case deps == 0:
				n.MWType = pet.MWWorker
				workers = append(workers, n.ID)
			case deps >= 2:
				n.MWType = pet.MWBarrier
				barriers = append(barriers, n.ID)
			default:
				n.MWType = pet.MWFork
			}
		}
		if len(workers) < 2 {
			continue
		}

		results = append(results, &TaskInfo{
			Anchor:   c.anchor(fn),
			Workers:  workers,
			Barriers: barriers,
			Options:  c.Task,
		})
	}
	return results, nil
}

// footprint returns the subtree of id joined with the subtrees of the
// functions it calls, never entering the enclosing function.
func footprint(g pet.View, id, enclosing pet.ID) unitSet {
	set := subtreeSet(g, id)
	visited := map[pet.ID]bool{id: true, enclosing: true}
	queue := make([]pet.ID, 0, len(set))
	for nid := range set {
		queue = append(queue, nid)
	}
	for len(queue) > 0 {
		nid := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdges(nid, pet.EdgeCalls) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			for _, n := range g.Subtree(e.To) {
				if _, ok := set[n.ID]; !ok {
					set[n.ID] = n
					queue = append(queue, n.ID)
				}
			}
		}
	}
	return set
}

// reaches reports a RAW edge from a unit of from to a unit of to that
// from does not itself contain. Callees shared by both sides do not
// count as a dependency.
func reaches(g pet.View, from, to unitSet) bool {
	for id := range from {
		for _, e := range g.OutEdges(id, pet.EdgeData) {
			if e.Dep == nil || e.Dep.Type != pet.RAW {
				continue
			}
			if _, own := from[e.To]; own {
				continue
			}
			if _, ok := to[e.To]; ok {
				return true
			}
		}
	}
	return false
}
