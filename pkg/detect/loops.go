package detect

import (
	"cmp"
	"slices"

	"github.com/matzehuels/pardetect/pkg/pet"
)

type unitSet map[pet.ID]*pet.Node

func subtreeSet(g pet.View, id pet.ID) unitSet {
	set := make(unitSet)
	for _, n := range g.Subtree(id) {
		set[n.ID] = n
	}
	return set
}

// innerData returns the Data edges with both endpoints in set.
func innerData(g pet.View, set unitSet) []pet.Edge {
	var out []pet.Edge
	for id := range set {
		for _, e := range g.OutEdges(id, pet.EdgeData) {
			if _, ok := set[e.To]; ok && e.Dep != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

// loopCarried returns the dependencies of loop that cross iterations.
func loopCarried(g pet.View, loop *pet.Node) []pet.Edge {
	set := subtreeSet(g, loop.ID)
	var index []string
	if loop.Loop != nil {
		index = loop.Loop.IndexVars
	}

	var out []pet.Edge
	for _, e := range innerData(g, set) {
		if e.Dep.Type != pet.RAW {
			continue
		}
		if loop.HasLocal(e.Dep.Var) || slices.Contains(index, e.Dep.Var) {
			continue
		}
		sink, source := set[e.From], set[e.To]
		if e.Dep.InterIteration || e.From == e.To || laterThan(source, sink) {
			out = append(out, e)
		}
	}
	return out
}

func laterThan(a, b *pet.Node) bool {
	if a.SourceFile != b.SourceFile {
		return false
	}
	return a.StartLine > b.StartLine
}

// dependsOn reports whether any unit in from reads a value written by a unit
// in to.
func dependsOn(g pet.View, from, to unitSet) bool {
	for id := range from {
		for _, e := range g.OutEdges(id, pet.EdgeData) {
			if e.Dep == nil || e.Dep.Type != pet.RAW {
				continue
			}
			if _, ok := to[e.To]; ok {
				return true
			}
		}
	}
	return false
}

// childrenByLine returns the resolvable children of id ordered by start
// line, then id.
func childrenByLine(g pet.View, id pet.ID) []*pet.Node {
	children := slices.Clone(g.Children(id))
	slices.SortStableFunc(children, func(a, b *pet.Node) int {
		if c := cmp.Compare(a.SourceFile, b.SourceFile); c != 0 {
			return c
		}
		if c := cmp.Compare(a.StartLine, b.StartLine); c != 0 {
			return c
		}
		if a.ID.Less(b.ID) {
			return -1
		}
		if b.ID.Less(a.ID) {
			return 1
		}
		return 0
	})
	return slices.CompactFunc(children, func(a, b *pet.Node) bool { return a.ID == b.ID })
}

func loops(g pet.View) []*pet.Node {
	var out []*pet.Node
	for _, n := range g.AllNodes() {
		if n.IsLoop() {
			out = append(out, n)
		}
	}
	return out
}

func iterations(n *pet.Node) int {
	if n.Loop == nil {
		return pet.UnknownIterations
	}
	return n.Loop.Iterations
}
