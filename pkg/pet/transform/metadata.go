package transform

import (
	"slices"
	"strings"

	"github.com/matzehuels/pardetect/pkg/pet"
)

// ComputeFunctionMetadata fills FunctionData.Locals, Globals and
// RecursiveCalls for every Function unit.
//
// The body of a function is its Child subtree, stopping at nested Function
// units. Locals and Globals are the union of the body units' variables,
// deduplicated by name and sorted. RecursiveCalls lists body units with a
// Calls edge back to the function, in id order.
func ComputeFunctionMetadata(g *pet.Graph) {
	for _, fn := range g.AllNodes() {
		if fn.Func == nil {
			continue
		}
		body := functionBody(g, fn)

		var locals, globals []pet.Variable
		var recursive []pet.ID
		for _, n := range body {
			locals = append(locals, n.LocalVars...)
			globals = append(globals, n.GlobalVars...)
			if n.ID == fn.ID {
				continue
			}
			for _, e := range g.OutEdges(n.ID, pet.EdgeCalls) {
				if e.To == fn.ID {
					recursive = append(recursive, n.ID)
					break
				}
			}
		}

		slices.SortFunc(recursive, func(a, b pet.ID) int {
			if a.Less(b) {
				return -1
			}
			if b.Less(a) {
				return 1
			}
			return 0
		})
		fn.Func.Locals = uniqueVars(locals)
		fn.Func.Globals = uniqueVars(globals)
		fn.Func.RecursiveCalls = recursive
	}
}

func functionBody(g *pet.Graph, fn *pet.Node) []*pet.Node {
	seen := map[pet.ID]bool{fn.ID: true}
	body := []*pet.Node{fn}
	for i := 0; i < len(body); i++ {
		for _, c := range g.Children(body[i].ID) {
			if seen[c.ID] || c.IsFunction() {
				continue
			}
			seen[c.ID] = true
			body = append(body, c)
		}
	}
	return body
}

func uniqueVars(vars []pet.Variable) []pet.Variable {
	if len(vars) == 0 {
		return nil
	}
	out := slices.Clone(vars)
	slices.SortStableFunc(out, func(a, b pet.Variable) int { return strings.Compare(a.Name, b.Name) })
	return slices.CompactFunc(out, func(a, b pet.Variable) bool { return a.Name == b.Name })
}
