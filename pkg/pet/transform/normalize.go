package transform

import "github.com/matzehuels/pardetect/pkg/pet"

// NormalizeOptions selects which units Normalize inspects and removes.
type NormalizeOptions struct {
	// RestrictToLoops limits the walk to edges leaving Loop units.
	RestrictToLoops bool
	// RemoveDummies enables dummy elision. Without it Normalize is a no-op.
	RemoveDummies bool
}

// DefaultNormalizeOptions matches the orchestrator's normalization pass.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{RemoveDummies: true}
}

// Normalize removes Dummy units that are targets of Child or Calls edges and
// returns their ids in discovery order. Non-dummy units are never removed,
// and an edge is only dropped when one of its endpoints is.
func Normalize(g *pet.Graph, opts NormalizeOptions) []pet.ID {
	if !opts.RemoveDummies {
		return nil
	}

	marked := make(map[pet.ID]bool)
	var order []pet.ID
	for _, n := range g.AllNodes() {
		if opts.RestrictToLoops && !n.IsLoop() {
			continue
		}
		if n.IsDummy() {
			continue
		}
		for _, e := range g.OutEdges(n.ID, pet.EdgeChild, pet.EdgeCalls) {
			t, err := g.NodeAt(e.To)
			if err != nil || !t.IsDummy() || marked[t.ID] {
				continue
			}
			marked[t.ID] = true
			order = append(order, t.ID)
		}
	}

	g.RemoveNodes(order)
	return order
}
