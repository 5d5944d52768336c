package detect

import (
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Reduction reports loops whose hinted reduction variables appear on data
// dependencies inside the loop body. It flags each reported loop Reduction.
type Reduction struct{}

func (Reduction) Pattern() Pattern { return PatternReduction }

func (d Reduction) Detect(c *Context) ([]Result, error) {
	hints := make(map[pet.Location][]pet.ReductionHint)
	for _, h := range c.Graph.ReductionHints() {
		loc, err := pet.ParseLocation("loop_line", h.LoopLine)
		if err != nil {
			return nil, &DetectionError{Pattern: d.Pattern(), Cause: err}
		}
		hints[loc] = append(hints[loc], h)
	}
	if len(hints) == 0 {
		return nil, nil
	}

	var results []Result
	for _, loop := range loops(c.Graph) {
		candidates := hints[loop.Start()]
		if len(candidates) == 0 {
			continue
		}
		used := make(map[string]bool)
		for _, e := range innerData(c.Graph, subtreeSet(c.Graph, loop.ID)) {
			used[e.Dep.Var] = true
		}

		var vars []ReductionVar
		seen := make(map[string]bool)
		for _, h := range candidates {
			if !used[h.Name] || seen[h.Name] {
				continue
			}
			seen[h.Name] = true
			vars = append(vars, ReductionVar{Name: h.Name, Operation: h.Operation})
		}
		if len(vars) == 0 {
			c.logger().Debug("reduction hint not confirmed", "loop", loop.ID)
			continue
		}

		loop.Flags.Reduction = true
		results = append(results, &ReductionInfo{Anchor: c.anchor(loop), Vars: vars})
	}
	return results, nil
}
