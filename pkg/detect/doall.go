package detect

import (
	"fmt"
	"slices"

	"github.com/matzehuels/pardetect/pkg/pet"
)

// DoAll reports loops without loop-carried dependencies. Loops already
// flagged Reduction and loops known to run at most once are skipped.
type DoAll struct{}

func (DoAll) Pattern() Pattern { return PatternDoAll }

func (d DoAll) Detect(c *Context) ([]Result, error) {
	var results []Result
	for _, loop := range loops(c.Graph) {
		iter := iterations(loop)
		if iter < pet.UnknownIterations {
			return nil, &DetectionError{
				Pattern: d.Pattern(),
				NodeID:  loop.ID.String(),
				Cause:   fmt.Errorf("negative iteration count %d", iter),
			}
		}
		if loop.Flags.Reduction || iter == 0 || iter == 1 {
			continue
		}
		if carried := loopCarried(c.Graph, loop); len(carried) > 0 {
			c.logger().Debug("loop-carried dependency", "loop", loop.ID, "var", carried[0].Dep.Var)
			continue
		}

		loop.Flags.DoAll = true
		results = append(results, &DoAllInfo{
			Anchor:     c.anchor(loop),
			Iterations: iter,
			Private:    privateVars(loop),
		})
	}
	return results, nil
}

func privateVars(loop *pet.Node) []string {
	var names []string
	if loop.Loop != nil {
		names = append(names, loop.Loop.IndexVars...)
	}
	for _, v := range loop.LocalVars {
		names = append(names, v.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
