package detect

import "github.com/matzehuels/pardetect/pkg/pet"

// Pipeline reports loops whose direct children form a producer-consumer
// chain: each stage reads what the previous stage wrote.
type Pipeline struct {
	// AllowDoAll also considers loops already flagged DoAll.
	AllowDoAll bool
}

func (Pipeline) Pattern() Pattern { return PatternPipeline }

func (d Pipeline) Detect(c *Context) ([]Result, error) {
	var results []Result
	for _, loop := range loops(c.Graph) {
		if loop.Flags.DoAll && !d.AllowDoAll {
			continue
		}
		children := childrenByLine(c.Graph, loop.ID)
		if len(children) < 2 {
			continue
		}

		sets := make([]unitSet, len(children))
		for i, n := range children {
			sets[i] = subtreeSet(c.Graph, n.ID)
		}

		links := 0
		bestStart, bestLen := 0, 0
		runStart, runLen := 0, 0
		for i := 1; i < len(children); i++ {
			if !dependsOn(c.Graph, sets[i], sets[i-1]) {
				runLen = 0
				continue
			}
			links++
			if runLen == 0 {
				runStart = i - 1
			}
			runLen++
			if runLen > bestLen {
				bestStart, bestLen = runStart, runLen
			}
		}
		if bestLen == 0 {
			continue
		}

		stages := make([]pet.ID, 0, bestLen+1)
		for _, n := range children[bestStart : bestStart+bestLen+1] {
			n.Flags.PipelineStage = true
			stages = append(stages, n.ID)
		}
		coef := float64(links) / float64(len(children)-1)
		if loop.Loop != nil {
			loop.Loop.PipelineCoefficient = coef
		}
		results = append(results, &PipelineInfo{
			Anchor:      c.anchor(loop),
			Stages:      stages,
			Coefficient: coef,
		})
	}
	return results, nil
}
