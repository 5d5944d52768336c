package detect

import (
	"fmt"
	"strings"

	"github.com/matzehuels/pardetect/pkg/pet"
)

// Result is one detected pattern occurrence. Results are immutable once
// returned by a detector.
type Result interface {
	// ID is the session-unique result number.
	ID() int
	Pattern() Pattern
	// Nodes lists the units forming the pattern, the anchor unit first.
	Nodes() []pet.ID
	// Describe renders the result with details looked up in g.
	Describe(g pet.View) string
}

// Anchor holds what every result records about the unit it is reported on.
type Anchor struct {
	ResultID int          `json:"id"`
	Node     pet.ID       `json:"node_id"`
	Start    pet.Location `json:"start_line"`
	EndLine  int          `json:"end_line"`
}

func (c *Context) anchor(n *pet.Node) Anchor {
	return Anchor{ResultID: c.nextID(), Node: n.ID, Start: n.Start(), EndLine: n.EndLine}
}

// ID returns the session-unique result number.
func (a Anchor) ID() int { return a.ResultID }

// End returns the last source location of the anchor unit.
func (a Anchor) End() pet.Location { return pet.Location{File: a.Start.File, Line: a.EndLine} }

func (a Anchor) header(title string) string {
	return fmt.Sprintf("%s at: %s\nStart line: %s\nEnd line: %s", title, a.Node, a.Start, a.End())
}

// ReductionVar is a confirmed reduction variable.
type ReductionVar struct {
	Name      string `json:"name"`
	Operation string `json:"operation"`
}

// ReductionInfo is a loop that accumulates into one or more variables.
type ReductionInfo struct {
	Anchor
	Vars []ReductionVar `json:"vars"`
}

func (*ReductionInfo) Pattern() Pattern { return PatternReduction }

func (r *ReductionInfo) Nodes() []pet.ID { return []pet.ID{r.Node} }

// Pragma returns the OpenMP annotation for the loop.
func (r *ReductionInfo) Pragma() string {
	var clauses []string
	for _, v := range r.Vars {
		op := v.Operation
		if op == "" {
			op = "+"
		}
		clauses = append(clauses, fmt.Sprintf("reduction(%s:%s)", op, v.Name))
	}
	return "#pragma omp parallel for " + strings.Join(clauses, " ")
}

func (r *ReductionInfo) String() string {
	return fmt.Sprintf("%s\npragma: %s", r.header("Reduction"), r.Pragma())
}

func (r *ReductionInfo) Describe(pet.View) string { return r.String() }

// DoAllInfo is a loop whose iterations are independent.
type DoAllInfo struct {
	Anchor
	Iterations int      `json:"iterations"`
	Private    []string `json:"private,omitempty"`
}

func (*DoAllInfo) Pattern() Pattern { return PatternDoAll }

func (r *DoAllInfo) Nodes() []pet.ID { return []pet.ID{r.Node} }

// Pragma returns the OpenMP annotation for the loop.
func (r *DoAllInfo) Pragma() string {
	if len(r.Private) == 0 {
		return "#pragma omp parallel for"
	}
	return fmt.Sprintf("#pragma omp parallel for private(%s)", strings.Join(r.Private, ","))
}

func (r *DoAllInfo) String() string {
	iter := "unknown"
	if r.Iterations != pet.UnknownIterations {
		iter = fmt.Sprint(r.Iterations)
	}
	return fmt.Sprintf("%s\niterations: %s\npragma: %s", r.header("Do-all"), iter, r.Pragma())
}

func (r *DoAllInfo) Describe(pet.View) string { return r.String() }

// PipelineInfo is a loop whose body splits into producer-consumer stages.
type PipelineInfo struct {
	Anchor
	Stages      []pet.ID `json:"stages"`
	Coefficient float64  `json:"coefficient"`
}

func (*PipelineInfo) Pattern() Pattern { return PatternPipeline }

func (r *PipelineInfo) Nodes() []pet.ID { return append([]pet.ID{r.Node}, r.Stages...) }

func (r *PipelineInfo) Describe(g pet.View) string {
	var b strings.Builder
	b.WriteString(r.header("Pipeline"))
	fmt.Fprintf(&b, "\ncoefficient: %.2f\nstages:", r.Coefficient)
	for i, id := range r.Stages {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, describeUnit(g, id))
	}
	return b.String()
}

// GDInfo is a loop nest whose index domain can be partitioned.
type GDInfo struct {
	Anchor
	Partitions []pet.ID `json:"partitions"`
	Dimension  int      `json:"dimension"`
	NumTasks   int      `json:"num_tasks"`
}

func (*GDInfo) Pattern() Pattern { return PatternGeometric }

func (r *GDInfo) Nodes() []pet.ID { return append([]pet.ID{r.Node}, r.Partitions...) }

func (r *GDInfo) Describe(g pet.View) string {
	var b strings.Builder
	b.WriteString(r.header("Geometric decomposition"))
	fmt.Fprintf(&b, "\ndimension: %d\ntasks: %d\nnested loops:", r.Dimension, r.NumTasks)
	for _, id := range r.Partitions {
		fmt.Fprintf(&b, "\n  - %s", describeUnit(g, id))
	}
	return b.String()
}

// TaskInfo is a function whose body contains independent worker units.
type TaskInfo struct {
	Anchor
	Workers  []pet.ID    `json:"workers"`
	Barriers []pet.ID    `json:"barriers,omitempty"`
	Options  TaskOptions `json:"options"`
}

func (*TaskInfo) Pattern() Pattern { return PatternTask }

func (r *TaskInfo) Nodes() []pet.ID {
	out := append([]pet.ID{r.Node}, r.Workers...)
	return append(out, r.Barriers...)
}

// Describe renders the result. Workers and barriers belong to the task
// detector's private graph, so they are listed by id only.
func (r *TaskInfo) Describe(g pet.View) string {
	var b strings.Builder
	b.WriteString(r.header("Task parallelism"))
	if n, err := g.NodeAt(r.Node); err == nil && n.Name != "" {
		fmt.Fprintf(&b, "\nfunction: %s", n.Name)
	}
	fmt.Fprintf(&b, "\nworkers: %s", joinIDs(r.Workers))
	if len(r.Barriers) > 0 {
		fmt.Fprintf(&b, "\nbarriers: %s", joinIDs(r.Barriers))
	}
	return b.String()
}

func describeUnit(g pet.View, id pet.ID) string {
	n, err := g.NodeAt(id)
	if err != nil {
		return id.String() + " (unresolved)"
	}
	return fmt.Sprintf("%s %s lines %d-%d", n.ID, n.Kind, n.StartLine, n.EndLine)
}

func joinIDs(ids []pet.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
