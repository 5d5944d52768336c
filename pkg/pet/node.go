package pet

import "slices"

// Kind classifies a computational unit. The numeric values match the type
// codes emitted by the instrumentation front end.
type Kind int

const (
	// KindBasic is a plain computational unit (a region of straight-line code).
	KindBasic Kind = iota
	// KindFunction is a function body.
	KindFunction
	// KindLoop is a loop body.
	KindLoop
	// KindDummy is an instrumentation placeholder, e.g. an unresolved call target.
	KindDummy
)

var kindNames = [...]string{"cu", "func", "loop", "dummy"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool { return k >= KindBasic && k <= KindDummy }

// MWType is the fork/worker/barrier role assigned during task detection.
type MWType int

const (
	MWFork MWType = iota
	MWWorker
	MWBarrier
)

func (m MWType) String() string {
	switch m {
	case MWWorker:
		return "WORKER"
	case MWBarrier:
		return "BARRIER"
	default:
		return "FORK"
	}
}

// Variable is a named, typed program variable attached to a unit.
type Variable struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
}

// Flags are the analysis marks detectors set on nodes. They are the only
// part of the graph a detector may write.
type Flags struct {
	PipelineStage          bool
	DoAll                  bool
	GeometricDecomposition bool
	Reduction              bool
}

// FunctionData holds attributes only function units carry.
// The aggregate sets are derived by transform.ComputeFunctionMetadata.
type FunctionData struct {
	Args           []Variable
	RecursiveCalls []ID // units in the body that call this function
	Locals         []Variable
	Globals        []Variable
}

// LoopData holds attributes only loop units carry.
type LoopData struct {
	// Iterations is the profiled trip count, or -1 when unknown.
	Iterations int
	// IndexVars are the loop's induction variables.
	IndexVars []string
	// PipelineCoefficient is the share of linked stage pairs found by
	// pipeline detection; zero when the loop is not a pipeline.
	PipelineCoefficient float64
}

// UnknownIterations marks a loop without profiled trip count.
const UnknownIterations = -1

// Node is one computational unit. Exactly one of Func and Loop is non-nil
// for function and loop units respectively; both are nil otherwise.
type Node struct {
	ID               ID
	Kind             Kind
	Name             string
	SourceFile       int
	StartLine        int
	EndLine          int
	InstructionCount int

	LocalVars  []Variable
	GlobalVars []Variable

	Func *FunctionData
	Loop *LoopData

	Flags  Flags
	MWType MWType
}

// IsLoop reports whether the node is a loop unit.
func (n *Node) IsLoop() bool { return n.Kind == KindLoop }

// IsFunction reports whether the node is a function unit.
func (n *Node) IsFunction() bool { return n.Kind == KindFunction }

// IsDummy reports whether the node is an instrumentation placeholder.
func (n *Node) IsDummy() bool { return n.Kind == KindDummy }

// Start returns the first source location of the unit.
func (n *Node) Start() Location { return Location{File: n.SourceFile, Line: n.StartLine} }

// Encloses reports whether other's span lies within n's span in the same file.
func (n *Node) Encloses(other *Node) bool {
	return n.SourceFile == other.SourceFile && n.StartLine <= other.StartLine && other.EndLine <= n.EndLine
}

// HasLocal reports whether name is one of the unit's local variables.
func (n *Node) HasLocal(name string) bool {
	return slices.ContainsFunc(n.LocalVars, func(v Variable) bool { return v.Name == name })
}

func (n *Node) String() string { return n.ID.String() }
