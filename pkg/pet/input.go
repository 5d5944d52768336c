package pet

// Input bundles everything the instrumentation front end produces for one
// program. Field tags follow the front end's attribute names so bundles can
// be written by hand or converted from its native files.
type Input struct {
	Units         map[string]Unit     `json:"units" yaml:"units" toml:"units"`
	Dependencies  []DependencyFact    `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	Loops         map[string]LoopInfo `json:"loops,omitempty" yaml:"loops,omitempty" toml:"loops,omitempty"`
	ReductionVars []ReductionHint     `json:"reduction_vars,omitempty" yaml:"reduction_vars,omitempty" toml:"reduction_vars,omitempty"`
}

// Unit describes one computational unit, keyed by its id in Input.Units.
type Unit struct {
	Type              int        `json:"type" yaml:"type" toml:"type"`
	Name              string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	StartsAtLine      string     `json:"startsAtLine" yaml:"startsAtLine" toml:"startsAtLine"`
	EndsAtLine        string     `json:"endsAtLine" yaml:"endsAtLine" toml:"endsAtLine"`
	InstructionsCount int        `json:"instructionsCount,omitempty" yaml:"instructionsCount,omitempty" toml:"instructionsCount,omitempty"`
	ChildrenNodes     []string   `json:"childrenNodes,omitempty" yaml:"childrenNodes,omitempty" toml:"childrenNodes,omitempty"`
	Successors        []string   `json:"successors,omitempty" yaml:"successors,omitempty" toml:"successors,omitempty"`
	CallsNode         []string   `json:"callsNode,omitempty" yaml:"callsNode,omitempty" toml:"callsNode,omitempty"`
	LocalVariables    []Variable `json:"localVariables,omitempty" yaml:"localVariables,omitempty" toml:"localVariables,omitempty"`
	GlobalVariables   []Variable `json:"globalVariables,omitempty" yaml:"globalVariables,omitempty" toml:"globalVariables,omitempty"`
	FuncArguments     []Variable `json:"funcArguments,omitempty" yaml:"funcArguments,omitempty" toml:"funcArguments,omitempty"`
}

// DependencyFact is one profiled data dependency between two units.
type DependencyFact struct {
	Sink           string  `json:"sink" yaml:"sink" toml:"sink"`
	Source         string  `json:"source" yaml:"source" toml:"source"`
	Type           DepType `json:"type" yaml:"type" toml:"type"`
	Var            string  `json:"var" yaml:"var" toml:"var"`
	InterIteration bool    `json:"inter_iteration,omitempty" yaml:"inter_iteration,omitempty" toml:"inter_iteration,omitempty"`
}

// LoopInfo is profiled loop metadata keyed by loop unit id.
// A nil Iterations means the trip count was not recorded.
type LoopInfo struct {
	Iterations *int     `json:"iterations,omitempty" yaml:"iterations,omitempty" toml:"iterations,omitempty"`
	IndexVars  []string `json:"index_vars,omitempty" yaml:"index_vars,omitempty" toml:"index_vars,omitempty"`
}

// ReductionHint names a variable known to be reduced in the loop starting
// at LoopLine ("<file>:<line>").
type ReductionHint struct {
	LoopLine      string `json:"loop_line" yaml:"loop_line" toml:"loop_line"`
	Name          string `json:"name" yaml:"name" toml:"name"`
	Operation     string `json:"operation,omitempty" yaml:"operation,omitempty" toml:"operation,omitempty"`
	ReductionLine string `json:"reduction_line,omitempty" yaml:"reduction_line,omitempty" toml:"reduction_line,omitempty"`
}
