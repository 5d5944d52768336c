package pet

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// Build constructs a graph from unit descriptions and the facts attached to
// them.
//
// Construction runs in passes: nodes first (one per unit, in id order), then
// Child, Successor and Calls edges per unit, then Data edges from dependency
// facts, then loop metadata. References to ids without a node still produce
// an edge; each one is logged at warn level and recorded in
// [Graph.Warnings]. Build fails with a *MalformedIDError when any id or
// location cannot be parsed and with an *InvalidUnitError for an unknown
// kind code or an inverted span.
func Build(in *Input, logger *log.Logger) (*Graph, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	g := New()
	if in == nil {
		return g, nil
	}
	g.hints = slices.Clone(in.ReductionVars)

	ids, err := sortedUnitIDs(in.Units)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		n, err := parseUnit(id, in.Units[id.String()])
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("unit %s: %w", id, err)
		}
	}
	logger.Debug("created nodes", "count", g.NodeCount())

	for _, id := range ids {
		u := in.Units[id.String()]
		if err := g.link(logger, id, "childrenNodes", u.ChildrenNodes, EdgeChild); err != nil {
			return nil, err
		}
		if err := g.link(logger, id, "successors", u.Successors, EdgeSuccessor); err != nil {
			return nil, err
		}
		if err := g.link(logger, id, "callsNode", u.CallsNode, EdgeCalls); err != nil {
			return nil, err
		}
	}

	for _, d := range in.Dependencies {
		if err := g.addDependency(logger, d); err != nil {
			return nil, err
		}
	}

	if err := g.attachLoopData(logger, in.Loops); err != nil {
		return nil, err
	}

	logger.Debug("built graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "warnings", len(g.warnings))
	return g, nil
}

func sortedUnitIDs(units map[string]Unit) ([]ID, error) {
	ids := make([]ID, 0, len(units))
	for key := range units {
		id, err := ParseID(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ID) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})
	return ids, nil
}

func parseUnit(id ID, u Unit) (*Node, error) {
	kind := Kind(u.Type)
	if !kind.Valid() {
		return nil, &InvalidUnitError{ID: id.String(), Field: "type", Reason: fmt.Sprintf("unknown kind code %d", u.Type)}
	}
	start, err := ParseLocation("startsAtLine", u.StartsAtLine)
	if err != nil {
		return nil, err
	}
	end, err := ParseLocation("endsAtLine", u.EndsAtLine)
	if err != nil {
		return nil, err
	}
	if start.File == end.File && start.Line > end.Line {
		return nil, &InvalidUnitError{ID: id.String(), Field: "endsAtLine", Reason: fmt.Sprintf("span %s..%s is inverted", start, end)}
	}

	n := &Node{
		ID:               id,
		Kind:             kind,
		Name:             u.Name,
		SourceFile:       start.File,
		StartLine:        start.Line,
		EndLine:          end.Line,
		InstructionCount: u.InstructionsCount,
		LocalVars:        slices.Clone(u.LocalVariables),
		GlobalVars:       slices.Clone(u.GlobalVariables),
	}
	switch kind {
	case KindFunction:
		n.Func = &FunctionData{Args: slices.Clone(u.FuncArguments)}
	case KindLoop:
		n.Loop = &LoopData{Iterations: UnknownIterations}
	}
	return n, nil
}

func (g *Graph) link(logger *log.Logger, from ID, field string, refs []string, t EdgeType) error {
	src := g.nodes[from]
	for _, ref := range refs {
		to, err := ParseID(ref)
		if err != nil {
			return &MalformedIDError{Field: field, Value: ref}
		}
		target, ok := g.nodes[to]
		switch {
		case !ok:
			g.danglingRef(logger, fmt.Sprintf("no %s node %s found", t, to), from, to)
		case t == EdgeChild && src.SourceFile == target.SourceFile && !src.Encloses(target):
			msg := fmt.Sprintf("child %s lies outside the span of %s", to, from)
			logger.Warn(msg, "parent", from, "child", to)
			g.warn(Warning{Message: msg, Source: from, Target: to})
		}
		g.AddEdge(Edge{From: from, To: to, Type: t})
	}
	return nil
}

func (g *Graph) danglingRef(logger *log.Logger, msg string, from, to ID) {
	logger.Warn(msg, "source", from, "target", to)
	g.warn(Warning{Message: msg, Source: from, Target: to})
}

func (g *Graph) addDependency(logger *log.Logger, d DependencyFact) error {
	sink, err := ParseID(d.Sink)
	if err != nil {
		return &MalformedIDError{Field: "dependency sink", Value: d.Sink}
	}
	source, err := ParseID(d.Source)
	if err != nil {
		return &MalformedIDError{Field: "dependency source", Value: d.Source}
	}
	for _, id := range []ID{sink, source} {
		if !g.HasNode(id) {
			g.danglingRef(logger, fmt.Sprintf("no dependency endpoint %s found for %s", id, d.Var), sink, source)
		}
	}
	depType := d.Type
	if depType == "" {
		depType = RAW
	}
	g.AddEdge(Edge{
		From: sink,
		To:   source,
		Type: EdgeData,
		Dep:  &Dependency{Type: depType, Var: d.Var, InterIteration: d.InterIteration},
	})
	return nil
}

func (g *Graph) attachLoopData(logger *log.Logger, loops map[string]LoopInfo) error {
	for key, info := range loops {
		id, err := ParseID(key)
		if err != nil {
			return &MalformedIDError{Field: "loop id", Value: key}
		}
		n, ok := g.nodes[id]
		if !ok || n.Loop == nil {
			msg := fmt.Sprintf("loop data for %s does not match a loop unit", id)
			logger.Warn(msg)
			g.warn(Warning{Message: msg, Source: id, Target: id})
			continue
		}
		if info.Iterations != nil {
			n.Loop.Iterations = *info.Iterations
		}
		n.Loop.IndexVars = slices.Clone(info.IndexVars)
	}
	return nil
}
