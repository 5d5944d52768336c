package pet

import (
	"slices"
)

// EdgeType classifies a relation between two units.
type EdgeType int

const (
	// EdgeChild is structural containment (parent span encloses child).
	EdgeChild EdgeType = iota
	// EdgeSuccessor is control-flow order.
	EdgeSuccessor
	// EdgeData is a data dependency; the edge runs from the reading unit
	// (sink) to the writing unit (source).
	EdgeData
	// EdgeCalls links a call site to the called function.
	EdgeCalls
)

var edgeTypeNames = [...]string{"child", "successor", "data", "calls"}

func (t EdgeType) String() string {
	if t < 0 || int(t) >= len(edgeTypeNames) {
		return "unknown"
	}
	return edgeTypeNames[t]
}

// DepType is the access direction of a data dependency.
type DepType string

const (
	RAW  DepType = "RAW"  // read after write
	WAR  DepType = "WAR"  // write after read
	WAW  DepType = "WAW"  // write after write
	INIT DepType = "INIT" // first write, no earlier access
)

// Dependency is the payload of a data edge.
type Dependency struct {
	Type DepType
	Var  string
	// InterIteration is set when the profiler observed the dependency
	// crossing loop iterations.
	InterIteration bool
}

// Edge is a typed directed relation. Dep is non-nil only for EdgeData.
type Edge struct {
	From ID
	To   ID
	Type EdgeType
	Dep  *Dependency
}

// Key returns the ordered endpoint pair of the edge.
func (e Edge) Key() EdgeKey { return EdgeKey{From: e.From, To: e.To} }

// EdgeKey addresses all edges between an ordered pair of units.
type EdgeKey struct {
	From ID
	To   ID
}

// Warning is an advisory diagnostic recorded during construction.
type Warning struct {
	Message string
	Source  ID
	Target  ID
}

// View is the read-only surface detectors receive. Nodes are returned by
// pointer so detectors can set [Flags]; nothing in View adds or removes
// nodes or edges.
type View interface {
	NodeAt(id ID) (*Node, error)
	AllNodes() []*Node
	OutEdges(id ID, types ...EdgeType) []Edge
	InEdges(id ID, types ...EdgeType) []Edge
	EdgesBetween(key EdgeKey) ([]Edge, error)
	Children(id ID) []*Node
	Subtree(id ID) []*Node
	ReductionHints() []ReductionHint
}

// Graph is the program graph: a directed multigraph of computational units.
// Edges may reference ids with no node (dangling references); such edges
// are kept and fail on dereference.
//
// The zero value is not usable - use New or Build.
// Graph is not safe for concurrent use.
type Graph struct {
	nodes    map[ID]*Node
	order    []ID
	edges    []Edge
	out      map[ID][]int
	in       map[ID][]int
	hints    []ReductionHint
	warnings []Warning
}

var _ View = (*Graph)(nil)

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[ID]*Node),
		out:   make(map[ID][]int),
		in:    make(map[ID][]int),
	}
}

// AddNode inserts n. Returns ErrDuplicateNode if the id is taken.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return ErrDuplicateNode
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge appends e without checking that its endpoints exist.
func (g *Graph) AddEdge(e Edge) {
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
}

// HasNode reports whether id resolves to a node.
func (g *Graph) HasNode(id ID) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeAt returns the node for id or a *NodeNotFoundError.
func (g *Graph) NodeAt(id ID) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &NodeNotFoundError{ID: id}
	}
	return n, nil
}

// AllNodes returns nodes in insertion order. Build inserts in id order.
func (g *Graph) AllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, dangling ones included.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutEdges returns edges leaving id, restricted to types when any are given.
func (g *Graph) OutEdges(id ID, types ...EdgeType) []Edge {
	return g.collect(g.out[id], types)
}

// InEdges returns edges entering id, restricted to types when any are given.
func (g *Graph) InEdges(id ID, types ...EdgeType) []Edge {
	return g.collect(g.in[id], types)
}

func (g *Graph) collect(idx []int, types []EdgeType) []Edge {
	var result []Edge
	for _, i := range idx {
		e := g.edges[i]
		if len(types) == 0 || slices.Contains(types, e.Type) {
			result = append(result, e)
		}
	}
	return result
}

// EdgesBetween returns every edge from key.From to key.To, or an
// *EdgeNotFoundError when there is none.
func (g *Graph) EdgesBetween(key EdgeKey) ([]Edge, error) {
	var result []Edge
	for _, i := range g.out[key.From] {
		if g.edges[i].To == key.To {
			result = append(result, g.edges[i])
		}
	}
	if len(result) == 0 {
		return nil, &EdgeNotFoundError{Key: key}
	}
	return result, nil
}

// Children returns the resolvable targets of Child edges from id, in edge
// order. Dangling targets are skipped.
func (g *Graph) Children(id ID) []*Node {
	var result []*Node
	for _, e := range g.OutEdges(id, EdgeChild) {
		if n, ok := g.nodes[e.To]; ok {
			result = append(result, n)
		}
	}
	return result
}

// Subtree returns id's node followed by every node reachable over Child
// edges, each once. Returns nil if id has no node.
func (g *Graph) Subtree(id ID) []*Node {
	root, ok := g.nodes[id]
	if !ok {
		return nil
	}
	seen := map[ID]bool{id: true}
	result := []*Node{root}
	for i := 0; i < len(result); i++ {
		for _, c := range g.Children(result[i].ID) {
			if !seen[c.ID] {
				seen[c.ID] = true
				result = append(result, c)
			}
		}
	}
	return result
}

// RemoveNodes deletes the given nodes and every edge incident to them in
// one pass. Unknown ids are ignored.
func (g *Graph) RemoveNodes(ids []ID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			drop[id] = true
			delete(g.nodes, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	g.order = slices.DeleteFunc(g.order, func(id ID) bool { return drop[id] })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return drop[e.From] || drop[e.To] })
	g.reindex()
}

func (g *Graph) reindex() {
	g.out = make(map[ID][]int)
	g.in = make(map[ID][]int)
	for i, e := range g.edges {
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}
}

// ReductionHints returns the reduction-variable oracle supplied at build time.
func (g *Graph) ReductionHints() []ReductionHint { return g.hints }

// Warnings returns the diagnostics recorded during construction.
func (g *Graph) Warnings() []Warning { return slices.Clone(g.warnings) }

func (g *Graph) warn(w Warning) { g.warnings = append(g.warnings, w) }
