package pet

import (
	"errors"
	"testing"
)

func node(id string, kind Kind, start, end int) *Node {
	n := &Node{ID: MustParseID(id), Kind: kind, StartLine: start, EndLine: end}
	switch kind {
	case KindLoop:
		n.Loop = &LoopData{Iterations: UnknownIterations}
	case KindFunction:
		n.Func = &FunctionData{}
	}
	return n
}

func TestAddNodeDuplicate(t *testing.T) {
	g := New()
	if err := g.AddNode(node("0:1", KindBasic, 1, 2)); err != nil {
		t.Fatalf("AddNode error: %v", err)
	}
	if err := g.AddNode(node("0:1", KindLoop, 1, 2)); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("AddNode duplicate error = %v, want ErrDuplicateNode", err)
	}
}

func TestEdgesBetween(t *testing.T) {
	g := New()
	a, b := MustParseID("0:1"), MustParseID("0:2")
	_ = g.AddNode(node("0:1", KindLoop, 1, 10))
	_ = g.AddNode(node("0:2", KindBasic, 2, 3))
	g.AddEdge(Edge{From: a, To: b, Type: EdgeChild})
	g.AddEdge(Edge{From: a, To: b, Type: EdgeData, Dep: &Dependency{Type: RAW, Var: "x"}})
	g.AddEdge(Edge{From: a, To: b, Type: EdgeData, Dep: &Dependency{Type: RAW, Var: "y"}})

	edges, err := g.EdgesBetween(EdgeKey{From: a, To: b})
	if err != nil {
		t.Fatalf("EdgesBetween error: %v", err)
	}
	if len(edges) != 3 {
		t.Errorf("got %d edges, want 3", len(edges))
	}

	_, err = g.EdgesBetween(EdgeKey{From: b, To: a})
	var nf *EdgeNotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("reverse lookup error = %v, want EdgeNotFoundError", err)
	}
}

func TestOutEdgesFilter(t *testing.T) {
	g := New()
	a, b := MustParseID("0:1"), MustParseID("0:2")
	g.AddEdge(Edge{From: a, To: b, Type: EdgeChild})
	g.AddEdge(Edge{From: a, To: b, Type: EdgeSuccessor})
	g.AddEdge(Edge{From: a, To: b, Type: EdgeCalls})

	tests := []struct {
		name  string
		types []EdgeType
		want  int
	}{
		{"no filter", nil, 3},
		{"child only", []EdgeType{EdgeChild}, 1},
		{"child and calls", []EdgeType{EdgeChild, EdgeCalls}, 2},
		{"data", []EdgeType{EdgeData}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(g.OutEdges(a, tt.types...)); got != tt.want {
				t.Errorf("OutEdges = %d, want %d", got, tt.want)
			}
		})
	}
	if got := len(g.InEdges(b, EdgeSuccessor)); got != 1 {
		t.Errorf("InEdges = %d, want 1", got)
	}
}

func TestSubtreeHandlesCycles(t *testing.T) {
	g := New()
	for _, id := range []string{"0:1", "0:2", "0:3"} {
		_ = g.AddNode(node(id, KindBasic, 1, 1))
	}
	g.AddEdge(Edge{From: MustParseID("0:1"), To: MustParseID("0:2"), Type: EdgeChild})
	g.AddEdge(Edge{From: MustParseID("0:2"), To: MustParseID("0:3"), Type: EdgeChild})
	g.AddEdge(Edge{From: MustParseID("0:3"), To: MustParseID("0:1"), Type: EdgeChild})
	g.AddEdge(Edge{From: MustParseID("0:2"), To: MustParseID("0:3"), Type: EdgeSuccessor})

	if got := len(g.Subtree(MustParseID("0:1"))); got != 3 {
		t.Errorf("Subtree size = %d, want 3", got)
	}
	if g.Subtree(MustParseID("9:9")) != nil {
		t.Error("Subtree of unknown id should be nil")
	}
}

func TestRemoveNodes(t *testing.T) {
	g := New()
	for _, id := range []string{"0:1", "0:2", "0:3"} {
		_ = g.AddNode(node(id, KindBasic, 1, 1))
	}
	a, b, c := MustParseID("0:1"), MustParseID("0:2"), MustParseID("0:3")
	g.AddEdge(Edge{From: a, To: b, Type: EdgeChild})
	g.AddEdge(Edge{From: b, To: c, Type: EdgeSuccessor})
	g.AddEdge(Edge{From: a, To: c, Type: EdgeChild})

	g.RemoveNodes([]ID{b, MustParseID("7:7")})

	if g.NodeCount() != 2 || g.HasNode(b) {
		t.Errorf("node 0:2 not removed")
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if out := g.OutEdges(a); len(out) != 1 || out[0].To != c {
		t.Errorf("surviving edge wrong: %+v", out)
	}
	if len(g.InEdges(c)) != 1 {
		t.Error("in-index not rebuilt")
	}
}

func TestFingerprint(t *testing.T) {
	build := func(reverse bool) *Graph {
		g := New()
		ids := []string{"0:1", "0:2"}
		if reverse {
			ids = []string{"0:2", "0:1"}
		}
		for _, id := range ids {
			_ = g.AddNode(node(id, KindBasic, 1, 1))
		}
		g.AddEdge(Edge{From: MustParseID("0:1"), To: MustParseID("0:2"), Type: EdgeChild})
		return g
	}

	h1, err := build(false).Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint error: %v", err)
	}
	h2, _ := build(true).Fingerprint()
	if h1 != h2 {
		t.Error("fingerprint should not depend on insertion order")
	}

	g := build(false)
	g.AddEdge(Edge{From: MustParseID("0:2"), To: MustParseID("0:2"), Type: EdgeData, Dep: &Dependency{Type: RAW, Var: "x"}})
	h3, _ := g.Fingerprint()
	if h1 == h3 {
		t.Error("fingerprint should change with edges")
	}
}
