package pet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
)

func intPtr(v int) *int { return &v }

func loopInput() *Input {
	return &Input{
		Units: map[string]Unit{
			"0:1": {Type: int(KindLoop), StartsAtLine: "0:10", EndsAtLine: "0:20", ChildrenNodes: []string{"0:2"}},
			"0:2": {Type: int(KindBasic), StartsAtLine: "0:12", EndsAtLine: "0:14"},
		},
		Dependencies: []DependencyFact{{Sink: "0:2", Source: "0:2", Type: RAW, Var: "sum"}},
		Loops:        map[string]LoopInfo{"0:1": {Iterations: intPtr(100), IndexVars: []string{"i"}}},
	}
}

func TestBuild(t *testing.T) {
	g, err := Build(loopInput(), nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}

	loop, err := g.NodeAt(MustParseID("0:1"))
	if err != nil {
		t.Fatalf("NodeAt error: %v", err)
	}
	if !loop.IsLoop() || loop.Loop == nil || loop.Func != nil {
		t.Fatalf("loop variant not set: %+v", loop)
	}
	if loop.Loop.Iterations != 100 || loop.Loop.IndexVars[0] != "i" {
		t.Errorf("loop data = %+v", loop.Loop)
	}
	if loop.StartLine != 10 || loop.EndLine != 20 || loop.SourceFile != 0 {
		t.Errorf("span = %d:%d-%d", loop.SourceFile, loop.StartLine, loop.EndLine)
	}

	data := g.OutEdges(MustParseID("0:2"), EdgeData)
	if len(data) != 1 || data[0].Dep.Var != "sum" || data[0].To != MustParseID("0:2") {
		t.Errorf("data edges = %+v", data)
	}
	if len(g.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %+v", g.Warnings())
	}
}

func TestBuildEmpty(t *testing.T) {
	for _, in := range []*Input{nil, {}} {
		g, err := Build(in, nil)
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		if g.NodeCount() != 0 || g.EdgeCount() != 0 {
			t.Errorf("empty input built %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
		}
	}
}

func TestBuildNodeOrderAndUniqueness(t *testing.T) {
	in := &Input{Units: map[string]Unit{
		"1:2":  {StartsAtLine: "1:1", EndsAtLine: "1:2"},
		"0:10": {StartsAtLine: "0:1", EndsAtLine: "0:2"},
		"0:9":  {StartsAtLine: "0:1", EndsAtLine: "0:2"},
	}}
	g, err := Build(in, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	seen := map[ID]bool{}
	var got []string
	for _, n := range g.AllNodes() {
		if seen[n.ID] {
			t.Fatalf("duplicate node %s", n.ID)
		}
		seen[n.ID] = true
		got = append(got, n.ID.String())
	}
	if want := "0:9,0:10,1:2"; strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
}

func TestBuildDanglingChild(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	in := &Input{Units: map[string]Unit{
		"0:1": {Type: int(KindFunction), StartsAtLine: "0:1", EndsAtLine: "0:50", ChildrenNodes: []string{"0:99"}},
	}}
	g, err := Build(in, logger)
	if err != nil {
		t.Fatalf("dangling reference must not abort construction: %v", err)
	}

	edges, err := g.EdgesBetween(EdgeKey{From: MustParseID("0:1"), To: MustParseID("0:99")})
	if err != nil || len(edges) != 1 || edges[0].Type != EdgeChild {
		t.Fatalf("dangling edge missing: %v %+v", err, edges)
	}
	if len(g.Warnings()) != 1 {
		t.Errorf("warnings = %+v, want 1", g.Warnings())
	}
	if !strings.Contains(buf.String(), "0:99") {
		t.Errorf("warning not logged: %q", buf.String())
	}

	_, err = g.NodeAt(edges[0].To)
	var nf *NodeNotFoundError
	if !errors.As(err, &nf) || nf.ID != MustParseID("0:99") {
		t.Fatalf("NodeAt error = %v, want *NodeNotFoundError for 0:99", err)
	}
	if !errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEdgeNotFound) {
		t.Error("dangling dereference should match ErrNodeNotFound only")
	}
	if perrors.GetCode(err) != perrors.ErrCodeNodeNotFound {
		t.Errorf("code = %q", perrors.GetCode(err))
	}
	if len(g.Children(MustParseID("0:1"))) != 0 {
		t.Error("Children should skip unresolved targets")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       *Input
		wantCode perrors.Code
		field    string
	}{
		{
			name:     "malformed unit id",
			in:       &Input{Units: map[string]Unit{"x:1": {StartsAtLine: "0:1", EndsAtLine: "0:2"}}},
			wantCode: perrors.ErrCodeInvalidID,
			field:    "id",
		},
		{
			name:     "malformed start",
			in:       &Input{Units: map[string]Unit{"0:1": {StartsAtLine: "10", EndsAtLine: "0:2"}}},
			wantCode: perrors.ErrCodeInvalidID,
			field:    "startsAtLine",
		},
		{
			name: "malformed child reference",
			in: &Input{Units: map[string]Unit{
				"0:1": {StartsAtLine: "0:1", EndsAtLine: "0:2", ChildrenNodes: []string{"child"}},
			}},
			wantCode: perrors.ErrCodeInvalidID,
			field:    "childrenNodes",
		},
		{
			name: "malformed dependency",
			in: &Input{
				Units:        map[string]Unit{"0:1": {StartsAtLine: "0:1", EndsAtLine: "0:2"}},
				Dependencies: []DependencyFact{{Sink: "0:1", Source: "?", Var: "x"}},
			},
			wantCode: perrors.ErrCodeInvalidID,
			field:    "dependency source",
		},
		{
			name:     "unknown kind",
			in:       &Input{Units: map[string]Unit{"0:1": {Type: 7, StartsAtLine: "0:1", EndsAtLine: "0:2"}}},
			wantCode: perrors.ErrCodeInvalidUnit,
		},
		{
			name:     "inverted span",
			in:       &Input{Units: map[string]Unit{"0:1": {StartsAtLine: "0:9", EndsAtLine: "0:2"}}},
			wantCode: perrors.ErrCodeInvalidUnit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := perrors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (%v)", got, tt.wantCode, err)
			}
			if tt.field != "" {
				var malformed *MalformedIDError
				if !errors.As(err, &malformed) || malformed.Field != tt.field {
					t.Errorf("error = %v, want MalformedIDError on %s", err, tt.field)
				}
			}
		})
	}
}

func TestBuildSpanWarning(t *testing.T) {
	in := &Input{Units: map[string]Unit{
		"0:1": {Type: int(KindLoop), StartsAtLine: "0:10", EndsAtLine: "0:20", ChildrenNodes: []string{"0:2", "1:3"}},
		"0:2": {StartsAtLine: "0:25", EndsAtLine: "0:30"},
		"1:3": {StartsAtLine: "1:100", EndsAtLine: "1:200"},
	}}
	g, err := Build(in, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	w := g.Warnings()
	if len(w) != 1 || w[0].Target != MustParseID("0:2") {
		t.Errorf("warnings = %+v, want one for same-file child 0:2 only", w)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("edges should still be added, got %d", g.EdgeCount())
	}
}

func TestBuildStrayLoopData(t *testing.T) {
	in := &Input{
		Units: map[string]Unit{"0:1": {StartsAtLine: "0:1", EndsAtLine: "0:2"}},
		Loops: map[string]LoopInfo{"0:1": {Iterations: intPtr(3)}, "0:5": {}},
	}
	g, err := Build(in, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(g.Warnings()) != 2 {
		t.Errorf("warnings = %+v, want 2", g.Warnings())
	}

	in.Loops = map[string]LoopInfo{"bad": {}}
	if _, err := Build(in, nil); perrors.GetCode(err) != perrors.ErrCodeInvalidID {
		t.Errorf("malformed loop key error = %v", err)
	}
}
