package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pardetect/pkg/pet"
	"github.com/matzehuels/pardetect/pkg/pipeline"
)

func TestGraphCommandDOT(t *testing.T) {
	in := writeBundle(t, "pet.json")
	out := filepath.Join(t.TempDir(), "pet.dot")

	if err := runRoot(t, "graph", in, "-o", out, "--detailed", "--highlight"); err != nil {
		t.Fatalf("graph: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.HasPrefix(dot, "digraph PET {") {
		t.Errorf("not a DOT graph:\n%s", dot)
	}
	if !strings.Contains(dot, "penwidth=3") {
		t.Error("reduction loop not highlighted")
	}
}

func TestGraphCommandCachesArtifact(t *testing.T) {
	in := writeBundle(t, "pet.json")
	dir := t.TempDir()
	first := filepath.Join(dir, "a.dot")
	second := filepath.Join(dir, "b.dot")

	t.Setenv("PARDETECT_CACHE_DIR", filepath.Join(dir, "cache"))
	if err := runRoot(t, "graph", in, "-o", first); err != nil {
		t.Fatalf("graph: %v", err)
	}
	if err := runRoot(t, "graph", in, "-o", second); err != nil {
		t.Fatalf("graph: %v", err)
	}
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Error("cached graph differs from rendered graph")
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "cache"))
	if len(entries) == 0 {
		t.Error("graph was not cached")
	}
}

func TestGraphCommandInvalidFormat(t *testing.T) {
	in := writeBundle(t, "pet.json")
	if err := runRoot(t, "graph", in, "-f", "gif"); err == nil {
		t.Error("expected error for unknown graph format")
	}
	if err := runRoot(t, "graph", in, "--edges", "child,bogus"); err == nil {
		t.Error("expected error for unknown edge type")
	}
}

func TestRenderOptions(t *testing.T) {
	ro, err := renderOptions(graphOpts{edges: "child, data", detailed: true})
	if err != nil {
		t.Fatal(err)
	}
	if !ro.Detailed || ro.Highlight {
		t.Errorf("flags = %+v", ro)
	}
	want := []pet.EdgeType{pet.EdgeChild, pet.EdgeData}
	if len(ro.EdgeTypes) != len(want) || ro.EdgeTypes[0] != want[0] || ro.EdgeTypes[1] != want[1] {
		t.Errorf("EdgeTypes = %v, want %v", ro.EdgeTypes, want)
	}
}

func TestArtifactFormatDistinguishesFlags(t *testing.T) {
	base := artifactFormat(graphOpts{format: "svg"}, pipeline.Options{})
	if base == artifactFormat(graphOpts{format: "svg", highlight: true}, pipeline.Options{}) {
		t.Error("highlight does not change the artifact key")
	}
	if base == artifactFormat(graphOpts{format: "svg"}, pipeline.Options{PipelineAllowDoAll: true}) {
		t.Error("detection options do not change the artifact key")
	}
}
