package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/pardetect/pkg/pet"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds kind, name and line span to node labels.
	// When false, only the unit id is shown.
	Detailed bool
	// EdgeTypes restricts which edges are drawn. Empty draws all of them.
	EdgeTypes []pet.EdgeType
	// Highlight outlines units that carry a pattern flag.
	Highlight bool
}

var kindColors = map[pet.Kind]string{
	pet.KindBasic:    "#2B85FD",
	pet.KindFunction: "#cf65ff",
	pet.KindLoop:     "#ff5151",
	pet.KindDummy:    "grey",
}

var kindShapes = map[pet.Kind]string{
	pet.KindBasic:    "ellipse",
	pet.KindFunction: "box",
	pet.KindLoop:     "diamond",
	pet.KindDummy:    "box",
}

// ToDOT converts a program graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Nodes are colored by kind and the main function is drawn as a yellow
// hexagon. Child edges are solid, successor edges green, call edges
// dashed, and data edges dotted with the variable as label.
func ToDOT(g *pet.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph PET {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fontsize=14, fontcolor=white];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.AllNodes() {
		attrs := fmtNodeAttrs(n, fmtLabel(n, opts.Detailed), opts.Highlight)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !drawn(e.Type, opts.EdgeTypes) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From.String(), e.To.String(), strings.Join(fmtEdgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ParseEdgeType maps an edge type name ("child", "successor", "data",
// "calls") to its value.
func ParseEdgeType(name string) (pet.EdgeType, error) {
	for _, t := range []pet.EdgeType{pet.EdgeChild, pet.EdgeSuccessor, pet.EdgeData, pet.EdgeCalls} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown edge type: %q", name)
}

func drawn(t pet.EdgeType, types []pet.EdgeType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

func fmtLabel(n *pet.Node, detailed bool) string {
	if !detailed {
		return n.ID.String()
	}
	parts := []string{n.ID.String(), n.Kind.String()}
	if n.Name != "" {
		parts = append(parts, n.Name)
	}
	parts = append(parts, fmt.Sprintf("lines %d-%d", n.StartLine, n.EndLine))
	if n.Loop != nil && n.Loop.Iterations != pet.UnknownIterations {
		parts = append(parts, fmt.Sprintf("iterations: %d", n.Loop.Iterations))
	}
	return strings.Join(parts, "\n")
}

func fmtNodeAttrs(n *pet.Node, label string, highlight bool) []string {
	shape, color := kindShapes[n.Kind], kindColors[n.Kind]
	if n.IsFunction() && n.Name == "main" {
		shape, color = "hexagon", "yellow"
	}
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		"shape=" + shape,
		fmt.Sprintf("fillcolor=%q", color),
	}
	if color == "yellow" || color == "grey" {
		attrs = append(attrs, "fontcolor=black")
	}
	if highlight {
		if tags := flagTags(n.Flags); len(tags) > 0 {
			attrs = append(attrs, "penwidth=3", "color=\"#222222\"", fmt.Sprintf("tooltip=%q", strings.Join(tags, ",")))
		}
	}
	return attrs
}

func flagTags(f pet.Flags) []string {
	var tags []string
	if f.Reduction {
		tags = append(tags, "reduction")
	}
	if f.DoAll {
		tags = append(tags, "do-all")
	}
	if f.PipelineStage {
		tags = append(tags, "pipeline-stage")
	}
	if f.GeometricDecomposition {
		tags = append(tags, "geometric-decomposition")
	}
	return tags
}

func fmtEdgeAttrs(e pet.Edge) []string {
	switch e.Type {
	case pet.EdgeSuccessor:
		return []string{"color=green"}
	case pet.EdgeCalls:
		return []string{"style=dashed", "color=\"#cf65ff\""}
	case pet.EdgeData:
		attrs := []string{"style=dotted", "color=grey40"}
		if e.Dep != nil {
			attrs = append(attrs, fmt.Sprintf("label=%q", string(e.Dep.Type)+" "+e.Dep.Var), "fontsize=10")
		}
		return attrs
	default:
		return []string{"color=black"}
	}
}
