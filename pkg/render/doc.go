// Package render draws program graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a [pet.Graph] into Graphviz DOT source. Units are colored
// by kind (computational units blue, loops red diamonds, functions purple,
// dummies grey) and the main function stands out as a yellow hexagon.
// Edges are styled per type so containment, control flow, calls and data
// dependencies can be told apart.
//
//	dot := render.ToDOT(g, render.Options{Detailed: true, Highlight: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// With Highlight set, units carrying a pattern flag after detection get a
// heavy outline and a tooltip naming the flags.
//
// # Output Formats
//
// [RenderSVG] renders in-process with [github.com/goccy/go-graphviz].
// [RenderPDF] and [RenderPNG] convert the SVG with the external
// rsvg-convert tool (from librsvg).
package render
