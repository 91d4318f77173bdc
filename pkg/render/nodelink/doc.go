// Package nodelink renders class dependency graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{ClusterPackages: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)  // 2x scale
//
// # Node Styles
//
// Scanned classes are rounded boxes; interfaces and annotation types are
// drawn in italics, enums and records with a double border. External
// classes (referenced but not scanned) are dashed and grey, and are left
// out unless [Options.IncludeExternal] is set.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
