// Package render turns class graphs into pictures.
//
// # Overview
//
// The [nodelink] subpackage produces Graphviz DOT for a class dependency
// graph and renders it in-process to SVG. This package converts SVG to
// other formats:
//
//	svg, err := nodelink.RenderSVG(nodelink.ToDOT(g, nodelink.Options{}))
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// PDF and PNG conversion use the external rsvg-convert tool (from librsvg).
//
// [nodelink]: github.com/matzehuels/classscan/pkg/render/nodelink
package render
