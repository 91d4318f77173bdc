package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/classscan/pkg/classgraph"
	"github.com/matzehuels/classscan/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the kind, modifiers and member counts to node labels.
	// When false, only the class name is shown.
	Detailed bool

	// IncludeExternal draws classes that were referenced but not scanned.
	IncludeExternal bool

	// EdgeLabels labels each edge with its reference kinds.
	EdgeLabels bool

	// ClusterPackages groups classes of the same package in a box.
	ClusterPackages bool

	// Kinds restricts the drawn edges to these reference kinds. Zero draws
	// every edge.
	Kinds classgraph.EdgeKind
}

// ToDOT converts a class graph to Graphviz DOT. The output is
// deterministic: classes and edges are emitted in name order.
func ToDOT(g *classgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=9, color=\"#555555\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	nodes := g.Classes()
	if opts.IncludeExternal {
		nodes = append(nodes, g.Externals()...)
	}
	drawn := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		drawn[n.Name] = true
	}

	if opts.ClusterPackages {
		writeClusters(&buf, nodes, opts)
	} else {
		for _, n := range nodes {
			writeNode(&buf, "  ", n, opts)
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !drawn[e.From] || !drawn[e.To] {
			continue
		}
		kinds := e.Kinds
		if opts.Kinds != 0 {
			if kinds &= opts.Kinds; kinds == 0 {
				continue
			}
		}
		if opts.EdgeLabels {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, strings.Join(kinds.Names(), "\n"))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, edgeStyle(kinds))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeClusters(buf *bytes.Buffer, nodes []*classgraph.ClassInfo, opts Options) {
	var order []string
	byPkg := make(map[string][]*classgraph.ClassInfo)
	for _, n := range nodes {
		pkg := n.Package()
		if _, ok := byPkg[pkg]; !ok {
			order = append(order, pkg)
		}
		byPkg[pkg] = append(byPkg[pkg], n)
	}
	for i, pkg := range order {
		label := pkg
		if label == "" {
			label = "(default package)"
		}
		fmt.Fprintf(buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(buf, "    label=%q;\n", label)
		buf.WriteString("    style=\"rounded,dashed\";\n    color=\"#999999\";\n")
		for _, n := range byPkg[pkg] {
			writeNode(buf, "    ", n, opts)
		}
		buf.WriteString("  }\n")
	}
}

func writeNode(buf *bytes.Buffer, indent string, n *classgraph.ClassInfo, opts Options) {
	label := fmtLabel(n, opts.Detailed, opts.ClusterPackages)
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.Name, strings.Join(fmtAttrs(n, label), ", "))
}

func fmtLabel(n *classgraph.ClassInfo, detailed, short bool) string {
	name := n.Name
	if short {
		name = n.SimpleName()
	}
	if !detailed {
		return name
	}
	if n.IsExternal() {
		return name + "\n(external)"
	}

	parts := []string{n.Kind.String()}
	if mods := n.Modifiers.ClassModifiers(); mods != "" {
		parts[0] = mods + " " + parts[0]
	}
	parts = append(parts, fmt.Sprintf("fields: %d", len(n.Fields)), fmt.Sprintf("methods: %d", len(n.Methods)))
	for _, a := range n.Annotations {
		parts = append(parts, "@"+a.TypeName)
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *classgraph.ClassInfo, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.IsExternal():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=\"#444444\"")
	case n.IsAnnotation():
		attrs = append(attrs, "fontname=\"Helvetica-Oblique\"", "fillcolor=\"#fff7e0\"")
	case n.IsInterface():
		attrs = append(attrs, "fontname=\"Helvetica-Oblique\"")
	case n.IsEnum(), n.IsRecord():
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// edgeStyle draws inheritance edges with a hollow arrowhead and
// annotation-only edges dotted.
func edgeStyle(k classgraph.EdgeKind) string {
	switch {
	case k&(classgraph.EdgeSuperclass|classgraph.EdgeInterface) != 0:
		return " [arrowhead=empty]"
	case k&^(classgraph.EdgeAnnotation|classgraph.EdgeAnnotationParam) == 0:
		return " [style=dotted]"
	}
	return ""
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg element with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
