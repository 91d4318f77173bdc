package pipeline

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/classscan/pkg/classgraph"
	pkgio "github.com/matzehuels/classscan/pkg/io"
	"github.com/matzehuels/classscan/pkg/render"
	"github.com/matzehuels/classscan/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. The DOT and
// SVG forms are computed once and shared by the formats derived from them.
func Render(g *classgraph.Graph, snap *pkgio.Snapshot, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	scale := opts.PNGScale
	if scale <= 0 {
		scale = DefaultPNGScale
	}

	var (
		dot string
		svg []byte
	)
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		if dot == "" {
			dot = nodelink.ToDOT(g, opts.Graph)
		}
		var err error
		svg, err = nodelink.RenderSVG(dot)
		return svg, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = pkgio.WriteJSON(snap, &buf)
			data = buf.Bytes()
		case FormatYAML:
			var buf bytes.Buffer
			err = pkgio.WriteYAML(snap, &buf)
			data = buf.Bytes()
		case FormatDOT:
			if dot == "" {
				dot = nodelink.ToDOT(g, opts.Graph)
			}
			data = []byte(dot)
		case FormatSVG:
			data, err = svgOnce()
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(data, scale)
			}
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(data)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
