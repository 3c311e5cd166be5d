// Package render turns morphology documents into visual outputs: Graphviz
// DOT source for the section tree, SVG via in-process Graphviz, and PDF or
// PNG via rsvg-convert.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/skeltree/skeltree/pkg/morphio"
	"github.com/skeltree/skeltree/pkg/vec"
)

// Options configures section-tree rendering.
type Options struct {
	// Detailed includes point counts and path lengths in section labels.
	// When false, only the section index is shown.
	Detailed bool
}

// ToDOT converts a morphology document to Graphviz DOT format. The soma is
// drawn as a filled ellipse, sections as rounded boxes attached to their
// parents. The resulting DOT string can be rendered with [RenderSVG],
// [RenderPDF], or [RenderPNG].
func ToDOT(doc *morphio.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph morphology {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  soma [shape=ellipse, fillcolor=lightgrey, label=%q];\n",
		fmtSomaLabel(doc.Soma, opts.Detailed))

	for i, s := range doc.Sections {
		fmt.Fprintf(&buf, "  s%d [label=%q];\n", i, fmtSectionLabel(i, s, opts.Detailed))
	}

	buf.WriteString("\n")
	for i, s := range doc.Sections {
		if s.Parent < 0 {
			fmt.Fprintf(&buf, "  soma -> s%d;\n", i)
		} else {
			fmt.Fprintf(&buf, "  s%d -> s%d;\n", s.Parent, i)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtSomaLabel(s morphio.SomaRecord, detailed bool) string {
	if !detailed {
		return "soma"
	}
	return fmt.Sprintf("soma\nr: %.3g", s.Radius)
}

func fmtSectionLabel(idx int, s morphio.SectionRecord, detailed bool) string {
	if !detailed {
		return fmt.Sprintf("s%d", idx)
	}
	return fmt.Sprintf("s%d\n%s\n%d pts, len %.3g", idx, s.Type, len(s.Points), pathLength(s))
}

func pathLength(s morphio.SectionRecord) float64 {
	var sum float64
	for i := 1; i < len(s.Points); i++ {
		sum += vec.Dist(s.Points[i-1].Pos, s.Points[i].Pos)
	}
	return sum
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns SVG bytes ready for display or further conversion with [ToPDF] or [ToPNG].
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

// normalizeViewBox rewrites the SVG root element so the viewBox starts at
// the origin and width/height match it. Graphviz emits point-based sizes
// that some viewers scale inconsistently.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
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
	return ToPNG(svg, scale)
}
