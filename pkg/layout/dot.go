package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures hierarchy diagram rendering.
type DOTOptions struct {
	// Detailed includes polygon and reference counts in node labels.
	// When false, only the cell name is shown.
	Detailed bool
	// Labels marks print targets; labeled cells render filled.
	Labels Labels
}

// ToDOT converts a library's cell hierarchy to Graphviz DOT format.
// Each cell is a node; each reference is an edge from parent to child,
// annotated with the instance count when a repetition expands it.
// The resulting DOT string can be rendered with [RenderSVG].
func ToDOT(lib *Library, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, c := range lib.Cells {
		label := fmtCellLabel(c, opts.Detailed)
		attrs := fmtCellAttrs(c, label, opts.Labels)
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range lib.Cells {
		for _, ref := range c.Refs {
			if n := instanceCount(ref); n > 1 {
				fmt.Fprintf(&buf, "  %q -> %q [label=\"x%d\"];\n", c.Name, ref.Cell.Name, n)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", c.Name, ref.Cell.Name)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func instanceCount(ref Ref) int {
	if ref.Repetition == nil {
		return 1
	}
	return len(ref.Repetition.Offsets())
}

func fmtCellLabel(c *Cell, detailed bool) string {
	if !detailed {
		return c.Name
	}

	parts := []string{fmt.Sprintf("polygons: %d", len(c.Polygons))}
	if len(c.Texts) > 0 {
		parts = append(parts, fmt.Sprintf("texts: %d", len(c.Texts)))
	}
	parts = append(parts, fmt.Sprintf("refs: %d", len(c.Refs)))

	return c.Name + "\n" + strings.Join(parts, "\n")
}

func fmtCellAttrs(c *Cell, label string, labels Labels) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if labels[c.Name] {
		attrs = append(attrs, "style=\"rounded,filled,bold\"", "fillcolor=lightblue")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

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
