// Package render draws a canonical adjacency graph as a node-link diagram.
//
// [ToDOT] produces undirected Graphviz DOT source with one edge per stored
// (key, neighbor) pair, labelled with its weight. [RenderSVG] lays the DOT
// out in-process with [github.com/goccy/go-graphviz].
//
//	g, _, err := codec.ReadGraph(f, codec.FormatAuto)
//	dot := render.ToDOT(g, render.Options{Weights: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Layout cost grows quickly with graph size; callers should cap what they
// pass in.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/adjpack/pkg/adjacency"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// Layouts lists the Graphviz engines accepted for [Options.Layout].
var Layouts = []string{"neato", "fdp", "sfdp", "circo", "dot", "twopi"}

// ValidateLayout checks that name is one of [Layouts].
func ValidateLayout(name string) error {
	if !slices.Contains(Layouts, name) {
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown layout %q (want one of %s)", name, strings.Join(Layouts, ", "))
	}
	return nil
}

// Options configures diagram generation.
type Options struct {
	// Weights labels each edge with its weight.
	Weights bool

	// Layout is the Graphviz layout engine attribute (default "neato").
	Layout string
}

// ToDOT converts g to undirected DOT source. Nodes and edges are emitted in
// ascending key then neighbor order, so equal graphs give equal output.
func ToDOT(g *adjacency.Graph, opts Options) string {
	layout := opts.Layout
	if layout == "" {
		layout = "neato"
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%q;\n", layout)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10, fontcolor=gray30];\n")
	buf.WriteString("\n")

	_ = g.Each(func(key uint32, set *adjacency.NeighborSet) error {
		for _, e := range set.Entries() {
			if opts.Weights {
				fmt.Fprintf(&buf, "  %d -- %d [label=\"%d\"];\n", key, e.Neighbor, e.Weight)
			} else {
				fmt.Fprintf(&buf, "  %d -- %d;\n", key, e.Neighbor)
			}
		}
		return nil
	})

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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

// normalizeViewBox replaces Graphviz's point-based svg tag with one whose
// width and height match the viewBox, so the image scales in browsers.
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
