package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/polytunnel/polytunnel/pkg/resolver"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Detailed adds depth and packaging to node labels.
	Detailed bool
}

// ToDOT converts tree to a Graphviz digraph. Roots are drawn bold,
// pom-packaged nodes dashed, and edge targets without a node (failed or
// skipped) grey.
func ToDOT(tree *resolver.ResolvedTree, opts DOTOptions) string {
	roots := make(map[string]bool, len(tree.RootDependencies))
	for _, c := range tree.RootDependencies {
		roots[c.Key()] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("\n")

	nodes := tree.Graph.Nodes()
	for _, n := range nodes {
		key := n.Coordinate.Key()
		label := key
		if opts.Detailed {
			label = fmt.Sprintf("%s\ndepth: %d\npackaging: %s", key, n.Depth, n.Coordinate.Packaging)
		}
		attrs := fmt.Sprintf("label=%q", label)
		if roots[key] {
			attrs += ", penwidth=2"
		}
		if n.Coordinate.Packaging == "pom" {
			attrs += ", style=\"rounded,filled,dashed\""
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key, attrs)
	}

	missing := make(map[string]bool)
	for _, n := range nodes {
		for _, d := range n.Dependencies {
			key := d.Key()
			if !tree.Graph.Contains(key) && !missing[key] {
				missing[key] = true
				fmt.Fprintf(&buf, "  %q [label=%q, fontcolor=grey, color=grey];\n", key, key)
			}
		}
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, d := range n.Dependencies {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Coordinate.Key(), d.Key())
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out a DOT graph with Graphviz and returns the SVG.
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

// normalizeViewBox rewrites the root element so the SVG scales from a zero origin.
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
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
