package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/resolver"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatDOT, FormatSVG}

// ParseFormat accepts a format name, case-insensitively. "yml" is an alias for yaml.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		return FormatYAML, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %s)", s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Document is the serialized form of a resolution.
type Document struct {
	Roots        []string     `json:"roots" yaml:"roots"`
	Dependencies []string     `json:"dependencies" yaml:"dependencies"`
	Nodes        []Node       `json:"nodes" yaml:"nodes"`
	Edges        []Edge       `json:"edges" yaml:"edges"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type Node struct {
	ID        string `json:"id" yaml:"id"`
	Depth     int    `json:"depth" yaml:"depth"`
	Packaging string `json:"packaging,omitempty" yaml:"packaging,omitempty"`
}

type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

type Diagnostic struct {
	Kind       string `json:"kind" yaml:"kind"`
	Coordinate string `json:"coordinate" yaml:"coordinate"`
	From       string `json:"from,omitempty" yaml:"from,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewDocument flattens tree. Nodes are sorted by key; edges follow node
// order and, within a node, dependency order.
func NewDocument(tree *resolver.ResolvedTree) Document {
	doc := Document{
		Roots:        make([]string, len(tree.RootDependencies)),
		Dependencies: make([]string, len(tree.AllDependencies)),
		Nodes:        []Node{},
		Edges:        []Edge{},
	}
	for i, c := range tree.RootDependencies {
		doc.Roots[i] = c.Key()
	}
	for i, c := range tree.AllDependencies {
		doc.Dependencies[i] = c.Key()
	}
	for _, n := range tree.Graph.Nodes() {
		from := n.Coordinate.Key()
		doc.Nodes = append(doc.Nodes, Node{ID: from, Depth: n.Depth, Packaging: n.Coordinate.Packaging})
		for _, d := range n.Dependencies {
			doc.Edges = append(doc.Edges, Edge{From: from, To: d.Key()})
		}
	}
	for _, d := range tree.Diagnostics {
		out := Diagnostic{Kind: string(d.Kind), Coordinate: d.Coordinate.Key(), From: d.From}
		if d.Err != nil {
			out.Error = d.Err.Error()
		}
		doc.Diagnostics = append(doc.Diagnostics, out)
	}
	return doc
}

// WriteJSON encodes tree as an indented JSON [Document].
func WriteJSON(w io.Writer, tree *resolver.ResolvedTree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(tree)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML encodes tree as a YAML [Document].
func WriteYAML(w io.Writer, tree *resolver.ResolvedTree) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(tree)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Write renders tree in format f.
func Write(w io.Writer, tree *resolver.ResolvedTree, f Format) error {
	switch f {
	case FormatText:
		return resolver.RenderTree(w, tree, resolver.TreeOptions{})
	case FormatJSON:
		return WriteJSON(w, tree)
	case FormatYAML:
		return WriteYAML(w, tree)
	case FormatDOT:
		_, err := io.WriteString(w, ToDOT(tree, DOTOptions{}))
		return err
	case FormatSVG:
		svg, err := RenderSVG(ToDOT(tree, DOTOptions{}))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", f)
	}
}

// ExportFile writes tree to path in format f.
func ExportFile(tree *resolver.ResolvedTree, path string, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	if err := Write(file, tree, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", path)
	}
	return nil
}
