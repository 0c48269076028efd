package resolver

import (
	"bufio"
	"io"
	"sort"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

// TreeOptions configures RenderTree.
type TreeOptions struct {
	// Highlight decorates coordinate text, e.g. with terminal colors.
	// Nil leaves text unchanged.
	Highlight func(key string, depth int) string
}

// RenderTree writes an indented tree of the resolution, one root per top
// level entry. Children are sorted by key. A coordinate printed earlier is
// shown once more with "(*)" and not expanded again; coordinates that have
// no graph node (failed or skipped) are marked "(unresolved)".
func RenderTree(w io.Writer, tree *ResolvedTree, opts TreeOptions) error {
	bw := bufio.NewWriter(w)
	r := &treeRenderer{w: bw, g: tree.Graph, opts: opts, printed: make(map[string]bool)}
	for _, root := range tree.RootDependencies {
		r.node(root, "", "", 0)
	}
	return bw.Flush()
}

type treeRenderer struct {
	w       *bufio.Writer
	g       *DependencyGraph
	opts    TreeOptions
	printed map[string]bool
}

func (r *treeRenderer) node(c maven.Coordinate, prefix, branch string, depth int) {
	key := c.Key()
	label := key
	if r.opts.Highlight != nil {
		label = r.opts.Highlight(key, depth)
	}

	n, ok := r.g.Get(key)
	switch {
	case !ok:
		r.line(prefix+branch, label+" (unresolved)")
		return
	case r.printed[key]:
		r.line(prefix+branch, label+" (*)")
		return
	}
	r.printed[key] = true
	r.line(prefix+branch, label)

	children := append([]maven.Coordinate(nil), n.Dependencies...)
	sort.Slice(children, func(i, j int) bool { return children[i].Key() < children[j].Key() })

	childPrefix := prefix
	switch branch {
	case "├── ":
		childPrefix += "│   "
	case "└── ":
		childPrefix += "    "
	}
	for i, child := range children {
		b := "├── "
		if i == len(children)-1 {
			b = "└── "
		}
		r.node(child, childPrefix, b, depth+1)
	}
}

func (r *treeRenderer) line(prefix, text string) {
	r.w.WriteString(prefix)
	r.w.WriteString(text)
	r.w.WriteByte('\n')
}
