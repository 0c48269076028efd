package resolver

import (
	"sort"
	"sync"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

// Node is one resolved coordinate.
type Node struct {
	Coordinate   maven.Coordinate   `json:"coordinate" yaml:"coordinate"`
	Dependencies []maven.Coordinate `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Depth        int                `json:"depth" yaml:"depth"`
}

// DependencyGraph maps coordinate keys to resolved nodes.
// It is safe for concurrent use.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{nodes: make(map[string]*Node)}
}

// AddNode inserts coord, replacing any node with the same key.
func (g *DependencyGraph) AddNode(coord maven.Coordinate, deps []maven.Coordinate, depth int) {
	n := &Node{
		Coordinate:   coord,
		Dependencies: append([]maven.Coordinate(nil), deps...),
		Depth:        depth,
	}
	g.mu.Lock()
	g.nodes[coord.Key()] = n
	g.mu.Unlock()
}

// Get returns the node stored under key ("groupId:artifactId:version").
func (g *DependencyGraph) Get(key string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[key]
	return n, ok
}

// Contains reports whether key has a node.
func (g *DependencyGraph) Contains(key string) bool {
	_, ok := g.Get(key)
	return ok
}

// Len returns the number of nodes.
func (g *DependencyGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns every node sorted by key. Callers must not rely on any other
// relationship between the order and the graph shape.
func (g *DependencyGraph) Nodes() []*Node {
	g.mu.RLock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Coordinate.Key() < out[j].Coordinate.Key()
	})
	return out
}
