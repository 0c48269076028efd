package resolver

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
	"github.com/polytunnel/polytunnel/pkg/observability"
)

const (
	DefaultWorkers        = 20 // Concurrent POM fetches
	DefaultMaxParentDepth = 10 // Ancestors merged into an effective POM
)

// POMFetcher fetches a single POM without walking its parents.
// *maven.Client implements it.
type POMFetcher interface {
	FetchPOM(ctx context.Context, coord maven.Coordinate) (*maven.POM, error)
}

// Options configures a Resolver.
type Options struct {
	Workers        int         // Concurrent fetches (default: 20)
	MaxDepth       int         // Deepest transitive level followed; 0 is unbounded
	MaxParentDepth int         // Parent hops per effective POM (default: 10)
	Logger         *log.Logger // Warnings for skipped subtrees (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.MaxParentDepth <= 0 {
		o.MaxParentDepth = DefaultMaxParentDepth
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// ResolvedTree is the result of one Resolve call.
type ResolvedTree struct {
	// RootDependencies are the roots after overrides, without duplicates,
	// in the order given.
	RootDependencies []maven.Coordinate
	// AllDependencies holds every resolved coordinate that ships classes
	// (packaging other than "pom"), once each, ordered by depth then key.
	AllDependencies []maven.Coordinate
	Graph           *DependencyGraph
	Diagnostics     []Diagnostic
}

// Resolver resolves transitive dependencies. It is safe for concurrent use;
// every Resolve call has its own state.
type Resolver struct {
	fetcher POMFetcher
	opts    Options
}

// New creates a Resolver that reads POMs through fetcher.
func New(fetcher POMFetcher, opts Options) *Resolver {
	return &Resolver{fetcher: fetcher, opts: opts.WithDefaults()}
}

// Resolve computes the closure of roots. It fails only when a root POM
// cannot be fetched or parsed, or when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, roots []maven.Coordinate) (*ResolvedTree, error) {
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, len(roots))
	start := time.Now()

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		ctx:       sctx,
		cancel:    cancel,
		fetcher:   r.fetcher,
		opts:      r.opts,
		overrides: overrideMap(roots),
		graph:     NewDependencyGraph(),
		visited:   make(map[string]bool),
		jobs:      make(chan job),
		results:   make(chan result, r.opts.Workers),
	}
	tree, err := s.run(roots)

	nodes, diags := 0, 0
	if tree != nil {
		nodes, diags = tree.Graph.Len(), len(tree.Diagnostics)
	}
	hooks.OnResolveComplete(ctx, nodes, diags, time.Since(start), err)
	return tree, err
}

// overrideMap maps groupId:artifactId to the version requested by the roots.
func overrideMap(roots []maven.Coordinate) map[string]string {
	m := make(map[string]string, len(roots))
	for _, c := range roots {
		m[c.GA()] = c.Version
	}
	return m
}

type session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	fetcher   POMFetcher
	opts      Options
	overrides map[string]string
	graph     *DependencyGraph

	jobs    chan job
	results chan result
	wg      sync.WaitGroup

	// Owned by the collector goroutine.
	visited map[string]bool
	queue   []job
	pending int
	roots   []maven.Coordinate
	flat    []resolved
	diags   []Diagnostic
}

// trail is the chain of keys from a root down to a job's dependent.
type trail struct {
	key  string
	next *trail
}

func (t *trail) contains(key string) bool {
	for ; t != nil; t = t.next {
		if t.key == key {
			return true
		}
	}
	return false
}

type job struct {
	coord maven.Coordinate
	depth int
	from  string
	trail *trail
	root  bool
}

type result struct {
	job
	pom   *maven.POM
	diags []Diagnostic
	err   error
}

type resolved struct {
	coord maven.Coordinate
	depth int
}

func (s *session) run(roots []maven.Coordinate) (*ResolvedTree, error) {
	for range s.opts.Workers {
		s.wg.Add(1)
		go s.worker()
	}
	defer func() {
		s.cancel()
		close(s.jobs)
		s.wg.Wait()
	}()

	for _, root := range roots {
		c := s.override(root)
		if s.claim(job{coord: c, root: true}) {
			s.roots = append(s.roots, c)
		}
	}
	if err := s.collect(); err != nil {
		return nil, err
	}
	return s.tree(), nil
}

func (s *session) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		start := time.Now()
		pom, diags, err := s.effectivePOM(j.coord)
		observability.Resolve().OnFetch(s.ctx, j.coord.Key(), time.Since(start), err)

		select {
		case s.results <- result{job: j, pom: pom, diags: diags, err: err}:
		case <-s.ctx.Done():
			return
		}
	}
}

// claim marks the job's coordinate visited and queues it. It reports false
// if the coordinate was already claimed.
func (s *session) claim(j job) bool {
	key := j.coord.Key()
	if s.visited[key] {
		return false
	}
	s.visited[key] = true
	s.queue = append(s.queue, j)
	s.pending++
	return true
}

func (s *session) collect() error {
	for s.pending > 0 {
		var jobs chan<- job
		var next job
		if len(s.queue) > 0 {
			jobs = s.jobs
			next = s.queue[0]
		}

		select {
		case jobs <- next:
			s.queue[0] = job{}
			s.queue = s.queue[1:]
		case r := <-s.results:
			s.pending--
			if err := s.handle(r); err != nil {
				return err
			}
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}
	return nil
}

func (s *session) handle(r result) error {
	if r.err != nil {
		if r.root {
			return fmt.Errorf("resolve %s: %w", r.coord, r.err)
		}
		s.report(Diagnostic{Coordinate: r.coord, From: r.from, Kind: KindFetch, Err: r.err})
		return nil
	}
	for _, d := range r.diags {
		s.report(d)
	}

	pom := r.pom
	pom.FillMissingVersions()

	coord := r.coord
	coord.Packaging = pom.Packaging
	candidates := s.candidates(coord, pom)
	s.graph.AddNode(coord, candidates, r.depth)
	if pom.Packaging != "pom" {
		s.flat = append(s.flat, resolved{coord: coord, depth: r.depth})
	}
	s.opts.Logger.Debug("resolved", "coordinate", coord.String(), "depth", r.depth, "dependencies", len(candidates))

	path := &trail{key: coord.Key(), next: r.trail}
	for _, c := range candidates {
		key := c.Key()
		if s.visited[key] {
			if path.contains(key) {
				s.report(Diagnostic{
					Coordinate: c,
					From:       coord.Key(),
					Kind:       KindCycle,
					Err:        errors.New(errors.ErrCodeCircularDependency, "%s depends back on %s", coord, key),
				})
			}
			continue
		}
		if s.opts.MaxDepth > 0 && r.depth+1 > s.opts.MaxDepth {
			s.report(Diagnostic{Coordinate: c, From: coord.Key(), Kind: KindDepth})
			continue
		}
		s.claim(job{coord: c, depth: r.depth + 1, from: coord.Key(), trail: path})
	}
	return nil
}

// candidates returns the dependencies followed transitively, with the
// override map applied.
func (s *session) candidates(coord maven.Coordinate, pom *maven.POM) []maven.Coordinate {
	var out []maven.Coordinate
	for _, d := range pom.Dependencies {
		if !d.Scope.Transitive() || d.Optional {
			continue
		}
		if d.Version == "" {
			s.report(Diagnostic{Coordinate: d.Coordinate(), From: coord.Key(), Kind: KindUnversioned})
			continue
		}
		out = append(out, s.override(d.Coordinate()))
	}
	return out
}

func (s *session) override(c maven.Coordinate) maven.Coordinate {
	if v, ok := s.overrides[c.GA()]; ok && v != c.Version {
		return c.WithVersion(v)
	}
	return c
}

func (s *session) report(d Diagnostic) {
	s.diags = append(s.diags, d)
	switch d.Kind {
	case KindFetch, KindParent:
		s.opts.Logger.Warn("skipped", "kind", string(d.Kind), "coordinate", d.Coordinate.String(), "from", d.From, "err", d.Err)
	default:
		s.opts.Logger.Debug("skipped", "kind", string(d.Kind), "coordinate", d.Coordinate.String(), "from", d.From)
	}
}

// effectivePOM fetches coord and merges its parent chain into it. Only the
// POM of coord itself is fatal; ancestor failures become diagnostics.
func (s *session) effectivePOM(coord maven.Coordinate) (*maven.POM, []Diagnostic, error) {
	pom, err := s.fetcher.FetchPOM(s.ctx, coord)
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	chain := []*maven.POM{pom}
	seen := map[string]bool{coord.Key(): true}
	for cur := pom; cur.Parent != nil && len(chain) <= s.opts.MaxParentDepth; {
		pc := *cur.Parent
		if seen[pc.Key()] {
			diags = append(diags, Diagnostic{
				Coordinate: pc,
				From:       coord.Key(),
				Kind:       KindParent,
				Err:        errors.New(errors.ErrCodeCircularDependency, "parent chain of %s revisits %s", coord, pc),
			})
			break
		}
		seen[pc.Key()] = true

		parent, err := s.fetcher.FetchPOM(s.ctx, pc)
		if err != nil {
			diags = append(diags, Diagnostic{Coordinate: pc, From: coord.Key(), Kind: KindParent, Err: err})
			break
		}
		chain = append(chain, parent)
		cur = parent
	}

	// Merge top-down so every ancestor is effective before its child sees it.
	for i := len(chain) - 1; i > 0; i-- {
		chain[i-1].MergeDependencyManagement(chain[i].DependencyManagement)
		chain[i-1].MergeProperties(chain[i].Properties)
	}
	return pom, diags, nil
}

func (s *session) tree() *ResolvedTree {
	sort.SliceStable(s.flat, func(i, j int) bool {
		if s.flat[i].depth != s.flat[j].depth {
			return s.flat[i].depth < s.flat[j].depth
		}
		return s.flat[i].coord.Key() < s.flat[j].coord.Key()
	})

	seen := make(map[string]bool, len(s.flat))
	all := make([]maven.Coordinate, 0, len(s.flat))
	for _, r := range s.flat {
		if key := r.coord.String(); !seen[key] {
			seen[key] = true
			all = append(all, r.coord)
		}
	}
	sortDiagnostics(s.diags)

	return &ResolvedTree{
		RootDependencies: s.roots,
		AllDependencies:  all,
		Graph:            s.graph,
		Diagnostics:      s.diags,
	}
}
