// Package maventest provides an in-memory Maven repository for tests.
package maventest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/polytunnel/polytunnel/pkg/cache"
	"github.com/polytunnel/polytunnel/pkg/maven"
)

// BaseURL is the repository root served by Repository.
const BaseURL = "https://repo.test/maven2"

// Repository is an in-memory maven.Transport keyed by URL. Unknown URLs
// answer 404. It is safe for concurrent use.
type Repository struct {
	mu      sync.Mutex
	files   map[string][]byte
	status  map[string]int
	fetches map[string]int
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		files:   make(map[string][]byte),
		status:  make(map[string]int),
		fetches: make(map[string]int),
	}
}

// POMURL is the URL at which AddPOM serves coord.
func POMURL(coord maven.Coordinate) string {
	return BaseURL + "/" + coord.RepoPath() + "/" + coord.POMFilename()
}

// JarURL is the URL at which AddJar serves coord.
func JarURL(coord maven.Coordinate) string {
	return BaseURL + "/" + coord.RepoPath() + "/" + coord.JarFilename()
}

// AddPOM serves xml as the POM of coord.
func (r *Repository) AddPOM(coord maven.Coordinate, xml string) {
	r.Add(POMURL(coord), []byte(xml))
}

// AddJar serves data as the jar of coord.
func (r *Repository) AddJar(coord maven.Coordinate, data []byte) {
	r.Add(JarURL(coord), data)
}

// Add serves body at url.
func (r *Repository) Add(url string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[url] = body
}

// SetStatus forces url to answer with status and an empty body.
func (r *Repository) SetStatus(url string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[url] = status
}

// Fetches reports how many times url was requested.
func (r *Repository) Fetches(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches[url]
}

// TotalFetches reports the number of requests served.
func (r *Repository) TotalFetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.fetches {
		n += c
	}
	return n
}

// Get implements maven.Transport.
func (r *Repository) Get(ctx context.Context, url string) (*maven.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[url]++

	if s, ok := r.status[url]; ok {
		return &maven.Response{Status: s}, nil
	}
	if body, ok := r.files[url]; ok {
		return &maven.Response{Status: 200, Body: body}, nil
	}
	return &maven.Response{Status: 404, Body: []byte("Not Found")}, nil
}

// Client returns a maven.Client reading from r without caching.
func (r *Repository) Client() *maven.Client {
	return maven.NewClient(maven.Options{
		Repositories: []string{BaseURL},
		SearchURL:    BaseURL + "/search",
		Transport:    r,
		Cache:        cache.NewNullCache(),
	})
}

// Dep describes one <dependency> for POM.
type Dep struct {
	Coord    string // "g:a" or "g:a:v"
	Scope    string
	Optional bool
}

// POM renders a minimal POM for coord ("g:a:v") with the given dependencies.
// Use it for graph-shape tests; write XML by hand for inheritance tests.
func POM(coord string, deps ...Dep) string {
	parts := strings.Split(coord, ":")
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<project xmlns="http://maven.apache.org/POM/4.0.0">` + "\n")
	fmt.Fprintf(&b, "  <groupId>%s</groupId>\n  <artifactId>%s</artifactId>\n  <version>%s</version>\n",
		parts[0], parts[1], parts[2])
	if len(deps) > 0 {
		b.WriteString("  <dependencies>\n")
		for _, d := range deps {
			dp := strings.Split(d.Coord, ":")
			b.WriteString("    <dependency>\n")
			fmt.Fprintf(&b, "      <groupId>%s</groupId>\n      <artifactId>%s</artifactId>\n", dp[0], dp[1])
			if len(dp) > 2 {
				fmt.Fprintf(&b, "      <version>%s</version>\n", dp[2])
			}
			if d.Scope != "" {
				fmt.Fprintf(&b, "      <scope>%s</scope>\n", d.Scope)
			}
			if d.Optional {
				b.WriteString("      <optional>true</optional>\n")
			}
			b.WriteString("    </dependency>\n")
		}
		b.WriteString("  </dependencies>\n")
	}
	b.WriteString("</project>\n")
	return b.String()
}

var _ maven.Transport = (*Repository)(nil)
