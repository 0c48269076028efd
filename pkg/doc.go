// Package pkg provides the libraries behind polytunnel's Maven dependency
// resolution.
//
// # Overview
//
// Polytunnel resolves the transitive dependencies of Maven coordinates: it
// fetches POMs from remote repositories, merges each one with its parent
// chain, applies root version overrides and scope filtering, and returns a
// deduplicated artifact list together with the dependency graph.
//
// # Architecture
//
// The data flow:
//
//	polytunnel.toml / coordinates
//	         ↓
//	    [maven] package (coordinates, POM model, repository client)
//	         ↓
//	    [resolver] package (worklist resolution into a ResolvedTree)
//	         ↓
//	    [export] (JSON, YAML, DOT, SVG) or [store] (jar download)
//
// # Quick Start
//
//	client := maven.NewClient(maven.Options{})
//	r := resolver.New(client, resolver.Options{})
//	tree, err := r.Resolve(ctx, []maven.Coordinate{
//	    maven.NewCoordinate("com.google.guava", "guava", "32.1.3-jre"),
//	})
//	if err != nil {
//	    return err
//	}
//	for _, dep := range tree.AllDependencies {
//	    fmt.Println(dep)
//	}
//
// # Main Packages
//
// [maven] - Coordinates, the POM subset that matters for resolution
// (parents, properties, dependencyManagement, dependencies), property
// interpolation, version ordering and a repository client that tries each
// configured repository in order.
//
// [resolver] - The resolution engine. A collector goroutine owns all state
// while a fixed pool of workers fetches effective POMs. Failures below the
// roots are reported as diagnostics instead of aborting the resolution.
//
// [cache] - Response caching for the repository client: in-memory LRU,
// file, Redis and MongoDB backends behind one interface.
//
// [store] - Jar storage on the local filesystem or an S3-compatible bucket,
// and a concurrent sync from a resolution into a store.
//
// [export] - Serialization of a resolution as JSON, YAML, Graphviz DOT or SVG.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Resolve, cache and HTTP hooks with a Prometheus
// implementation.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/resolver/...           # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// Redis, MongoDB and S3 tests run only when their POLYTUNNEL_TEST_* variables
// are set.
//
// [maven]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/maven
// [resolver]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/resolver
// [cache]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/cache
// [store]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/store
// [export]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/export
// [errors]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/errors
// [observability]: https://pkg.go.dev/github.com/polytunnel/polytunnel/pkg/observability
package pkg
