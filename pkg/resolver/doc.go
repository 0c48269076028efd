// Package resolver computes the transitive dependency closure of a set of
// Maven coordinates.
//
// # Algorithm
//
// Resolution is a worklist drained by a pool of workers:
//
//  1. Every root is rewritten through the override map (groupId:artifactId
//     to the version the roots ask for) and queued. The last root wins when
//     two roots name the same groupId:artifactId.
//  2. A worker fetches the effective POM of a queued coordinate: its own POM
//     merged with up to [DefaultMaxParentDepth] ancestors.
//  3. The collector fills managed versions, keeps compile and provided
//     dependencies that are not optional and have a version, applies the
//     override map, records a graph node and queues every candidate it has
//     not seen before.
//
// The collector is the only goroutine that touches the visited set, the
// queue and the result, so each groupId:artifactId:version is fetched and
// recorded exactly once. Workers only perform I/O.
//
// # Failures
//
// A root that cannot be fetched or parsed fails [Resolver.Resolve].
// Failures below the roots, failed parent POMs, cycles and dependencies
// without a version are reported in [ResolvedTree.Diagnostics] and the rest
// of the tree is still resolved.
package resolver
