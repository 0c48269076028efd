// Package export serializes a [resolver.ResolvedTree] for other tools.
//
// # Formats
//
//   - text: the indented tree printed by [resolver.RenderTree]
//   - json: a [Document] with roots, the flat dependency list, graph nodes,
//     edges and diagnostics
//   - yaml: the same [Document] as YAML
//   - dot:  a Graphviz digraph, one node per resolved coordinate
//   - svg:  the DOT graph laid out by Graphviz
//
// The JSON document looks like:
//
//	{
//	  "roots": ["org.example:app:1.0"],
//	  "dependencies": ["org.example:app:1.0", "org.slf4j:slf4j-api:2.0.9"],
//	  "nodes": [
//	    {"id": "org.example:app:1.0", "depth": 0, "packaging": "jar"}
//	  ],
//	  "edges": [
//	    {"from": "org.example:app:1.0", "to": "org.slf4j:slf4j-api:2.0.9"}
//	  ],
//	  "diagnostics": [
//	    {"kind": "fetch", "coordinate": "com.example:gone:1", "from": "org.example:app:1.0", "error": "..."}
//	  ]
//	}
//
// Edges point from a dependent to its dependency and may name coordinates
// that have no node (failed or skipped subtrees).
package export
