// Package io serializes scan results as snapshots.
//
// A [Snapshot] is a self-contained, serializable copy of a class graph:
// the scanned classes with their kinds, modifiers, supertypes, members and
// annotations, the external classes they reference, the dependency edges
// with their kinds, and the units that failed. Snapshots are what the
// pipeline caches between runs and what `classscan export` writes.
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "dependencies": true,
//	  "classes": [
//	    {"name": "com.example.X", "kind": "class", "state": "resolved", ...},
//	    {"name": "java.lang.Object", "kind": "unknown", "state": "external"}
//	  ],
//	  "edges": [
//	    {"from": "com.example.Y", "to": "com.example.X", "kinds": ["method-param", "annotation-param"]}
//	  ]
//	}
//
// YAML output uses the same field names.
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode a snapshot; [Snapshot.Graph] rebuilds a
// finalized [classgraph.Graph] from it. Member types are re-parsed from
// their descriptors. Annotation parameter values are exported as rendered
// text only, so an imported graph carries annotation types without their
// parameters, and lazy class references cannot load classes.
package io
