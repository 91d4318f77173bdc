// Package classgraph models the classes found by a scan and the
// dependencies between them.
//
// # Records and the graph
//
// Workers turn each decoded classfile into a [Record] with [BuildRecord].
// Building a record is a pure function of the classfile: it parses member
// descriptors and signatures, resolves annotation parameter values, and
// lists every class the record references together with the [EdgeKind] of
// the reference.
//
// A single goroutine then folds records into a [Graph] with
// [Graph.AddOrMerge]. Edge targets that have not been scanned (yet) become
// placeholder nodes, which are upgraded in place when their own record
// arrives. After the last merge [Graph.Finalize] turns the remaining
// placeholders into external nodes and binds every lazy reference to the
// graph.
//
// # Lazy references
//
// Class literals in annotation values become [*ClassRef] values holding only
// a name. Array-typed fields, parameters and return types expose an
// [*ArrayClassInfo] view (element plus dimension count). Neither resolves or
// loads anything at build time; [ClassRef.ClassInfo] looks the name up in the
// finalized graph and [ClassRef.LoadClass] defers to the [Loader] the graph
// was finalized with.
//
// # Values
//
// Annotation parameter values form a closed set of types implementing
// [Value]: [Primitive], [String], [EnumValue], [*ClassRef], [*AnnotationInfo]
// and [*Array]. Consumers switch on the concrete type or on [Value.Kind].
package classgraph
