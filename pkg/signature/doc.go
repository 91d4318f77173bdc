// Package signature parses JVM type descriptors and generic signatures into
// typed trees.
//
// Descriptors are the erased encodings every field and method carries
// ("[Ljava/lang/String;", "(IJ)V"). Signatures are the optional
// generics-preserving encodings emitted when the source declared type
// parameters or parameterized types ("Ljava/util/List<+TT;>;").
//
// # Types
//
// Every parsed type implements [Type]:
//
//   - [BaseType]: a primitive or void
//   - [*ClassRefType]: a class or interface, possibly parameterized
//   - [*ArrayType]: an element type plus a dimension count (always >= 1);
//     the element is never itself an array
//   - [*TypeVariable]: a reference to a declared type parameter
//
// Class names are stored verbatim in dotted binary form ("java.util.Map$Entry")
// and are never resolved here. Resolution against a scan happens downstream
// in package classgraph.
//
// # Errors
//
// Malformed input yields a [*MalformedSignatureError] carrying the input and
// the offset of the defect. Unknown wildcard indicators inside type argument
// lists are accepted and reported as [WildcardOpaque] so that newer encodings
// do not break older readers.
package signature
