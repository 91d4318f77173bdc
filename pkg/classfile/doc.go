// Package classfile decodes compiled JVM classfiles into structured records.
//
// [Parse] reads the fixed header, the constant pool, the class, field and
// method tables, and the attributes that carry structural metadata: generic
// signatures, annotations, parameter annotations, annotation defaults,
// parameter names, constant values, declared exceptions, the source file name
// and the inner-class table. Attributes that only matter for execution (Code,
// StackMapTable, LineNumberTable, ...) are skipped by length.
//
// All names in the returned [ClassFile] are converted from the internal form
// ("com/example/Foo") to dotted binary names ("com.example.Foo"). Type
// descriptors and signatures are kept verbatim; see package signature for
// parsing them.
//
// # Errors
//
// Parse fails with one of:
//   - [*MalformedClassError]: bad magic, truncated input, invalid constant pool
//     index or tag, inconsistent attribute lengths, trailing bytes, or an
//     annotation array whose elements are not of one kind
//   - [*UnsupportedVersionError]: major version outside [MinMajorVersion, MaxMajorVersion]
//   - [*NameMismatchError]: the class declares a different name than its
//     resource path implies (only when Options.CheckName is set)
//
// Parse has no side effects and is safe for concurrent use.
package classfile
