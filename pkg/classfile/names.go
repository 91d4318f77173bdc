package classfile

import "strings"

// BinaryName converts an internal class name ("com/example/Foo$Bar") to its
// dotted binary form ("com.example.Foo$Bar").
func BinaryName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// InternalName converts a dotted binary name to the internal form.
func InternalName(binary string) string {
	return strings.ReplaceAll(binary, ".", "/")
}

// ResourcePath returns the resource path of a class ("com/example/Foo.class").
func ResourcePath(binary string) string {
	return InternalName(binary) + ".class"
}

// ResourceClassName derives the binary class name a resource path should
// contain, ignoring a multi-release "META-INF/versions/N/" prefix.
// It returns "" when the resource is not a .class file.
func ResourceClassName(resource string) string {
	if !strings.HasSuffix(resource, ".class") {
		return ""
	}
	name := strings.TrimSuffix(resource, ".class")
	if rest, ok := strings.CutPrefix(name, "META-INF/versions/"); ok {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name = rest[i+1:]
		}
	}
	return BinaryName(strings.TrimPrefix(name, "/"))
}

// DescriptorClassNames returns the dotted names of the classes mentioned in
// an erased field or method descriptor, in order of appearance. Array
// dimensions are dropped and primitive types are skipped. Malformed input
// yields the names found before the defect.
func DescriptorClassNames(desc string) []string {
	var out []string
	for i := 0; i < len(desc); i++ {
		switch desc[i] {
		case 'L':
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				return out
			}
			out = append(out, BinaryName(desc[i+1:i+end]))
			i += end
		case '(', ')', '[', 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		default:
			return out
		}
	}
	return out
}

// PackageName returns the package portion of a dotted class name.
func PackageName(binary string) string {
	if i := strings.LastIndexByte(binary, '.'); i >= 0 {
		return binary[:i]
	}
	return ""
}
