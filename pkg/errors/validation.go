package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a dotted package prefix as used by accept and
// reject filters ("com.example", "com.example.api"). The empty string is the
// root package and is valid.
//
// The validation rules are intentionally conservative:
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No empty segments ("com..example", ".com")
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Empty segment or parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return New(ErrCodeInvalidPackage, "package name cannot start or end with a dot: %q", name)
	}

	return nil
}

// classNameRegex matches binary class names in dotted form, including
// nested classes ("com.example.Outer$Inner") and the default package.
var classNameRegex = regexp.MustCompile(`^([\p{L}_$][\p{L}\p{N}_$]*\.)*[\p{L}_$][\p{L}\p{N}_$]*$`)

// ValidateClassName validates a fully-qualified class name such as
// "com.example.Outer$Inner".
func ValidateClassName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidClass, "class name cannot be empty")
	}
	if err := ValidatePackageName(name); err != nil {
		return New(ErrCodeInvalidClass, "invalid class name %q: %s", name, UserMessage(err))
	}
	if !classNameRegex.MatchString(name) {
		return New(ErrCodeInvalidClass, "invalid class name: %q", name)
	}
	return nil
}

// ValidatePath validates a resource path inside a classpath element.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
