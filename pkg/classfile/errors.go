package classfile

import (
	"fmt"

	errs "github.com/matzehuels/classscan/pkg/errors"
)

// MalformedClassError reports a classfile that cannot be decoded.
type MalformedClassError struct {
	Resource string // Resource path the bytes were read from
	Offset   int    // Byte offset where decoding failed (-1 if unknown)
	Reason   string // Human-readable description
	Err      error  // Underlying cause (optional)
}

// Error implements the error interface.
func (e *MalformedClassError) Error() string {
	msg := fmt.Sprintf("malformed class %s", e.Resource)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MalformedClassError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *MalformedClassError) Code() errs.Code { return errs.ErrCodeMalformedClass }

// UnsupportedVersionError reports a classfile version this reader does not handle.
type UnsupportedVersionError struct {
	Resource string
	Major    uint16
	Minor    uint16
}

// Error implements the error interface.
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported classfile version %d.%d in %s (supported: %d-%d)",
		e.Major, e.Minor, e.Resource, MinMajorVersion, MaxMajorVersion)
}

// Code returns the error code for this error type.
func (e *UnsupportedVersionError) Code() errs.Code { return errs.ErrCodeUnsupportedVersion }

// NameMismatchError reports a class whose declared name disagrees with the
// name implied by its resource path.
type NameMismatchError struct {
	Resource string
	Expected string // Name derived from the resource path
	Declared string // Name in the this_class entry
}

// Error implements the error interface.
func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("%s declares class %s, expected %s", e.Resource, e.Declared, e.Expected)
}

// Code returns the error code for this error type.
func (e *NameMismatchError) Code() errs.Code { return errs.ErrCodeNameMismatch }
